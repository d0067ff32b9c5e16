package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/middleware"
)

// SessionHandler exposes read-only views of a user's token families
type SessionHandler struct {
	service service.AuthService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service service.AuthService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

// ListMySessions handles GET /sessions for the authenticated user
func (h *SessionHandler) ListMySessions(c *gin.Context) {
	h.listSessions(c, c.GetUint(middleware.ContextUserID))
}

// ListUserSessions handles GET /admin/users/:user_id/sessions
func (h *SessionHandler) ListUserSessions(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	h.listSessions(c, userID)
}

// ListMySecurityEvents handles GET /sessions/security-events
func (h *SessionHandler) ListMySecurityEvents(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserID)

	events, err := h.service.ListSecurityEvents(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"events":  events,
	})
}

func (h *SessionHandler) listSessions(c *gin.Context, userID uint) {
	sessions, err := h.service.ListActiveSessions(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID,
		"sessions": sessions,
	})
}
