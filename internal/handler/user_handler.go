package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/middleware"
)

// UserHandler handles profile and account administration requests
type UserHandler struct {
	userService service.UserService
	logger      *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

type SetEmailVerifiedRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// GetProfile handles GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.GetUint(middleware.ContextUserID)

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SetEmailVerified handles PUT /admin/users/:user_id/email-verified
func (h *UserHandler) SetEmailVerified(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req SetEmailVerifiedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "verified (bool) required"})
		return
	}

	user, err := h.userService.SetEmailVerified(c.Request.Context(), userID, *req.Verified)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RevokeAllSessions handles POST /admin/users/:user_id/sessions/revoke
func (h *UserHandler) RevokeAllSessions(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	revoked, err := h.userService.RevokeAllSessions(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"revoked": revoked,
	})
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	handleServiceError(c, h.logger, err)
}

func parseUserID(c *gin.Context) (uint, bool) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user_id"})
		return 0, false
	}
	return uint(userID), true
}
