package api

import (
	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/handler"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/middleware"
)

func SetupRouter(
	authHandler *handler.AuthHandler,
	sessionHandler *handler.SessionHandler,
	userHandler *handler.UserHandler,
	authMiddleware *middleware.AuthMiddleware,
	authLimiter gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetTrustedProxies(nil)

	// Public routes
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Auth routes (Public, rate limited)
	authGroup := r.Group("/api/v1/auth")
	if authLimiter != nil {
		authGroup.Use(authLimiter)
	}
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
	}

	// Protected API routes
	api := r.Group("/api/v1")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/sessions", sessionHandler.ListMySessions)
		api.GET("/sessions/security-events", sessionHandler.ListMySecurityEvents)
		api.GET("/users/me", userHandler.GetProfile)
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users/:user_id/sessions", sessionHandler.ListUserSessions)
		admin.POST("/users/:user_id/sessions/revoke", userHandler.RevokeAllSessions)
		admin.PUT("/users/:user_id/email-verified", userHandler.SetEmailVerified)
	}

	return r
}
