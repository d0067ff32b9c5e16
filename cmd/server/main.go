package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/api"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/repository"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/service"
	internalgrpc "github.com/EgehanKilicarslan/studyai/auth-go/internal/grpc"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/handler"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/logger"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/middleware"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/token"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting auth service...",
		"environment", cfg.AppEnv,
		"session_policy", cfg.SessionPolicy,
	)

	// 3. Connect to Database
	db, err := database.ConnectDatabase(cfg, appLogger)
	if err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Initialize Redis-backed security event log
	var events database.SecurityEventStore
	redisClient, err := database.NewRedisClient(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis for security events", "error", err)
		events = database.NewNoOpSecurityEventStore(appLogger)
	} else {
		events = redisClient
	}
	defer events.Close()

	// 6. Initialize Services
	issuer := token.NewJWTIssuer(cfg)
	rotationService := service.NewRotationService(
		refreshTokenRepo, userRepo, token.NewSecretGenerator(), issuer, events, cfg, appLogger,
	)
	authService := service.NewAuthService(
		userRepo, refreshTokenRepo, rotationService, issuer, events, cfg, appLogger,
	)
	userService := service.NewUserService(userRepo, refreshTokenRepo, appLogger)

	// 7. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	sessionHandler := handler.NewSessionHandler(authService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	// 8. Initialize Rate Limiter
	rateLimiter, err := middleware.NewRateLimiter(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	}
	defer rateLimiter.Close()

	// 9. Background retention job
	pool := worker.NewPool(appLogger)
	cleanup := worker.NewCleanupJob(
		refreshTokenRepo,
		time.Duration(cfg.TokenCleanupInterval)*time.Second,
		time.Duration(cfg.TokenRetention)*time.Second,
		appLogger,
	)
	pool.SubmitWithTimeout(time.Minute, func(ctx context.Context) {
		cleanup.RunOnce(ctx)
	})
	cleanup.Start(pool)

	// 10. Start gRPC Server (internal services -> Go)
	grpcServer := grpc.NewServer()
	internalgrpc.RegisterSessionServiceServer(grpcServer, internalgrpc.NewSessionServer(authService, appLogger))

	grpcAddr := fmt.Sprintf(":%s", cfg.ApiGrpcPort)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		appLogger.Error("❌ Failed to listen for gRPC", "error", err)
		os.Exit(1)
	}

	go func() {
		appLogger.Info("🔌 [Go] gRPC Server running...", "port", cfg.ApiGrpcPort)
		if err := grpcServer.Serve(grpcListener); err != nil {
			appLogger.Error("❌ gRPC Server failed", "error", err)
		}
	}()

	// 11. Setup Router and start HTTP Server
	r := api.SetupRouter(authHandler, sessionHandler, userHandler, authMiddleware, middleware.RateLimit(rateLimiter, appLogger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ApiServicePort),
		Handler: r,
	}

	go func() {
		appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("❌ HTTP Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// 12. Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("🛑 [Go] Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("❌ HTTP Server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	pool.Shutdown(shutdownTimeout)

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("👋 [Go] Auth service stopped")
}
