package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
)

const rateLimitWindow = time.Minute

// RateLimiter throttles credential endpoints per client
type RateLimiter interface {
	// Allow counts one attempt for key and reports whether it is within the limit
	// Returns: allowed bool, used int64, limit int64, error
	Allow(ctx context.Context, key string) (bool, int64, int64, error)

	// Close closes the Redis connection
	Close() error
}

type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	now    func() time.Time
	logger *slog.Logger
}

// NewRateLimiter creates a new Redis-based rate limiter
func NewRateLimiter(cfg *config.Config, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("❌ [RateLimiter] Failed to connect to Redis", "error", err)
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [RateLimiter] Connected to Redis",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"limit_per_minute", cfg.AuthRateLimitPerMinute,
	)

	return NewRateLimiterWithClient(client, cfg.AuthRateLimitPerMinute, logger), nil
}

// NewRateLimiterWithClient builds a limiter on an existing client (used by tests)
func NewRateLimiterWithClient(client *redis.Client, limit int64, logger *slog.Logger) RateLimiter {
	return &redisRateLimiter{
		client: client,
		limit:  limit,
		now:    time.Now,
		logger: logger,
	}
}

// windowKey generates the Redis key for the current one-minute window
// Format: rate:auth:{key}:{unix-minute}
func (r *redisRateLimiter) windowKey(key string) string {
	window := r.now().UTC().Truncate(rateLimitWindow).Unix()
	return fmt.Sprintf("rate:auth:%s:%d", key, window)
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string) (bool, int64, int64, error) {
	// If limit is 0 or negative, unlimited
	if r.limit <= 0 {
		return true, 0, 0, nil
	}

	windowKey := r.windowKey(key)

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, rateLimitWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [RateLimiter] Failed to count attempt", "error", err, "key", key)
		// On error, allow the request but log it
		return true, 0, r.limit, err
	}

	used := incr.Val()
	return used <= r.limit, used, r.limit, nil
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - rate limiting is disabled")
	return &NoOpRateLimiter{logger: logger}
}

func (r *NoOpRateLimiter) Allow(ctx context.Context, key string) (bool, int64, int64, error) {
	return true, 0, 0, nil
}

func (r *NoOpRateLimiter) Close() error {
	return nil
}

// RateLimit rejects requests from a client IP once it exceeds the limiter's budget
func RateLimit(limiter RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, used, limit, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("⚠️ [RateLimiter] Limiter unavailable, allowing request", "error", err)
		}

		if limit > 0 {
			remaining := limit - used
			if remaining < 0 {
				remaining = 0
			}
			c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		}

		if !allowed {
			logger.Warn("⚠️ [RateLimiter] Too many auth attempts", "client_ip", c.ClientIP(), "used", used)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			return
		}

		c.Next()
	}
}
