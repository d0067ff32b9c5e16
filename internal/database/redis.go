package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
)

// maxBreachEventsPerUser caps the per-user event list
const maxBreachEventsPerUser = 100

// RedisClient wraps the redis client with helper methods for security events
type RedisClient struct {
	client *redis.Client
	logger *slog.Logger
	cfg    *config.Config
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config, logger *slog.Logger) (*RedisClient, error) {
	logger.Info("🔌 [Redis] Connecting to Redis...",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
		"db", cfg.RedisDB,
	)

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDB),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [Redis] Redis connection established")

	return &RedisClient{
		client: client,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// NewRedisClientForTesting creates a Redis client with a provided redis.Client (for testing)
func NewRedisClientForTesting(client *redis.Client, cfg *config.Config, logger *slog.Logger) *RedisClient {
	return &RedisClient{
		client: client,
		logger: logger,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client, shared with the rate limiter
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}

// Format: security:user:{userID}:breaches
func breachListKey(userID uint) string {
	return fmt.Sprintf("security:user:%d:breaches", userID)
}

// Format: security:family:{familyID}:replays
func replayCountKey(familyID uuid.UUID) string {
	return fmt.Sprintf("security:family:%s:replays", familyID.String())
}

func (r *RedisClient) eventTTL() time.Duration {
	return time.Duration(r.cfg.SecurityEventTTL) * time.Second
}

// RecordBreach stores the event newest-first and bumps the family replay counter
func (r *RedisClient) RecordBreach(ctx context.Context, event models.BreachEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("❌ [Redis] Failed to marshal breach event",
			"family_id", event.FamilyID,
			"error", err,
		)
		return err
	}

	listKey := breachListKey(event.UserID)
	counterKey := replayCountKey(event.FamilyID)
	ttl := r.eventTTL()

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, listKey, string(data))
	pipe.LTrim(ctx, listKey, 0, maxBreachEventsPerUser-1)
	pipe.Expire(ctx, listKey, ttl)
	pipe.Incr(ctx, counterKey)
	pipe.Expire(ctx, counterKey, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("❌ [Redis] Failed to record breach event",
			"user_id", event.UserID,
			"family_id", event.FamilyID,
			"error", err,
		)
		return err
	}

	r.logger.Debug("💾 [Redis] Recorded breach event",
		"user_id", event.UserID,
		"family_id", event.FamilyID,
	)

	return nil
}

// ListBreaches returns the user's breach events, newest first
func (r *RedisClient) ListBreaches(ctx context.Context, userID uint) ([]models.BreachEvent, error) {
	results, err := r.client.LRange(ctx, breachListKey(userID), 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return []models.BreachEvent{}, nil
		}
		r.logger.Error("❌ [Redis] Failed to list breach events",
			"user_id", userID,
			"error", err,
		)
		return []models.BreachEvent{}, err
	}

	events := make([]models.BreachEvent, 0, len(results))
	for _, result := range results {
		var event models.BreachEvent
		if err := json.Unmarshal([]byte(result), &event); err != nil {
			r.logger.Warn("⚠️ [Redis] Failed to unmarshal breach event, skipping",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

// ReplayCount returns how many reuse attempts were seen for a family
func (r *RedisClient) ReplayCount(ctx context.Context, familyID uuid.UUID) (int64, error) {
	count, err := r.client.Get(ctx, replayCountKey(familyID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

// NoOpSecurityEventStore drops every event. Used when Redis is not available.
type NoOpSecurityEventStore struct{}

// NewNoOpSecurityEventStore creates a no-op event store
func NewNoOpSecurityEventStore(logger *slog.Logger) SecurityEventStore {
	logger.Warn("⚠️ [Redis] Using no-op security event store - breach events are only logged")
	return NoOpSecurityEventStore{}
}

func (NoOpSecurityEventStore) RecordBreach(ctx context.Context, event models.BreachEvent) error {
	return nil
}

func (NoOpSecurityEventStore) ListBreaches(ctx context.Context, userID uint) ([]models.BreachEvent, error) {
	return []models.BreachEvent{}, nil
}

func (NoOpSecurityEventStore) ReplayCount(ctx context.Context, familyID uuid.UUID) (int64, error) {
	return 0, nil
}

func (NoOpSecurityEventStore) Close() error {
	return nil
}
