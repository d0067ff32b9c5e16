package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/EgehanKilicarslan/studyai/auth-go/internal/config"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database"
	"github.com/EgehanKilicarslan/studyai/auth-go/internal/database/models"
)

// NewTestDB opens a private in-memory SQLite database with the auth schema.
// A single connection serialises transactions the way row locks do on Postgres.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())

	cfg := database.GormConfig()
	cfg.Logger = gormlogger.Default.LogMode(gormlogger.Silent)

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	// At most one live token per family, as in the Postgres migration
	require.NoError(t, db.Exec(
		"CREATE UNIQUE INDEX idx_refresh_tokens_family_tip ON refresh_tokens (family_id) WHERE is_revoked = 0",
	).Error)

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// NewTestLogger returns a logger that discards everything
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// NewTestConfig returns a configuration suitable for unit tests
func NewTestConfig() *config.Config {
	return &config.Config{
		AppEnv:                 "test",
		LogLevel:               slog.LevelError,
		JWTSecret:              "test_secret",
		JWTIssuer:              "studyai-auth-test",
		AccessTokenExpiration:  900,
		RefreshTokenExpiration: 3600,
		SessionPolicy:          config.SessionPolicySingle,
		AuthRateLimitPerMinute: 5,
		SecurityEventTTL:       3600,
		TokenCleanupInterval:   60,
		TokenRetention:         3600,
	}
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
