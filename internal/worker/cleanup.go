package worker

import (
	"context"
	"log/slog"
	"time"
)

// TokenPurger deletes token families whose newest token expired before the cutoff
type TokenPurger interface {
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// CleanupJob periodically purges expired refresh token families
type CleanupJob struct {
	purger    TokenPurger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewCleanupJob creates a retention job. Records are kept for retention past
// their expiry so breach investigations can still follow the chain.
func NewCleanupJob(purger TokenPurger, interval, retention time.Duration, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		purger:    purger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// RunOnce performs a single sweep and returns the number of deleted records
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.retention)

	deleted, err := j.purger.DeleteExpiredTokens(ctx, cutoff)
	if err != nil {
		j.logger.Error("❌ [Cleanup] Failed to purge expired tokens", "error", err)
		return 0, err
	}

	if deleted > 0 {
		j.logger.Info("🧹 [Cleanup] Purged expired refresh tokens",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted, nil
}

// Start schedules the job on the pool until the pool shuts down
func (j *CleanupJob) Start(pool *Pool) {
	if j.interval <= 0 {
		j.logger.Warn("⚠️ [Cleanup] Non-positive interval, token cleanup disabled")
		return
	}

	pool.Submit(func(ctx context.Context) {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		j.logger.Info("⏰ [Cleanup] Token cleanup scheduled", "interval", j.interval, "retention", j.retention)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.RunOnce(ctx)
			}
		}
	})
}
