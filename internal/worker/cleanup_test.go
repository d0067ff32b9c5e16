package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (p *fakePurger) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, before)
	return p.deleted, p.err
}

func (p *fakePurger) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoffs)
}

func TestCleanupJob_RunOnce(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	purger := &fakePurger{deleted: 4}

	job := NewCleanupJob(purger, time.Hour, 24*time.Hour, discardLogger())
	job.now = func() time.Time { return now }

	deleted, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	require.Len(t, purger.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), purger.cutoffs[0])
}

func TestCleanupJob_RunOnceError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	job := NewCleanupJob(purger, time.Hour, time.Hour, discardLogger())

	deleted, err := job.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Zero(t, deleted)
}

func TestCleanupJob_StartRunsOnTicker(t *testing.T) {
	purger := &fakePurger{}
	pool := NewPool(discardLogger())

	job := NewCleanupJob(purger, 10*time.Millisecond, time.Hour, discardLogger())
	job.Start(pool)

	assert.Eventually(t, func() bool { return purger.calls() >= 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, pool.Shutdown(time.Second))
}

func TestCleanupJob_DisabledInterval(t *testing.T) {
	purger := &fakePurger{}
	pool := NewPool(discardLogger())

	NewCleanupJob(purger, 0, time.Hour, discardLogger()).Start(pool)

	assert.True(t, pool.Shutdown(time.Second))
	assert.Zero(t, purger.calls())
}
