package worker

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolSubmit(t *testing.T) {
	pool := NewPool(discardLogger())

	var counter int32
	for i := 0; i < 10; i++ {
		pool.Submit(func(ctx context.Context) {
			atomic.AddInt32(&counter, 1)
		})
	}

	if !pool.Shutdown(5 * time.Second) {
		t.Fatal("expected shutdown to finish in time")
	}
	if atomic.LoadInt32(&counter) != 10 {
		t.Errorf("expected counter to be 10, got %d", counter)
	}
}

func TestPoolSubmitWithTimeout(t *testing.T) {
	pool := NewPool(discardLogger())

	timedOut := make(chan bool, 1)
	pool.SubmitWithTimeout(50*time.Millisecond, func(ctx context.Context) {
		select {
		case <-ctx.Done():
			timedOut <- true
		case <-time.After(5 * time.Second):
			timedOut <- false
		}
	})

	if !<-timedOut {
		t.Error("expected task context to time out")
	}
	pool.Shutdown(time.Second)
}

func TestPoolShutdownCancelsContext(t *testing.T) {
	pool := NewPool(discardLogger())
	ctx := pool.Context()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be done")
	default:
	}

	pool.Submit(func(ctx context.Context) {
		<-ctx.Done()
	})

	if !pool.Shutdown(time.Second) {
		t.Fatal("expected long-running task to stop on cancel")
	}

	select {
	case <-ctx.Done():
	default:
		t.Fatal("context should be done after shutdown")
	}
}

func TestPoolShutdownTimeout(t *testing.T) {
	pool := NewPool(discardLogger())

	release := make(chan struct{})
	pool.Submit(func(ctx context.Context) {
		<-release
	})

	if pool.Shutdown(20 * time.Millisecond) {
		t.Error("expected shutdown to report a timeout")
	}
	close(release)
}
