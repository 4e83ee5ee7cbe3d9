package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type slowTicker struct {
	running  atomic.Int32
	overlaps atomic.Int32
	calls    atomic.Int32
	delay    time.Duration
	err      error
}

func (t *slowTicker) Tick(_ context.Context) error {
	t.calls.Add(1)
	if t.running.Add(1) > 1 {
		t.overlaps.Add(1)
	}
	defer t.running.Add(-1)

	time.Sleep(t.delay)

	return t.err
}

func TestService_TicksDoNotOverlap(t *testing.T) {
	ticker := &slowTicker{delay: 30 * time.Millisecond}
	svc := NewService(ticker, 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	svc.Run(ctx)

	if ticker.overlaps.Load() != 0 {
		t.Errorf("Expected no overlapping ticks, got %d", ticker.overlaps.Load())
	}
	if ticker.calls.Load() < 2 {
		t.Errorf("Expected several ticks, got %d", ticker.calls.Load())
	}
	if ticker.running.Load() != 0 {
		t.Error("Expected Run to wait for the in-flight tick")
	}
}

func TestService_TickErrorDoesNotStop(t *testing.T) {
	ticker := &slowTicker{err: errors.New("boom")}
	svc := NewService(ticker, 5*time.Millisecond, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	svc.Run(ctx)

	if ticker.calls.Load() < 2 {
		t.Errorf("Expected ticks to continue after an error, got %d", ticker.calls.Load())
	}
}
