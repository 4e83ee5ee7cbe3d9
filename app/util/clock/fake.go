package clock

import (
	"context"
	"sync"
	"time"
)

// Fake is a manually advanced clock. Sleep advances the clock instantly and records the duration.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)
}

func (f *Fake) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.slept = append(f.slept, d)
	if d > 0 {
		f.now = f.now.Add(d)
	}

	return nil
}

// Slept returns every duration passed to Sleep so far.
func (f *Fake) Slept() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]time.Duration(nil), f.slept...)
}
