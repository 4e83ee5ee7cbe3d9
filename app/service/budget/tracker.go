package budget

import (
	"math"
	"sync"
	"time"

	"dischat/app/config"
	"dischat/app/util/clock"

	"golang.org/x/time/rate"
)

// Forever is returned by TimeUntilAvailable once the tracker is stuck in the rate-limited state.
const Forever = time.Duration(math.MaxInt64)

// Tracker combines a rolling count quota with a minimal spacing between calls.
// A call may proceed only when both allow it.
type Tracker struct {
	name  string
	clock clock.Clock

	mu          sync.Mutex
	used        int
	limit       int
	window      time.Duration
	windowStart time.Time

	interval      time.Duration
	backoffFactor float64
	maxInterval   time.Duration
	limiter       *rate.Limiter

	stickyEnabled bool
	rateLimited   bool
}

type Snapshot struct {
	Name        string        `json:"name"`
	Used        int           `json:"used"`
	Limit       int           `json:"limit"`
	WindowStart time.Time     `json:"window_start"`
	Interval    time.Duration `json:"interval"`
	RateLimited bool          `json:"rate_limited"`
	Available   time.Duration `json:"available_in"`
}

func NewTracker(name string, quota config.Quota, clk clock.Clock) *Tracker {
	sticky := true
	if quota.Sticky != nil {
		sticky = *quota.Sticky
	}

	t := &Tracker{
		name:          name,
		clock:         clk,
		limit:         quota.Limit,
		window:        quota.Window,
		windowStart:   clk.Now(),
		interval:      quota.Interval,
		backoffFactor: quota.BackoffFactor,
		maxInterval:   quota.MaxInterval,
		stickyEnabled: sticky,
	}
	t.limiter = rate.NewLimiter(limitFor(quota.Interval), 1)

	return t
}

func (t *Tracker) CanProceed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.resetWindowLocked(now)

	return t.canProceedLocked(now)
}

// RecordCall counts one call against the quota and consumes the interval token.
func (t *Tracker) RecordCall() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.resetWindowLocked(now)

	t.used++
	if t.interval > 0 {
		t.limiter.AllowN(now, 1)
	}
}

func (t *Tracker) TimeUntilAvailable() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.resetWindowLocked(now)

	return t.timeUntilAvailableLocked(now)
}

// Backoff widens the interval by the configured factor, up to the ceiling.
func (t *Tracker) Backoff() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backoffLocked()
}

// MarkRateLimited records a rate-limit answer from the guarded service. With sticky mode the
// tracker refuses every later call for the rest of the process lifetime.
func (t *Tracker) MarkRateLimited() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.backoffLocked()
	if t.stickyEnabled {
		t.rateLimited = true
	}
}

func (t *Tracker) RateLimited() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.rateLimited
}

func (t *Tracker) Interval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.interval
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	t.resetWindowLocked(now)

	return Snapshot{
		Name:        t.name,
		Used:        t.used,
		Limit:       t.limit,
		WindowStart: t.windowStart,
		Interval:    t.interval,
		RateLimited: t.rateLimited,
		Available:   t.timeUntilAvailableLocked(now),
	}
}

func (t *Tracker) resetWindowLocked(now time.Time) {
	if t.window > 0 && now.Sub(t.windowStart) > t.window {
		t.used = 0
		t.windowStart = now
	}
}

func (t *Tracker) canProceedLocked(now time.Time) bool {
	if t.rateLimited {
		return false
	}
	if t.used >= t.limit {
		return false
	}

	return t.interval <= 0 || t.limiter.TokensAt(now) >= 1
}

func (t *Tracker) timeUntilAvailableLocked(now time.Time) time.Duration {
	if t.rateLimited {
		return Forever
	}

	var wait time.Duration

	if t.used >= t.limit {
		wait = t.windowStart.Add(t.window).Sub(now)
		if wait < 0 {
			wait = 0
		}
	}

	if t.interval > 0 {
		if tokens := t.limiter.TokensAt(now); tokens < 1 {
			need := time.Duration((1 - tokens) * float64(t.interval))
			if need > wait {
				wait = need
			}
		}
	}

	return wait
}

func (t *Tracker) backoffLocked() {
	next := time.Duration(float64(t.interval) * t.backoffFactor)
	if t.interval == 0 {
		next = time.Second
	}
	if t.maxInterval > 0 && next > t.maxInterval {
		next = t.maxInterval
	}

	t.interval = next
	t.limiter.SetLimitAt(t.clock.Now(), limitFor(next))
}

func limitFor(interval time.Duration) rate.Limit {
	if interval <= 0 {
		return rate.Inf
	}

	return rate.Every(interval)
}
