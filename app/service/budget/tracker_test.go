package budget

import (
	"testing"
	"time"

	"dischat/app/config"
	"dischat/app/util/clock"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func quota(limit int, window, interval time.Duration, sticky bool) config.Quota {
	return config.Quota{
		Limit:         limit,
		Window:        window,
		Interval:      interval,
		BackoffFactor: 1.5,
		MaxInterval:   2 * time.Minute,
		Sticky:        &sticky,
	}
}

func TestTracker_WindowReset(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker("generation", quota(5, 24*time.Hour, 0, true), clk)

	for i := 0; i < 5; i++ {
		if !tr.CanProceed() {
			t.Fatalf("Expected call %d to be allowed", i+1)
		}
		tr.RecordCall()
	}

	if tr.CanProceed() {
		t.Fatal("Expected budget to be exhausted after 5 calls")
	}
	if wait := tr.TimeUntilAvailable(); wait != 24*time.Hour {
		t.Errorf("Expected 24h until reset, got %v", wait)
	}

	clk.Advance(24*time.Hour + time.Second)

	if !tr.CanProceed() {
		t.Fatal("Expected budget to be available after the window lapsed")
	}
	if snap := tr.Snapshot(); snap.Used != 0 {
		t.Errorf("Expected used counter reset, got %d", snap.Used)
	}
}

func TestTracker_IntervalThrottle(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker("generation", quota(100, time.Hour, 4*time.Second, true), clk)

	if !tr.CanProceed() {
		t.Fatal("Expected first call to be allowed")
	}
	tr.RecordCall()

	if tr.CanProceed() {
		t.Fatal("Expected interval throttle to block an immediate second call")
	}

	clk.Advance(time.Second)
	if wait := tr.TimeUntilAvailable(); wait != 3*time.Second {
		t.Errorf("Expected 3s until available, got %v", wait)
	}

	clk.Advance(3 * time.Second)
	if !tr.CanProceed() {
		t.Fatal("Expected call to be allowed after the interval")
	}
}

func TestTracker_BackoffCeiling(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker("generation", quota(100, time.Hour, time.Minute, false), clk)

	tr.Backoff()
	if got := tr.Interval(); got != 90*time.Second {
		t.Errorf("Expected 90s after one backoff, got %v", got)
	}

	tr.Backoff()
	if got := tr.Interval(); got != 2*time.Minute {
		t.Errorf("Expected interval capped at 2m, got %v", got)
	}
}

func TestTracker_StickyRateLimit(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker("generation", quota(100, time.Hour, 0, true), clk)

	tr.MarkRateLimited()

	if tr.CanProceed() {
		t.Fatal("Expected sticky rate limit to block calls")
	}

	clk.Advance(48 * time.Hour)

	if tr.CanProceed() {
		t.Fatal("Expected sticky rate limit to survive window resets")
	}
	if tr.TimeUntilAvailable() != Forever {
		t.Error("Expected Forever while rate limited")
	}
}

func TestTracker_NonStickyRateLimitOnlyBacksOff(t *testing.T) {
	clk := clock.NewFake(start)
	tr := NewTracker("generation", quota(100, time.Hour, 2*time.Second, false), clk)

	tr.RecordCall()
	tr.MarkRateLimited()

	if tr.RateLimited() {
		t.Fatal("Expected non-sticky tracker not to latch")
	}
	if got := tr.Interval(); got != 3*time.Second {
		t.Errorf("Expected 3s interval, got %v", got)
	}

	clk.Advance(4 * time.Second)
	if !tr.CanProceed() {
		t.Error("Expected call to be allowed once the widened interval passed")
	}
}
