package pattern

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dischat/app/util/clock"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sample() []Pattern {
	return []Pattern{
		{Trigger: "what's up", Response: "not much, you?", Author: "alice", CreatedAt: start},
		{Trigger: "pizza", Response: "pineapple all the way", Author: "bob", CreatedAt: start.Add(time.Minute)},
		{Trigger: "good night", Response: "gn 🌙", Author: "carol", CreatedAt: start.Add(2 * time.Minute)},
	}
}

func assertSame(t *testing.T, got, want []Pattern) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("Expected %d patterns, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i].Trigger != want[i].Trigger || got[i].Response != want[i].Response ||
			got[i].Author != want[i].Author || !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("Pattern %d mismatch: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBackend_RoundTrip(t *testing.T) {
	for _, name := range []string{"patterns.json", "patterns.db"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "nested", name)

			backend, err := OpenBackend(path)
			if err != nil {
				t.Fatalf("OpenBackend failed: %v", err)
			}
			defer backend.Close()

			if err = backend.Save(ctx, sample()); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := backend.Load(ctx)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			assertSame(t, loaded, sample())
		})
	}
}

func TestService_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "message_patterns.json")
	clk := clock.NewFake(start)

	svc := NewService(NewFileBackend(path), clk)
	for _, p := range sample() {
		if _, err := svc.AddPattern(ctx, p.Trigger, p.Response, p.Author); err != nil {
			t.Fatalf("AddPattern failed: %v", err)
		}
	}

	reloaded := NewService(NewFileBackend(path), clk)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertSame(t, reloaded.All(), svc.All())
}

func TestService_FindResponse(t *testing.T) {
	svc := NewService(NewFileBackend(filepath.Join(t.TempDir(), "p.json")), clock.NewFake(start))
	svc.patterns = sample()

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"  What's Up  ", "not much, you?", true},
		{"best pizza topping", "pineapple all the way", true},
		{"night", "gn 🌙", true},
		{"hello there", "", false},
		{"   ", "", false},
	}

	for _, tt := range tests {
		got, ok := svc.FindResponse(tt.text)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("FindResponse(%q) = %q, %v; want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestService_FindResponseExactBeforeSubstring(t *testing.T) {
	svc := NewService(NewFileBackend(filepath.Join(t.TempDir(), "p.json")), clock.NewFake(start))
	svc.patterns = []Pattern{
		{Trigger: "pizza time", Response: "substring"},
		{Trigger: "pizza", Response: "exact"},
	}

	if got, _ := svc.FindResponse("pizza"); got != "exact" {
		t.Errorf("Expected exact match to win, got %q", got)
	}
}

func TestService_AddPatternDeduplicates(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewFileBackend(filepath.Join(t.TempDir(), "p.json")), clock.NewFake(start))

	added, err := svc.AddPattern(ctx, "Hello", "hey", "alice")
	if err != nil || !added {
		t.Fatalf("Expected first add to succeed, got %v, %v", added, err)
	}

	added, err = svc.AddPattern(ctx, "hello ", "hey", "bob")
	if err != nil || added {
		t.Fatalf("Expected duplicate to be ignored, got %v, %v", added, err)
	}

	if svc.Len() != 1 {
		t.Errorf("Expected 1 pattern, got %d", svc.Len())
	}
}
