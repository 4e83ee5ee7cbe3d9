package queue

import (
	"testing"
	"time"

	"dischat/app/chat"
	"dischat/app/service/selector"
)

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(id string, at time.Time) Entry {
	return Entry{
		Selection: selector.Selection{
			Message:   chat.Message{ID: id},
			ShouldTag: true,
			Reason:    selector.ReasonMention,
		},
		EnqueuedAt: at,
	}
}

func TestService_PopExpires(t *testing.T) {
	svc := NewService(5*time.Minute, 10)

	svc.Push(entry("1", start))
	svc.Push(entry("2", start.Add(3*time.Minute)))

	got, ok := svc.Pop(start.Add(6 * time.Minute))
	if !ok || got.Message.ID != "2" {
		t.Fatalf("Expected live entry 2, got %+v, %v", got, ok)
	}

	if _, ok = svc.Pop(start.Add(6 * time.Minute)); ok {
		t.Error("Expected queue to be empty")
	}
}

func TestService_AgeFromMessageTimestamp(t *testing.T) {
	svc := NewService(5*time.Minute, 10)

	old := entry("1", start)
	old.Message.Timestamp = start.Add(-48 * time.Hour)
	recent := entry("2", start)
	recent.Message.Timestamp = start.Add(-4 * time.Minute)

	if !svc.Expired(old, start) {
		t.Error("Expected a two day old message to be expired")
	}

	svc.Push(old)
	svc.Push(recent)
	if svc.Len() != 1 {
		t.Fatalf("Expected the stale message not to be queued, got %d entries", svc.Len())
	}

	if _, ok := svc.Pop(start.Add(2 * time.Minute)); ok {
		t.Error("Expected entry to expire 5m after it was posted, not after it was queued")
	}
}

func TestService_PushDeduplicatesAndBounds(t *testing.T) {
	svc := NewService(time.Hour, 2)

	svc.Push(entry("1", start))
	svc.Push(entry("1", start))
	if svc.Len() != 1 {
		t.Fatalf("Expected duplicate to be ignored, got %d entries", svc.Len())
	}

	svc.Push(entry("2", start))
	svc.Push(entry("3", start))

	got, _ := svc.Pop(start)
	if got.Message.ID != "2" {
		t.Errorf("Expected oldest entry dropped, got %q first", got.Message.ID)
	}
}

func TestService_Remove(t *testing.T) {
	svc := NewService(time.Hour, 10)

	svc.Push(entry("1", start))
	svc.Push(entry("2", start))
	svc.Remove("1")

	got, ok := svc.Pop(start)
	if !ok || got.Message.ID != "2" {
		t.Errorf("Expected 2 after removing 1, got %+v", got)
	}
}
