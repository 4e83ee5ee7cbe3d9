package queue

import (
	"log/slog"
	"sync"
	"time"

	"dischat/app/config"
	"dischat/app/service/selector"

	"github.com/samber/do"
)

// Entry is a directed message that was not answered on the tick it arrived.
type Entry struct {
	selector.Selection
	EnqueuedAt time.Time
}

// postedAt falls back to the enqueue time when the platform gave no timestamp.
func (e Entry) postedAt() time.Time {
	if e.Message.Timestamp.IsZero() {
		return e.EnqueuedAt
	}

	return e.Message.Timestamp
}

// Service holds pending directed messages until they are answered or go stale.
type Service struct {
	ttl  time.Duration
	size int

	mu      sync.Mutex
	entries []Entry
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Responder.QueueTTL, cfg.Responder.QueueSize), nil
}

func NewService(ttl time.Duration, size int) *Service {
	return &Service{
		ttl:  ttl,
		size: size,
	}
}

// Expired reports whether the entry's message is older than the queue TTL.
func (s *Service) Expired(entry Entry, now time.Time) bool {
	return now.Sub(entry.postedAt()) > s.ttl
}

// Push adds an entry unless its message is already queued or already stale. A full queue drops
// its oldest entry.
func (s *Service) Push(entry Entry) {
	if s.Expired(entry, entry.EnqueuedAt) {
		slog.Debug("Not queueing stale message",
			"message_id", entry.Message.ID,
			"age", entry.EnqueuedAt.Sub(entry.postedAt()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.Message.ID == entry.Message.ID {
			return
		}
	}

	if len(s.entries) >= s.size {
		slog.Warn("Response queue is full, dropping oldest entry",
			"message_id", s.entries[0].Message.ID)
		s.entries = s.entries[1:]
	}

	s.entries = append(s.entries, entry)
}

// Pop discards expired entries and returns the oldest live one.
func (s *Service) Pop(now time.Time) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(now)

	if len(s.entries) == 0 {
		return Entry{}, false
	}

	entry := s.entries[0]
	s.entries = s.entries[1:]

	return entry, true
}

// Remove drops a queued message, e.g. once it was answered some other way.
func (s *Service) Remove(messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.entries {
		if e.Message.ID == messageID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

func (s *Service) expireLocked(now time.Time) {
	live := s.entries[:0]
	for _, e := range s.entries {
		if !s.Expired(e, now) {
			live = append(live, e)
		} else {
			slog.Debug("Dropping stale queued message",
				"message_id", e.Message.ID,
				"age", now.Sub(e.postedAt()))
		}
	}

	s.entries = live
}
