package pattern

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"dischat/app/config"
	"dischat/app/util/clock"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service is the trigger to response fallback store. Lookups run against the in-memory copy;
// every addition rewrites the backend.
type Service struct {
	backend Backend
	clock   clock.Clock

	mu       sync.RWMutex
	patterns []Pattern
	index    map[key]struct{}
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	backend, err := OpenBackend(cfg.Patterns.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pattern store: %w", err)
	}

	s := NewService(backend, do.MustInvoke[clock.Clock](di))
	if err = s.Load(context.Background()); err != nil {
		_ = backend.Close()
		return nil, err
	}

	slog.Info("Loaded patterns",
		"path", cfg.Patterns.Path,
		"count", s.Len())

	return s, nil
}

func NewService(backend Backend, clk clock.Clock) *Service {
	return &Service{
		backend: backend,
		clock:   clk,
		index:   make(map[key]struct{}),
	}
}

// Load replaces the in-memory set with the backend contents, dropping duplicate pairs.
func (s *Service) Load(ctx context.Context) error {
	loaded, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load patterns: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.patterns = s.patterns[:0]
	s.index = make(map[key]struct{}, len(loaded))

	for _, p := range loaded {
		if _, ok := s.index[p.key()]; ok {
			continue
		}
		s.index[p.key()] = struct{}{}
		s.patterns = append(s.patterns, p)
	}

	return nil
}

// FindResponse tries an exact trigger match first, then the first trigger that contains the
// text or is contained in it, in storage order.
func (s *Service) FindResponse(text string) (string, bool) {
	needle := Normalize(text)
	if needle == "" {
		return "", false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.patterns {
		if Normalize(p.Trigger) == needle {
			return p.Response, true
		}
	}

	for _, p := range s.patterns {
		trigger := Normalize(p.Trigger)
		if trigger == "" {
			continue
		}
		if strings.Contains(trigger, needle) || strings.Contains(needle, trigger) {
			return p.Response, true
		}
	}

	return "", false
}

// AddPattern appends a new pair and persists the whole set. It reports false for duplicates
// and blank input.
func (s *Service) AddPattern(ctx context.Context, trigger, response, author string) (bool, error) {
	p := Pattern{
		Trigger:   Normalize(trigger),
		Response:  strings.TrimSpace(response),
		Author:    author,
		CreatedAt: s.clock.Now().UTC(),
	}
	if p.Trigger == "" || p.Response == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[p.key()]; ok {
		return false, nil
	}

	s.index[p.key()] = struct{}{}
	s.patterns = append(s.patterns, p)

	if err := s.backend.Save(ctx, s.patterns); err != nil {
		return true, fmt.Errorf("failed to save patterns: %w", err)
	}

	return true, nil
}

func (s *Service) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.backend.Save(ctx, s.patterns); err != nil {
		return fmt.Errorf("failed to save patterns: %w", err)
	}

	return nil
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.patterns)
}

func (s *Service) All() []Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Pattern, len(s.patterns))
	copy(result, s.patterns)

	return result
}

func (s *Service) Shutdown() error {
	return s.backend.Close()
}

func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
