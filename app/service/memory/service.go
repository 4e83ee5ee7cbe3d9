package memory

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"dischat/app/chat"
	"dischat/app/config"

	"github.com/samber/do"
)

type Mood string

const (
	MoodCurious Mood = "curious"
	MoodExcited Mood = "excited"
	MoodPlayful Mood = "playful"
	MoodCasual  Mood = "casual"
)

const (
	moodDepth      = 3
	minTopicLength = 4
)

// Service is the rolling conversation memory. Topics grow for the lifetime of the process.
type Service struct {
	mu     sync.RWMutex
	window *Window
	topics map[string]struct{}
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Responder.WindowSize), nil
}

func NewService(size int) *Service {
	return &Service{
		window: NewWindow(size),
		topics: make(map[string]struct{}),
	}
}

func (s *Service) Record(msg chat.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.window.add(msg) {
		return
	}

	for _, token := range strings.FieldsFunc(strings.ToLower(msg.Content), isTokenSeparator) {
		if utf8.RuneCountInString(token) >= minTopicLength {
			s.topics[token] = struct{}{}
		}
	}
}

// Context renders the window as "author: content" lines, oldest first.
func (s *Service) Context() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.window.format()
}

func (s *Service) Mood() Mood {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := s.window.last(moodDepth)

	has := func(pred func(string) bool) bool {
		for _, msg := range recent {
			if pred(msg.Content) {
				return true
			}
		}
		return false
	}

	switch {
	case has(func(c string) bool { return strings.Contains(c, "?") }):
		return MoodCurious
	case has(func(c string) bool { return strings.Contains(c, "!") && chat.HasPictograph(c) }):
		return MoodExcited
	case has(chat.HasPictograph):
		return MoodPlayful
	default:
		return MoodCasual
	}
}

func (s *Service) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		result = append(result, topic)
	}
	sort.Strings(result)

	return result
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.window.messages)
}

func isTokenSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}
