package selector

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"dischat/app/chat"
	"dischat/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

const sentHistorySize = 200

type Reason string

const (
	ReasonMention Reason = "mention"
	ReasonReply   Reason = "reply"
	ReasonAmbient Reason = "ambient"
	ReasonQueued  Reason = "queued"
)

type Selection struct {
	Message   chat.Message
	ShouldTag bool
	Reason    Reason
}

type Result struct {
	// Selection is nil when nothing in the batch deserves an answer.
	Selection *Selection
	// Disqualified messages matched an acknowledgment pattern. They still count as handled.
	Disqualified []chat.Message
	// Pending holds directed messages that lost to the selection.
	Pending []Selection
}

// Service decides which message of a fetched batch gets an answer.
type Service struct {
	acks []*regexp.Regexp

	mu   sync.Mutex
	sent []string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Responder.AckPatterns)
}

func NewService(ackPatterns []string) (*Service, error) {
	s := &Service{}

	for _, pattern := range ackPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ack pattern %q: %w", pattern, err)
		}
		s.acks = append(s.acks, re)
	}

	return s, nil
}

func (s *Service) Select(batch []chat.Message, botUserID, lastHandledID string) Result {
	var (
		result     Result
		candidates []chat.Message
	)

	sorted := sortedByID(batch)

	// bot-authored messages in the batch count as sent, whichever process posted them
	for _, msg := range sorted {
		if botUserID != "" && msg.Author.ID == botUserID {
			s.RememberSent(msg.ID)
		}
	}

	for _, msg := range sorted {
		if !chat.NewerThan(msg.ID, lastHandledID) {
			continue
		}
		if msg.Author.Bot || msg.Author.ID == botUserID {
			continue
		}
		if s.IsAcknowledgment(msg.Content) {
			result.Disqualified = append(result.Disqualified, msg)
			continue
		}

		candidates = append(candidates, msg)
	}

	var directed []Selection
	for _, msg := range candidates {
		switch {
		case msg.MentionsUser(botUserID):
			directed = append(directed, Selection{Message: msg, ShouldTag: true, Reason: ReasonMention})
		case s.isReplyToBot(msg, botUserID):
			directed = append(directed, Selection{Message: msg, ShouldTag: true, Reason: ReasonReply})
		}
	}

	chosen := -1
	for _, reason := range []Reason{ReasonMention, ReasonReply} {
		chosen = pie.FindFirstUsing(directed, func(sel Selection) bool {
			return sel.Reason == reason
		})
		if chosen >= 0 {
			break
		}
	}

	switch {
	case chosen >= 0:
		sel := directed[chosen]
		result.Selection = &sel
		result.Pending = append(directed[:chosen:chosen], directed[chosen+1:]...)
	case len(candidates) > 0:
		result.Selection = &Selection{
			Message: candidates[len(candidates)-1],
			Reason:  ReasonAmbient,
		}
	}

	return result
}

func (s *Service) IsAcknowledgment(content string) bool {
	content = strings.TrimSpace(content)

	return pie.Any(s.acks, func(re *regexp.Regexp) bool {
		return re.MatchString(content)
	})
}

// RememberSent records an id of a message the bot posted, so replies to it are recognized.
func (s *Service) RememberSent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pie.Contains(s.sent, id) {
		return
	}

	s.sent = append(s.sent, id)
	if len(s.sent) > sentHistorySize {
		s.sent = s.sent[len(s.sent)-sentHistorySize:]
	}
}

func (s *Service) isReplyToBot(msg chat.Message, botUserID string) bool {
	if msg.ParentID == "" {
		return false
	}
	if botUserID != "" && msg.ParentAuthorID == botUserID {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return pie.Contains(s.sent, msg.ParentID)
}

// NewestID returns the newest message id in the batch, or "" for an empty batch.
func NewestID(batch []chat.Message) string {
	var newest string
	for _, msg := range batch {
		if chat.NewerThan(msg.ID, newest) {
			newest = msg.ID
		}
	}

	return newest
}

func sortedByID(batch []chat.Message) []chat.Message {
	return pie.SortUsing(batch, func(a, b chat.Message) bool {
		return chat.CompareIDs(a.ID, b.ID) < 0
	})
}
