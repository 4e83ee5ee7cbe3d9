package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"dischat/app/chat"
	"dischat/app/config"
	"dischat/app/service/budget"
	"dischat/app/service/humanize"
	"dischat/app/service/memory"
	"dischat/app/service/pattern"
	"dischat/app/service/queue"
	"dischat/app/service/selector"
	"dischat/app/util/clock"
	"dischat/app/util/random"

	_ "embed"

	"github.com/samber/do"
	"github.com/samber/lo"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/prompts"
)

//go:embed reply_prompt_template.txt
var replyPromptTemplate string

type source string

const (
	sourceGenerated source = "generated"
	sourcePattern   source = "pattern"
	sourceCanned    source = "canned"
)

// Deps are the collaborators of the orchestrator.
type Deps struct {
	Config    *config.Config
	Platform  Platform
	Generator Generator
	Memory    *memory.Service
	Patterns  *pattern.Service
	Selector  *selector.Service
	Queue     *queue.Service
	Humanizer *humanize.Service
	Budget    *budget.Service
	Clock     clock.Clock
	Random    random.Source
}

// Service runs the respond cycle. Tick is the only entry point that mutates state; it must not
// be called concurrently with itself.
type Service struct {
	cfg         *config.Config
	platform    Platform
	generator   Generator
	memorySvc   *memory.Service
	patternSvc  *pattern.Service
	selectorSvc *selector.Service
	queueSvc    *queue.Service
	humanizer   *humanize.Service
	budgetSvc   *budget.Service
	clock       clock.Clock
	rnd         random.Source
	prompt      prompts.PromptTemplate

	mu            sync.RWMutex
	bot           chat.User
	lastHandledID string
	lastResponse  time.Time
	used          map[string]struct{}
	usedSince     time.Time
	stats         Stats
}

func New(di *do.Injector) (*Service, error) {
	return NewService(Deps{
		Config:    do.MustInvoke[*config.Config](di),
		Platform:  do.MustInvoke[Platform](di),
		Generator: do.MustInvoke[Generator](di),
		Memory:    do.MustInvoke[*memory.Service](di),
		Patterns:  do.MustInvoke[*pattern.Service](di),
		Selector:  do.MustInvoke[*selector.Service](di),
		Queue:     do.MustInvoke[*queue.Service](di),
		Humanizer: do.MustInvoke[*humanize.Service](di),
		Budget:    do.MustInvoke[*budget.Service](di),
		Clock:     do.MustInvoke[clock.Clock](di),
		Random:    do.MustInvoke[random.Source](di),
	}), nil
}

func NewService(deps Deps) *Service {
	return &Service{
		cfg:         deps.Config,
		platform:    deps.Platform,
		generator:   deps.Generator,
		memorySvc:   deps.Memory,
		patternSvc:  deps.Patterns,
		selectorSvc: deps.Selector,
		queueSvc:    deps.Queue,
		humanizer:   deps.Humanizer,
		budgetSvc:   deps.Budget,
		clock:       deps.Clock,
		rnd:         deps.Random,
		prompt: prompts.NewPromptTemplate(replyPromptTemplate,
			[]string{"persona", "context", "mood", "author", "message"}),
		used:      make(map[string]struct{}),
		usedSince: deps.Clock.Now(),
	}
}

// Tick runs one respond cycle: cooldown, fetch, select, draft, humanize, type, dispatch.
func (s *Service) Tick(ctx context.Context) error {
	now := s.clock.Now()

	s.mu.Lock()
	s.stats.Ticks++
	lastResponse := s.lastResponse
	s.mu.Unlock()

	if !lastResponse.IsZero() && now.Sub(lastResponse) < s.cfg.Responder.MinSpacing {
		slog.Debug("Cooling down",
			"remaining", s.cfg.Responder.MinSpacing-now.Sub(lastResponse))
		return nil
	}

	polling := s.budgetSvc.Polling
	if !polling.CanProceed() {
		slog.Warn("Polling budget exhausted",
			"available_in", polling.TimeUntilAvailable())
		return nil
	}

	bot, err := s.identity(ctx)
	if err != nil {
		return oops.In("identity").Wrapf(err, "failed to resolve bot identity")
	}

	batch, err := s.platform.FetchRecent(ctx, s.cfg.Discord.ChannelID, s.cfg.Discord.FetchLimit, "")
	polling.RecordCall()
	if err != nil {
		return oops.
			In("fetch").
			With("channel_id", s.cfg.Discord.ChannelID).
			Wrapf(err, "failed to fetch messages")
	}

	result := s.selectorSvc.Select(batch, bot.ID, s.LastHandledID())
	newestID := selector.NewestID(batch)
	defer s.advance(newestID)

	for _, msg := range result.Disqualified {
		slog.Debug("Ignoring acknowledgment",
			"message_id", msg.ID,
			"author", msg.Author.ID,
			"content", msg.Content)
	}

	for _, pending := range result.Pending {
		s.queueSvc.Push(queue.Entry{Selection: pending, EnqueuedAt: now})
	}

	target, ok := s.pickTarget(result, now)
	if !ok {
		return nil
	}

	if err = s.respond(ctx, target); err != nil {
		s.mu.Lock()
		s.stats.Failures++
		s.mu.Unlock()

		if target.ShouldTag {
			s.queueSvc.Push(target)
		}

		return err
	}

	return nil
}

// pickTarget prefers a fresh directed message, then a queued one, then an ambient pick that
// passes the response chance roll. Messages older than the queue TTL are never answered.
func (s *Service) pickTarget(result selector.Result, now time.Time) (queue.Entry, bool) {
	sel := result.Selection

	if sel != nil && s.queueSvc.Expired(queue.Entry{Selection: *sel, EnqueuedAt: now}, now) {
		slog.Debug("Ignoring stale message",
			"message_id", sel.Message.ID,
			"reason", sel.Reason,
			"posted_at", sel.Message.Timestamp)
		s.queueSvc.Remove(sel.Message.ID)
		sel = nil
	}

	if sel != nil && sel.Reason != selector.ReasonAmbient {
		s.queueSvc.Remove(sel.Message.ID)
		return queue.Entry{Selection: *sel, EnqueuedAt: now}, true
	}

	if entry, ok := s.queueSvc.Pop(now); ok {
		slog.Debug("Answering queued message",
			"message_id", entry.Message.ID,
			"reason", entry.Reason,
			"age", now.Sub(entry.EnqueuedAt))
		return entry, true
	}

	if sel == nil {
		return queue.Entry{}, false
	}

	if roll := s.rnd.Float64(); roll >= lo.FromPtr(s.cfg.Responder.ResponseChance) {
		slog.Debug("Skipping ambient message",
			"message_id", sel.Message.ID,
			"roll", roll)
		return queue.Entry{}, false
	}

	return queue.Entry{Selection: *sel, EnqueuedAt: now}, true
}

func (s *Service) respond(ctx context.Context, target queue.Entry) error {
	msg := target.Message
	errBuilder := oops.With("message_id", msg.ID, "author", msg.Author.ID, "reason", target.Reason)

	s.memorySvc.Record(msg)
	mood := s.memorySvc.Mood()

	draft, src := s.draft(ctx, msg, mood)

	text := s.humanizer.Humanize(draft, msg.Author.ID, target.ShouldTag)
	text = chat.Truncate(text, s.cfg.Discord.MaxMessageLength)

	if !s.cfg.Responder.DryRun {
		if err := s.platform.StartTyping(ctx, s.cfg.Discord.ChannelID); err != nil {
			slog.Debug("Failed to start typing", "error", err)
		}
	}

	delay := s.typingDelay(text)
	if err := s.clock.Sleep(ctx, delay); err != nil {
		return errBuilder.In("typing").Wrapf(err, "typing delay interrupted")
	}

	sent, err := s.dispatch(ctx, target, text)
	if err != nil {
		return errBuilder.In("dispatch").Wrapf(err, "failed to send reply")
	}

	s.memorySvc.Record(sent)
	if sent.ID != "" {
		s.selectorSvc.RememberSent(sent.ID)
	}

	s.mu.Lock()
	s.lastResponse = s.clock.Now()
	s.stats.Replies++
	switch src {
	case sourceGenerated:
		s.stats.Generated++
	case sourcePattern:
		s.stats.PatternFallbacks++
	case sourceCanned:
		s.stats.CannedFallbacks++
	}
	s.mu.Unlock()

	slog.Info("Replied to message",
		"message_id", msg.ID,
		"author", msg.Author.DisplayName,
		"trigger", msg.Content,
		"text", text,
		"source", src,
		"mood", mood,
		"reason", target.Reason,
		"typing_delay", delay,
		"telegram", true)

	return nil
}

func (s *Service) dispatch(ctx context.Context, target queue.Entry, text string) (chat.Message, error) {
	opts := chat.ReplyOptions{ParentMessageID: target.Message.ID}
	if target.ShouldTag {
		opts.MentionUserIDs = []string{target.Message.Author.ID}
	}

	if s.cfg.Responder.DryRun {
		slog.Info("Dry run, reply not sent", "message_id", target.Message.ID, "text", text)

		s.mu.RLock()
		bot := s.bot
		s.mu.RUnlock()

		return chat.Message{
			ChannelID: s.cfg.Discord.ChannelID,
			Author:    bot,
			Content:   text,
			ParentID:  target.Message.ID,
			Timestamp: s.clock.Now(),
		}, nil
	}

	sent, err := s.platform.SendReply(ctx, s.cfg.Discord.ChannelID, text, opts)
	if err != nil {
		return chat.Message{}, fmt.Errorf("platform.SendReply: %w", err)
	}

	return sent, nil
}

func (s *Service) typingDelay(text string) time.Duration {
	r := s.cfg.Responder

	return min(max(time.Duration(utf8.RuneCountInString(text))*r.TypingPerChar, r.TypingMin), r.TypingMax)
}

func (s *Service) identity(ctx context.Context) (chat.User, error) {
	s.mu.RLock()
	bot := s.bot
	s.mu.RUnlock()

	if bot.ID != "" {
		return bot, nil
	}

	bot, err := s.platform.Identity(ctx)
	if err != nil {
		return chat.User{}, err
	}

	s.mu.Lock()
	s.bot = bot
	s.mu.Unlock()

	slog.Info("Resolved bot identity",
		"id", bot.ID,
		"name", bot.DisplayName)

	return bot, nil
}

func (s *Service) advance(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat.NewerThan(id, s.lastHandledID) {
		s.lastHandledID = id
	}
}

func (s *Service) LastHandledID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastHandledID
}
