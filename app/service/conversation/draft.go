package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dischat/app/chat"
	"dischat/app/service/memory"
	"dischat/app/util/random"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/lo"
)

// draft produces raw reply text. Generation is tried first when the budget allows; any failure
// falls through to the pattern store and then to a canned line.
func (s *Service) draft(ctx context.Context, msg chat.Message, mood memory.Mood) (string, source) {
	generation := s.budgetSvc.Generation

	if generation.CanProceed() {
		text, err := s.generate(ctx, msg, mood)
		switch {
		case err == nil:
			return text, sourceGenerated
		case errors.Is(err, chat.ErrMalformedResponse):
			slog.Warn("Generated text is empty after cleanup",
				"message_id", msg.ID,
				"error", err)
			return s.cannedLine(mood), sourceCanned
		case chat.IsRateLimited(err):
			generation.MarkRateLimited()
			slog.Warn("Generation rate limited, using fallbacks",
				"message_id", msg.ID,
				"sticky", generation.RateLimited(),
				"error", err)
		default:
			slog.Warn("Generation failed, using fallbacks",
				"message_id", msg.ID,
				"author", msg.Author.ID,
				"error", err)
		}
	} else {
		slog.Debug("Generation budget unavailable",
			"available_in", generation.TimeUntilAvailable())
	}

	if text, ok := s.patternSvc.FindResponse(msg.Content); ok {
		return text, sourcePattern
	}

	return s.cannedLine(mood), sourceCanned
}

// generate calls the generator, retrying overloaded answers with a fixed delay.
func (s *Service) generate(ctx context.Context, msg chat.Message, mood memory.Mood) (string, error) {
	prompt, err := s.prompt.Format(map[string]any{
		"persona": s.cfg.Generation.Persona,
		"context": s.memorySvc.Context(),
		"mood":    string(mood),
		"author":  msg.Author.DisplayName,
		"message": msg.Content,
	})
	if err != nil {
		return "", fmt.Errorf("failed to format prompt: %w", err)
	}

	gen := s.cfg.Generation
	opts := chat.GenerateOptions{
		Temperature: gen.Temperature,
		MaxTokens:   gen.MaxTokens,
		TopP:        gen.TopP,
		TopK:        gen.TopK,
	}

	for attempt := 0; ; attempt++ {
		text, err := s.callGenerator(ctx, prompt, opts)
		if err == nil {
			s.budgetSvc.Generation.RecordCall()

			s.mu.Lock()
			s.stats.GenerationCalls++
			s.mu.Unlock()

			if _, ok := s.humanizer.Clean(text); !ok {
				return "", fmt.Errorf("%w: %q", chat.ErrMalformedResponse, text)
			}

			return text, nil
		}

		if !chat.IsOverloaded(err) || attempt >= lo.FromPtr(gen.OverloadRetries) {
			return "", err
		}

		slog.Warn("Generation overloaded, retrying",
			"attempt", attempt+1,
			"delay", gen.OverloadDelay)

		if err = s.clock.Sleep(ctx, gen.OverloadDelay); err != nil {
			return "", err
		}
	}
}

func (s *Service) callGenerator(ctx context.Context, prompt string, opts chat.GenerateOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Generation.Timeout)
	defer cancel()

	return s.generator.Generate(ctx, prompt, opts)
}

// cannedLine picks a mood line that was not used in the current rotation window.
func (s *Service) cannedLine(mood memory.Mood) string {
	lines, ok := cannedLines[mood]
	if !ok {
		lines = cannedLines[memory.MoodCasual]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if now.Sub(s.usedSince) > s.cfg.Responder.RotationWindow {
		clear(s.used)
		s.usedSince = now
	}

	available := pie.Filter(lines, func(line string) bool {
		_, used := s.used[line]
		return !used
	})
	if len(available) == 0 {
		for _, line := range lines {
			delete(s.used, line)
		}
		available = lines
	}

	line := random.Pick(s.rnd, available)
	s.used[line] = struct{}{}

	return line
}
