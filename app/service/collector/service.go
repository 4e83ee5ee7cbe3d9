package collector

import (
	"context"
	"log/slog"
	"time"

	"dischat/app/config"
	"dischat/app/service/budget"
	"dischat/app/service/conversation"
	"dischat/app/service/pattern"
	"dischat/app/service/selector"
	"dischat/app/util/clock"

	"github.com/samber/do"
	"github.com/samber/oops"
)

type Stats struct {
	Pages    int
	Messages int
	Pairs    int
	Added    int
}

// Service walks the channel history backwards and learns trigger/response pairs from it.
type Service struct {
	platform    conversation.Platform
	patternSvc  *pattern.Service
	selectorSvc *selector.Service
	tracker     *budget.Tracker
	clock       clock.Clock

	channelID  string
	batchSize  int
	batchDelay time.Duration
	maxPages   int
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[conversation.Platform](di),
		do.MustInvoke[*pattern.Service](di),
		do.MustInvoke[*selector.Service](di),
		do.MustInvoke[*budget.Service](di).Polling,
		do.MustInvoke[clock.Clock](di),
		cfg.Discord.ChannelID,
		cfg.Collector,
	), nil
}

func NewService(
	platform conversation.Platform,
	patternSvc *pattern.Service,
	selectorSvc *selector.Service,
	tracker *budget.Tracker,
	clk clock.Clock,
	channelID string,
	cfg config.Collector,
) *Service {
	return &Service{
		platform:    platform,
		patternSvc:  patternSvc,
		selectorSvc: selectorSvc,
		tracker:     tracker,
		clock:       clk,
		channelID:   channelID,
		batchSize:   cfg.BatchSize,
		batchDelay:  cfg.BatchDelay,
		maxPages:    cfg.MaxPages,
	}
}

// Run pages through history until it ends, the polling budget runs out, maxPages is reached
// or ctx is done.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	var (
		stats    Stats
		beforeID string
	)

	for s.maxPages == 0 || stats.Pages < s.maxPages {
		if !s.tracker.CanProceed() {
			snap := s.tracker.Snapshot()
			if snap.RateLimited || snap.Used >= snap.Limit {
				slog.Warn("Polling budget exhausted, stopping history fetch",
					"used", snap.Used,
					"available_in", snap.Available)
				break
			}

			if err := s.clock.Sleep(ctx, snap.Available); err != nil {
				return stats, err
			}
			continue
		}

		batch, err := s.platform.FetchRecent(ctx, s.channelID, s.batchSize, beforeID)
		s.tracker.RecordCall()
		if err != nil {
			return stats, oops.
				In("collect").
				With("before_id", beforeID, "page", stats.Pages).
				Wrapf(err, "failed to fetch history")
		}

		if len(batch) == 0 {
			slog.Info("No more history to fetch")
			break
		}

		stats.Pages++
		stats.Messages += len(batch)

		pairs := Pairs(batch, s.selectorSvc.IsAcknowledgment)
		stats.Pairs += len(pairs)

		for _, p := range pairs {
			added, err := s.patternSvc.AddPattern(ctx, p.Trigger, p.Response, p.Author)
			if err != nil {
				return stats, oops.In("collect").Wrapf(err, "failed to store pattern")
			}
			if added {
				stats.Added++
			}
		}

		slog.Info("Fetched history page",
			"page", stats.Pages,
			"messages", stats.Messages,
			"patterns_added", stats.Added,
			"patterns_total", s.patternSvc.Len())

		if len(batch) < s.batchSize {
			break
		}

		beforeID = batch[0].ID

		if err = s.clock.Sleep(ctx, s.batchDelay); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
