package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dischat/app/config"
	"dischat/app/service/conversation"

	"github.com/google/uuid"
	"github.com/samber/do"
	"golang.org/x/sync/semaphore"
)

// Ticker is the unit of work run on every timer fire.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Service fires the respond cycle on a fixed interval and never lets two cycles overlap.
type Service struct {
	ticker   Ticker
	interval time.Duration
	timeout  time.Duration

	sem *semaphore.Weighted
	wg  sync.WaitGroup
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[*conversation.Service](di),
		cfg.Responder.TickInterval,
		cfg.Responder.TickTimeout,
	), nil
}

func NewService(ticker Ticker, interval, timeout time.Duration) *Service {
	return &Service{
		ticker:   ticker,
		interval: interval,
		timeout:  timeout,
		sem:      semaphore.NewWeighted(1),
	}
}

// Run ticks immediately and then on every interval until ctx is done. It returns after the
// in-flight tick, if any, has finished.
func (s *Service) Run(ctx context.Context) {
	timer := time.NewTicker(s.interval)
	defer timer.Stop()
	defer s.wg.Wait()

	slog.Info("Scheduler started", "interval", s.interval)

	s.fire(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scheduler stopping")
			return
		case <-timer.C:
			s.fire(ctx)
		}
	}
}

func (s *Service) fire(ctx context.Context) {
	if !s.sem.TryAcquire(1) {
		slog.Warn("Previous tick still running, skipping")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)

		s.runTick(ctx)
	}()
}

func (s *Service) runTick(ctx context.Context) {
	tickID := uuid.NewString()
	logger := slog.With("tick_id", tickID)

	// a started tick runs to completion even when shutdown begins
	tickCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.ticker.Tick(tickCtx); err != nil {
		logger.Error("Tick failed",
			"error", err,
			"duration", time.Since(start))
		return
	}

	logger.Debug("Tick finished", "duration", time.Since(start))
}
