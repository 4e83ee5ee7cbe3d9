package status

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dischat/app/config"
	"dischat/app/service/budget"
	"dischat/app/service/conversation"
	"dischat/app/service/memory"
	"dischat/app/service/pattern"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

type Report struct {
	Responder conversation.Stats `json:"responder"`
	Budgets   []budget.Snapshot  `json:"budgets"`
	Mood      memory.Mood        `json:"mood"`
	Window    int                `json:"window"`
	Topics    int                `json:"topics"`
	Patterns  int                `json:"patterns"`
}

// Service exposes health and runtime stats over HTTP.
type Service struct {
	listen string
	app    *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	conversationSvc := do.MustInvoke[*conversation.Service](di)
	budgetSvc := do.MustInvoke[*budget.Service](di)
	memorySvc := do.MustInvoke[*memory.Service](di)
	patternSvc := do.MustInvoke[*pattern.Service](di)

	return NewService(cfg.HTTP.Listen, func() Report {
		return Report{
			Responder: conversationSvc.Stats(),
			Budgets:   budgetSvc.Snapshots(),
			Mood:      memorySvc.Mood(),
			Window:    memorySvc.Len(),
			Topics:    len(memorySvc.Topics()),
			Patterns:  patternSvc.Len(),
		}
	}), nil
}

func NewService(listen string, report func() Report) *Service {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "dischat",
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(report())
	})

	return &Service{
		listen: listen,
		app:    app,
	}
}

// Run serves until ctx is done. It returns immediately when no listen address is configured.
func (s *Service) Run(ctx context.Context) error {
	if s.listen == "" {
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Status server started", "listen", s.listen)
		errCh <- s.app.Listen(s.listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}
