package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dischat/app/bootstrap"
	"dischat/app/config"
	"dischat/app/service/collector"
	"dischat/app/service/pattern"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	di, cfg := bootstrap.Init(appCtx, config.WithoutGeneration())
	defer di.Shutdown()

	do.Provide(di, collector.New)

	svc := do.MustInvoke[*collector.Service](di)

	slog.Info("Collecting channel history",
		"channel_id", cfg.Discord.ChannelID,
		"batch_size", cfg.Collector.BatchSize,
		"max_pages", cfg.Collector.MaxPages)

	stats, err := svc.Run(appCtx)
	if err != nil {
		log.Errorf("history collection failed: %v", err)
	}

	slog.Info("History collection finished",
		"pages", stats.Pages,
		"messages", stats.Messages,
		"pairs", stats.Pairs,
		"added", stats.Added,
		"total", do.MustInvoke[*pattern.Service](di).Len())
}
