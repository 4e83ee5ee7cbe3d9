package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dischat/app/bootstrap"
	"dischat/app/service/conversation"
	"dischat/app/service/engine"
	"dischat/app/service/humanize"
	"dischat/app/service/memory"
	"dischat/app/service/queue"
	"dischat/app/service/status"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	di, cfg := bootstrap.Init(appCtx)
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	bootstrap.ProvideGenerator(di, cfg)

	do.Provide(di, memory.New)
	do.Provide(di, queue.New)
	do.Provide(di, humanize.New)
	do.Provide(di, conversation.New)
	do.Provide(di, engine.New)
	do.Provide(di, status.New)

	engineSvc := do.MustInvoke[*engine.Service](di)
	statusSvc := do.MustInvoke[*status.Service](di)

	slog.Info("Service started",
		"channel_id", cfg.Discord.ChannelID,
		"provider", cfg.Generation.Provider,
		"dry_run", cfg.Responder.DryRun)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		engineSvc.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		return statusSvc.Run(groupCtx)
	})

	if err := group.Wait(); err != nil {
		slog.Error("Service failed", "error", err)
	}
}
