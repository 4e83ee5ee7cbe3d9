package bootstrap

import (
	"context"

	"dischat/app/client/discord"
	"dischat/app/client/gemini"
	"dischat/app/client/openai"
	"dischat/app/config"
	"dischat/app/service/budget"
	"dischat/app/service/conversation"
	"dischat/app/service/pattern"
	"dischat/app/service/selector"
	"dischat/app/util/clock"
	"dischat/app/util/mylog"
	"dischat/app/util/random"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

// Init loads config, sets up logging and registers the services shared by every binary.
// It exits the process when config or logging cannot be set up.
func Init(appCtx context.Context, opts ...config.Option) (*do.Injector, *config.Config) {
	di := do.New()

	mylog.Preinit()

	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(opts...)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.ProvideValue[clock.Clock](di, clock.New())
	do.ProvideValue[random.Source](di, random.New())

	do.Provide(di, discord.NewClient)
	do.Provide(di, func(di *do.Injector) (conversation.Platform, error) {
		return do.Invoke[*discord.Client](di)
	})

	do.Provide(di, budget.New)
	do.Provide(di, pattern.New)
	do.Provide(di, selector.New)

	return di, cfg
}

// ProvideGenerator registers the generation backend picked by cfg.Generation.Provider.
func ProvideGenerator(di *do.Injector, cfg *config.Config) {
	switch cfg.Generation.Provider {
	case "openai":
		do.Provide(di, openai.NewClient)
		do.Provide(di, func(di *do.Injector) (conversation.Generator, error) {
			return do.Invoke[*openai.Client](di)
		})
	default:
		do.Provide(di, gemini.NewClient)
		do.Provide(di, func(di *do.Injector) (conversation.Generator, error) {
			return do.Invoke[*gemini.Client](di)
		})
	}
}
