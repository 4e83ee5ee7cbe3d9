package mylog

import (
	"context"
	"log/slog"
	"os"

	"dischat/app/config"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// TelegramKey marks a record that must be forwarded to Telegram regardless of its level.
const TelegramKey = "telegram"

func Preinit() {
	slog.SetDefault(slog.New(consoleHandler(slog.LevelDebug)))
}

func Init(cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Log.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			return err
		}
	}

	router := slogmulti.Router().Add(consoleHandler(level))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			forwardToTelegram,
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

func consoleHandler(level slog.Level) slog.Handler {
	return console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
}

// forwardToTelegram lets errors and explicitly flagged records through.
func forwardToTelegram(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	flagged := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == TelegramKey {
			flagged = true
			return false
		}

		return true
	})

	return flagged
}
