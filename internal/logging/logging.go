// Package logging provides structured logging setup for estate-bot.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// Options configures Setup.
type Options struct {
	// Dev uses human-readable console output at debug level; otherwise
	// JSON at info level.
	Dev bool
	// Writer defaults to stderr.
	Writer io.Writer

	// TelegramToken and TelegramChatID enable error alerts.
	TelegramToken  string
	TelegramChatID string
}

// Setup builds the logger, installs it as the slog default and returns it.
func Setup(opts Options) *slog.Logger {
	logger := slog.New(NewHandler(opts))
	slog.SetDefault(logger)
	return logger
}

// NewHandler returns the handler Setup would install.
func NewHandler(opts Options) slog.Handler {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var base slog.Handler
	if opts.Dev {
		base = console.NewHandler(w, &console.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	} else {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	if opts.TelegramToken == "" || opts.TelegramChatID == "" {
		return base
	}

	return slogmulti.Router().
		Add(base).
		Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     opts.TelegramToken,
				Username:  opts.TelegramChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			isAlert,
		).
		Handler()
}

// isAlert selects records forwarded to Telegram: errors, and anything
// logged with a "telegram" attribute.
func isAlert(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	tagged := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "telegram" {
			tagged = true
			return false
		}
		return true
	})
	return tagged
}
