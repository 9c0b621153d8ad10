// Package middleware holds the update-processing chain: panic recovery,
// per-user rate limiting, admin gating and receipt logging.
package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/getsentry/sentry-go"
	tele "gopkg.in/telebot.v4"

	"adbot/internal/logger"
	"adbot/internal/telegram/helpers"
)

// Recover catches panics in handlers and prevents the bot from crashing.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				ctx := helpers.Context(c)
				logger.Error(ctx, "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
				sentry.CurrentHub().Recover(r)
			}
		}()
		return next(c)
	}
}
