package middleware

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/logger"
	"adbot/internal/telegram/helpers"
)

// AdminGateOptions configures the admin-only gate.
type AdminGateOptions struct {
	// IsAdmin reports whether the user id is on the allow list.
	IsAdmin func(int64) bool
	// OnReject runs for non-admins so the denial is visible, not silent.
	OnReject tele.HandlerFunc
}

// AdminGate wraps a handler so only allow-listed users reach it.
func AdminGate(opts AdminGateOptions, handler tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user := c.Sender()
		if user == nil || opts.IsAdmin == nil || !opts.IsAdmin(user.ID) {
			ctx := helpers.Context(c)
			userID := int64(0)
			if user != nil {
				userID = user.ID
			}
			logger.Warn(ctx, "tg", "tg.access_denied",
				slog.Int64("user_id", userID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
		return handler(c)
	}
}
