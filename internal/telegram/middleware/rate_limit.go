package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/logger"
	"adbot/internal/telegram/helpers"
)

// RateLimitOptions configures the per-user sliding window limiter.
type RateLimitOptions struct {
	// MaxEvents is the number of updates allowed inside Window.
	MaxEvents int
	// Window is the sliding window size.
	Window time.Duration
	// OnLimited runs once when a user crosses the limit. The update itself
	// is dropped either way.
	OnLimited tele.HandlerFunc
	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

// rateLimiter tracks recent event timestamps per user.
type rateLimiter struct {
	opts RateLimitOptions

	mu     sync.Mutex
	events map[int64][]time.Time
	// notified marks users already told to slow down within the current
	// window, so the notice is not spammed on every dropped update.
	notified map[int64]bool
}

// RateLimit returns a middleware that drops updates from users who exceed
// MaxEvents within Window. Counting slides: an update is admitted as soon as
// the oldest of the last MaxEvents updates leaves the window.
func RateLimit(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rl := &rateLimiter{
		opts:     opts,
		events:   make(map[int64][]time.Time),
		notified: make(map[int64]bool),
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.MaxEvents <= 0 || opts.Window <= 0 {
				return next(c)
			}
			if !rl.allow(user.ID) {
				ctx := helpers.Context(c)
				logger.Warn(ctx, "tg", "tg.rate_limited",
					slog.Int64("user_id", user.ID),
				)
				if rl.shouldNotify(user.ID) && opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			return next(c)
		}
	}
}

// allow records the event and reports whether it fits the window.
func (rl *rateLimiter) allow(userID int64) bool {
	now := rl.opts.Now()
	cutoff := now.Add(-rl.opts.Window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.events[userID]
	kept := recent[:0]
	for _, ts := range recent {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= rl.opts.MaxEvents {
		rl.events[userID] = kept
		return false
	}

	rl.events[userID] = append(kept, now)
	rl.notified[userID] = false
	return true
}

// shouldNotify reports whether the user has not yet been warned in the
// current burst.
func (rl *rateLimiter) shouldNotify(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.notified[userID] {
		return false
	}
	rl.notified[userID] = true
	return true
}
