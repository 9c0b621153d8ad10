// Package broadcast fans one message out to every known user. Delivery is
// paced to stay under the Telegram flood limits and each recipient failure is
// isolated, so one blocked user never stops the run.
package broadcast

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/ratelimit"

	"adbot/internal/logger"
)

const defaultPerSecond = 10

// SendFunc delivers the broadcast payload to a single recipient.
type SendFunc func(ctx context.Context, userID int64) error

// ProgressFunc observes the running totals. Called after every delivery
// attempt and once more when the run finishes.
type ProgressFunc func(done, success, failed int)

// Result summarizes a finished broadcast.
type Result struct {
	Success  int
	Failed   int
	Duration time.Duration
}

// Sender runs broadcasts with rate limiting.
type Sender struct {
	limiter ratelimit.Limiter
}

// New returns a sender capped at perSecond deliveries per second.
func New(perSecond int) *Sender {
	if perSecond <= 0 {
		perSecond = defaultPerSecond
	}
	return &Sender{limiter: ratelimit.New(perSecond)}
}

// Run delivers to every recipient in order, pacing each attempt. The run
// stops early when ctx is cancelled; recipients not yet attempted are
// counted as failed. progress may be nil.
func (s *Sender) Run(ctx context.Context, recipients []int64, send SendFunc, progress ProgressFunc) Result {
	start := time.Now()
	var success, failed int

	for i, userID := range recipients {
		if err := ctx.Err(); err != nil {
			failed += len(recipients) - i
			logger.Warn(ctx, "broadcast", "broadcast.cancelled",
				slog.Int("count", i),
				slog.Any("err", err),
			)
			break
		}

		s.limiter.Take()
		if err := send(ctx, userID); err != nil {
			failed++
			logger.Warn(ctx, "broadcast", "broadcast.delivery_failed",
				slog.Int64("user_id", userID),
				slog.Any("err", err),
			)
		} else {
			success++
		}
		if progress != nil {
			progress(i+1, success, failed)
		}
	}

	res := Result{Success: success, Failed: failed, Duration: time.Since(start)}
	logger.Info(ctx, "broadcast", "broadcast.finished",
		slog.Int("count", success),
		slog.Int("failed", res.Failed),
		slog.Duration("duration", res.Duration),
	)
	if progress != nil {
		progress(len(recipients), success, failed)
	}
	return res
}
