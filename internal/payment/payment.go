// Package payment abstracts the payment gateway. Only a stub exists today;
// the interface already carries everything a real provider integration needs,
// including the ability to fail.
package payment

import (
	"context"
	"log/slog"

	"adbot/internal/logger"
)

// Gateway charges a user for an ad placement.
type Gateway interface {
	Process(ctx context.Context, userID int64, channel, duration string, amount int) (bool, error)
}

// Stub always succeeds after logging the attempt.
type Stub struct{}

// NewStub returns the always-succeeding gateway.
func NewStub() *Stub {
	return &Stub{}
}

// Process logs the payment request and reports success.
func (s *Stub) Process(ctx context.Context, userID int64, channel, duration string, amount int) (bool, error) {
	logger.Info(ctx, "payment", "payment.process",
		slog.Int64("user_id", userID),
		slog.String("channel", channel),
		slog.String("payload", duration),
		slog.Int("count", amount),
	)
	return true, nil
}
