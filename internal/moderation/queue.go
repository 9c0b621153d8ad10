// Package moderation decides the fate of submitted ads. Every ad starts
// pending; a moderator verdict moves it to approved or rejected and notifies
// the owner best effort.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"adbot/internal/logger"
	"adbot/internal/storage"
	"adbot/internal/telegram/messages"
)

const previewLimit = 200

// Store is the persistence surface the queue needs.
type Store interface {
	GetAd(ctx context.Context, id int64) (storage.Ad, error)
	ListAdsByStatus(ctx context.Context, status string, limit int) ([]storage.Ad, error)
	UpdateAdStatus(ctx context.Context, id int64, status string, approvedAt *time.Time) error
}

// Notifier delivers a verdict notice to the ad owner.
type Notifier interface {
	Notify(ctx context.Context, userID int64, text string) error
}

// Queue applies moderation verdicts.
type Queue struct {
	store    Store
	notifier Notifier
}

// New returns a queue over store that notifies owners through notifier.
func New(store Store, notifier Notifier) *Queue {
	return &Queue{store: store, notifier: notifier}
}

// Pending returns up to limit newest ads awaiting moderation.
func (q *Queue) Pending(ctx context.Context, limit int) ([]storage.Ad, error) {
	return q.store.ListAdsByStatus(ctx, storage.StatusPending, limit)
}

// Approve marks the ad approved, stamps the approval time and notifies the
// owner. Approving an already decided ad re-applies the verdict.
func (q *Queue) Approve(ctx context.Context, adID int64) (storage.Ad, error) {
	ad, err := q.store.GetAd(ctx, adID)
	if err != nil {
		return storage.Ad{}, err
	}

	now := time.Now().UTC()
	if err := q.store.UpdateAdStatus(ctx, adID, storage.StatusApproved, &now); err != nil {
		return storage.Ad{}, fmt.Errorf("approve ad %d: %w", adID, err)
	}
	ad.Status = storage.StatusApproved

	logger.Info(ctx, "moderation", "moderation.approved",
		slog.Int64("ad_id", adID),
		slog.Int64("user_id", ad.UserID),
	)
	q.notifyOwner(ctx, ad, messages.AdApproved(ad.ID, ad.Channel, ad.Duration, Preview(ad.Text)))
	return ad, nil
}

// Reject marks the ad rejected and notifies the owner.
func (q *Queue) Reject(ctx context.Context, adID int64) (storage.Ad, error) {
	ad, err := q.store.GetAd(ctx, adID)
	if err != nil {
		return storage.Ad{}, err
	}

	if err := q.store.UpdateAdStatus(ctx, adID, storage.StatusRejected, nil); err != nil {
		return storage.Ad{}, fmt.Errorf("reject ad %d: %w", adID, err)
	}
	ad.Status = storage.StatusRejected

	logger.Info(ctx, "moderation", "moderation.rejected",
		slog.Int64("ad_id", adID),
		slog.Int64("user_id", ad.UserID),
	)
	q.notifyOwner(ctx, ad, messages.AdRejected(ad.ID, Preview(ad.Text)))
	return ad, nil
}

// notifyOwner delivers the verdict to the ad owner. A delivery failure (user
// blocked the bot, chat gone) is logged and never fails the verdict.
func (q *Queue) notifyOwner(ctx context.Context, ad storage.Ad, text string) {
	if q.notifier == nil {
		return
	}
	if err := q.notifier.Notify(ctx, ad.UserID, text); err != nil {
		logger.Warn(ctx, "moderation", "moderation.notify_failed",
			slog.Int64("ad_id", ad.ID),
			slog.Int64("user_id", ad.UserID),
			slog.Any("err", err),
		)
	}
}

// Preview trims ad text to a short excerpt for notifications and lists.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLimit]) + "..."
}
