package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"adbot/internal/logger"
)

// ErrAdNotFound is returned when an ad id does not exist.
var ErrAdNotFound = errors.New("ad not found")

// NewAd is the payload for staging an advertisement.
type NewAd struct {
	UserID    int64
	Channel   string
	Text      string
	Price     int
	Currency  string
	Duration  string
	MediaType string
	MediaID   string
}

const adColumns = `id, user_id, channel, text, price, currency, duration, media_type, media_id, status, created_at, approved_at`

// CreateAd stages a new ad with status pending.
func (s *Store) CreateAd(ctx context.Context, in NewAd) (Ad, error) {
	now := time.Now().UTC()
	mediaType := sql.NullString{String: in.MediaType, Valid: in.MediaType != ""}
	mediaID := sql.NullString{String: in.MediaID, Valid: in.MediaID != ""}

	id, err := s.insertReturningID(ctx,
		`INSERT INTO ads (user_id, channel, text, price, currency, duration, media_type, media_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Channel, in.Text, in.Price, in.Currency, in.Duration, mediaType, mediaID, StatusPending, now,
	)
	if err != nil {
		return Ad{}, fmt.Errorf("insert ad: %w", err)
	}

	logger.Info(ctx, "db.ads", "ad.created",
		slog.Int64("ad_id", id),
		slog.Int64("user_id", in.UserID),
		slog.String("channel", in.Channel),
	)
	return Ad{
		ID:        id,
		UserID:    in.UserID,
		Channel:   in.Channel,
		Text:      in.Text,
		Price:     in.Price,
		Currency:  in.Currency,
		Duration:  in.Duration,
		MediaType: mediaType,
		MediaID:   mediaID,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

// GetAd fetches a single ad by id.
func (s *Store) GetAd(ctx context.Context, id int64) (Ad, error) {
	var ad Ad
	q := s.db.Rebind(`SELECT ` + adColumns + ` FROM ads WHERE id = ?`)
	err := s.db.GetContext(ctx, &ad, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Ad{}, ErrAdNotFound
	}
	if err != nil {
		return Ad{}, fmt.Errorf("select ad: %w", err)
	}
	return ad, nil
}

// ListAdsByStatus returns ads with the given status, newest first.
func (s *Store) ListAdsByStatus(ctx context.Context, status string, limit int) ([]Ad, error) {
	var ads []Ad
	q := s.db.Rebind(`SELECT ` + adColumns + ` FROM ads WHERE status = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &ads, q, status, limit); err != nil {
		return nil, fmt.Errorf("list ads: %w", err)
	}
	return ads, nil
}

// ListAdsByUser returns a user's own ads, newest first.
func (s *Store) ListAdsByUser(ctx context.Context, userID int64, limit int) ([]Ad, error) {
	var ads []Ad
	q := s.db.Rebind(`SELECT ` + adColumns + ` FROM ads WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &ads, q, userID, limit); err != nil {
		return nil, fmt.Errorf("list user ads: %w", err)
	}
	return ads, nil
}

// UpdateAdStatus sets the moderation status. approvedAt is only stamped when
// non-nil. Returns ErrAdNotFound when no row matched.
func (s *Store) UpdateAdStatus(ctx context.Context, id int64, status string, approvedAt *time.Time) error {
	var (
		res sql.Result
		err error
	)
	if approvedAt != nil {
		q := s.db.Rebind(`UPDATE ads SET status = ?, approved_at = ? WHERE id = ?`)
		res, err = s.db.ExecContext(ctx, q, status, approvedAt.UTC(), id)
	} else {
		q := s.db.Rebind(`UPDATE ads SET status = ? WHERE id = ?`)
		res, err = s.db.ExecContext(ctx, q, status, id)
	}
	if err != nil {
		return fmt.Errorf("update ad status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update ad status: %w", err)
	}
	if affected == 0 {
		return ErrAdNotFound
	}

	logger.Info(ctx, "db.ads", "ad.status",
		slog.Int64("ad_id", id),
		slog.String("payload", status),
	)
	return nil
}
