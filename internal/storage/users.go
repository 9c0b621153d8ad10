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

// GetOrCreateUser returns the user with the given Telegram id, creating the
// record on first contact. The whole operation is a single atomic unit: either
// the row exists afterwards or the error is returned with nothing written.
func (s *Store) GetOrCreateUser(ctx context.Context, telegramID int64, username, fullName string) (User, error) {
	var u User
	query := s.db.Rebind(`SELECT id, telegram_id, username, full_name, created_at FROM users WHERE telegram_id = ?`)
	err := s.db.GetContext(ctx, &u, query, telegramID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("select user: %w", err)
	}

	now := time.Now().UTC()
	id, err := s.insertReturningID(ctx,
		`INSERT INTO users (telegram_id, username, full_name, created_at) VALUES (?, ?, ?, ?)`,
		telegramID, username, fullName, now,
	)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	logger.Info(ctx, "db.users", "user.created",
		slog.Int64("user_id", telegramID),
	)
	return User{ID: id, TelegramID: telegramID, Username: username, FullName: fullName, CreatedAt: now}, nil
}

// ListTelegramIDs returns the Telegram ids of every known user, oldest first.
func (s *Store) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `SELECT telegram_id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

// CollectStats gathers the aggregate counters for the admin panel.
func (s *Store) CollectStats(ctx context.Context) (Stats, error) {
	var st Stats
	dayAgo := time.Now().UTC().Add(-24 * time.Hour)

	if err := s.db.GetContext(ctx, &st.TotalUsers, `SELECT COUNT(*) FROM users`); err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	q := s.db.Rebind(`SELECT COUNT(*) FROM users WHERE created_at >= ?`)
	if err := s.db.GetContext(ctx, &st.NewUsers24h, q, dayAgo); err != nil {
		return Stats{}, fmt.Errorf("count new users: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.TotalAds, `SELECT COUNT(*) FROM ads`); err != nil {
		return Stats{}, fmt.Errorf("count ads: %w", err)
	}
	q = s.db.Rebind(`SELECT COUNT(*) FROM ads WHERE status = ?`)
	if err := s.db.GetContext(ctx, &st.PendingAds, q, StatusPending); err != nil {
		return Stats{}, fmt.Errorf("count pending ads: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.ApprovedAds, q, StatusApproved); err != nil {
		return Stats{}, fmt.Errorf("count approved ads: %w", err)
	}
	if err := s.db.GetContext(ctx, &st.RejectedAds, q, StatusRejected); err != nil {
		return Stats{}, fmt.Errorf("count rejected ads: %w", err)
	}
	return st, nil
}

func (s *Store) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.driver == DriverPostgres {
		var id int64
		q := s.db.Rebind(query + ` RETURNING id`)
		if err := s.db.QueryRowxContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
