package storage

import (
	"database/sql"
	"time"
)

// Ad moderation statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// User is a registered bot user. Created on first /start, never deleted.
type User struct {
	ID         int64     `db:"id"`
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	FullName   string    `db:"full_name"`
	CreatedAt  time.Time `db:"created_at"`
}

// Ad is a staged advertisement awaiting moderation. UserID holds the owner's
// Telegram id so moderation notifications can be addressed directly.
type Ad struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	Channel    string         `db:"channel"`
	Text       string         `db:"text"`
	Price      int            `db:"price"`
	Currency   string         `db:"currency"`
	Duration   string         `db:"duration"`
	MediaType  sql.NullString `db:"media_type"`
	MediaID    sql.NullString `db:"media_id"`
	Status     string         `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
	ApprovedAt sql.NullTime   `db:"approved_at"`
}

// HasMedia reports whether the ad carries an attached photo or video.
func (a Ad) HasMedia() bool {
	return a.MediaType.Valid && a.MediaID.Valid
}

// Stats is the aggregate counters screen shown to admins.
type Stats struct {
	TotalUsers   int64
	NewUsers24h  int64
	TotalAds     int64
	PendingAds   int64
	ApprovedAds  int64
	RejectedAds  int64
}
