// Package cleaner tracks the transient messages of a conversation so they can
// be swept away before the next prompt is shown. The chat keeps only the
// latest prompt on screen while the form is being filled in.
package cleaner

import (
	"context"
	"log/slog"
	"sync"

	"adbot/internal/logger"
)

// Origin tells whose message was recorded.
type Origin int

const (
	// OriginUser marks an inbound message from the user.
	OriginUser Origin = iota
	// OriginBot marks a prompt or notice sent by the bot.
	OriginBot
)

// Deleter removes a single message from a chat.
type Deleter interface {
	Delete(ctx context.Context, chatID int64, messageID int) error
}

type chatLog struct {
	user []int
	bot  []int
}

// Tracker records transient message ids per chat and deletes them on demand.
type Tracker struct {
	deleter Deleter

	mu    sync.Mutex
	chats map[int64]*chatLog
}

// New returns a tracker that deletes through d.
func New(d Deleter) *Tracker {
	return &Tracker{deleter: d, chats: make(map[int64]*chatLog)}
}

// Record remembers a message for later cleanup.
func (t *Tracker) Record(chatID int64, messageID int, origin Origin) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cl, ok := t.chats[chatID]
	if !ok {
		cl = &chatLog{}
		t.chats[chatID] = cl
	}
	if origin == OriginUser {
		cl.user = append(cl.user, messageID)
	} else {
		cl.bot = append(cl.bot, messageID)
	}
}

// Tracked reports how many messages are pending cleanup in the chat.
func (t *Tracker) Tracked(chatID int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cl, ok := t.chats[chatID]
	if !ok {
		return 0
	}
	return len(cl.user) + len(cl.bot)
}

// Clear deletes every tracked message in the chat, best effort. A message
// that is already gone or cannot be deleted is skipped; the failure is logged
// and never interrupts the sweep. Clearing an empty chat is a no-op, so the
// call is safe to repeat.
func (t *Tracker) Clear(ctx context.Context, chatID int64) {
	t.mu.Lock()
	cl, ok := t.chats[chatID]
	if !ok {
		t.mu.Unlock()
		return
	}
	ids := make([]int, 0, len(cl.user)+len(cl.bot))
	ids = append(ids, cl.user...)
	ids = append(ids, cl.bot...)
	delete(t.chats, chatID)
	t.mu.Unlock()

	for _, id := range ids {
		if err := t.deleter.Delete(ctx, chatID, id); err != nil {
			logger.Debug(ctx, "cleaner", "cleaner.delete_skipped",
				slog.Int64("chat_id", chatID),
				slog.Int("message_id", id),
				slog.Any("err", err),
			)
		}
	}
}
