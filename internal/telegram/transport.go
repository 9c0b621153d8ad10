package telegram

import (
	"context"
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// BotTransport adapts *tele.Bot to the narrow send/delete surface the flow,
// cleaner and moderation services depend on.
type BotTransport struct {
	bot *tele.Bot
}

// NewBotTransport wraps bot.
func NewBotTransport(bot *tele.Bot) *BotTransport {
	return &BotTransport{bot: bot}
}

// Send delivers an HTML text message and returns its id.
func (t *BotTransport) Send(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	opts := []any{tele.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	msg, err := t.bot.Send(tele.ChatID(chatID), text, opts...)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// SendMedia delivers a stored photo or video by file id with a caption.
func (t *BotTransport) SendMedia(_ context.Context, chatID int64, mediaType, fileID, caption string, markup *tele.ReplyMarkup) (int, error) {
	var what any
	switch mediaType {
	case "video":
		what = &tele.Video{File: tele.File{FileID: fileID}, Caption: caption}
	default:
		what = &tele.Photo{File: tele.File{FileID: fileID}, Caption: caption}
	}
	opts := []any{tele.ModeHTML}
	if markup != nil {
		opts = append(opts, markup)
	}
	msg, err := t.bot.Send(tele.ChatID(chatID), what, opts...)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Delete removes a single message.
func (t *BotTransport) Delete(_ context.Context, chatID int64, messageID int) error {
	return t.bot.Delete(&tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	})
}

// Edit replaces the text of an already sent message.
func (t *BotTransport) Edit(_ context.Context, chatID int64, messageID int, text string) error {
	_, err := t.bot.Edit(&tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}, text, tele.ModeHTML)
	return err
}

// Notify sends a plain notice to a user chat. Satisfies moderation.Notifier.
func (t *BotTransport) Notify(ctx context.Context, userID int64, text string) error {
	_, err := t.Send(ctx, userID, text, nil)
	return err
}
