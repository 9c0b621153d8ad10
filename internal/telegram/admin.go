package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/broadcast"
	"adbot/internal/logger"
	"adbot/internal/moderation"
	"adbot/internal/storage"
	"adbot/internal/telegram/cleaner"
	"adbot/internal/telegram/helpers"
	"adbot/internal/telegram/keyboard"
	"adbot/internal/telegram/messages"
	"adbot/internal/telegram/middleware"
	"adbot/internal/telegram/state"
)

const moderationPageSize = 5

// adminGate wraps a handler so only allow-listed users reach it. The denial
// is visible, not silent.
func (b *Bot) adminGate(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.AdminGate(middleware.AdminGateOptions{
		IsAdmin: b.cfg.IsAdmin,
		OnReject: func(c tele.Context) error {
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: messages.AccessDenied, ShowAlert: true})
			}
			return c.Send(messages.AccessDenied)
		},
	}, h)
}

// adminPrompt replaces the chat's transient messages with a new admin screen.
func (b *Bot) adminPrompt(ctx context.Context, c tele.Context, text string, markup *tele.ReplyMarkup) error {
	chatID := c.Chat().ID
	if m := c.Message(); m != nil && c.Callback() == nil {
		b.tracker.Record(chatID, m.ID, cleaner.OriginUser)
	}
	b.tracker.Clear(ctx, chatID)
	msgID, err := b.transport.Send(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	b.tracker.Record(chatID, msgID, cleaner.OriginBot)
	return nil
}

func (b *Bot) handleAdminPanel(c tele.Context) error {
	ctx := helpers.Context(c)
	b.sessions.Clear(c.Chat().ID)
	return b.adminPrompt(ctx, c, messages.AdminPanel, keyboard.AdminPanel())
}

func (b *Bot) handleStats(c tele.Context) error {
	ctx := helpers.Context(c)
	st, err := b.store.CollectStats(ctx)
	if err != nil {
		logger.Error(ctx, "admin", "admin.stats_failed", slog.Any("err", err))
		return c.Send(messages.GenericError)
	}
	text := messages.Stats(
		int(st.TotalUsers), int(st.NewUsers24h),
		int(st.TotalAds), int(st.PendingAds), int(st.ApprovedAds), int(st.RejectedAds),
	)
	return b.adminPrompt(ctx, c, text, keyboard.AdminPanel())
}

// handleBroadcastStart asks the admin for the broadcast payload.
func (b *Bot) handleBroadcastStart(c tele.Context) error {
	ctx := helpers.Context(c)
	b.sessions.SetStep(c.Chat().ID, state.StepBroadcast)
	return b.adminPrompt(ctx, c, messages.BroadcastPrompt, keyboard.RemoveKeyboard())
}

// handleBroadcastPayload launches the fan-out in the background and returns
// the admin to the panel. Progress lands in the pinned progress message.
func (b *Bot) handleBroadcastPayload(c tele.Context) error {
	ctx := helpers.Context(c)
	chatID := c.Chat().ID
	b.sessions.Clear(chatID)

	send, ok := broadcastSendFunc(b.transport, c.Message())
	if !ok {
		return c.Send(messages.UnknownInput)
	}

	ids, err := b.store.ListTelegramIDs(ctx)
	if err != nil {
		logger.Error(ctx, "admin", "admin.broadcast_list_failed", slog.Any("err", err))
		return c.Send(messages.GenericError)
	}

	progressID, err := b.transport.Send(ctx, chatID, messages.BroadcastStarted, nil)
	if err != nil {
		return err
	}

	logger.Info(ctx, "admin", "admin.broadcast_started",
		slog.Int64("user_id", c.Sender().ID),
		slog.Int("count", len(ids)),
	)

	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		res := b.sender.Run(b.runCtx, ids, send, nil)
		done := messages.BroadcastDone(res.Success, res.Failed)
		if err := b.transport.Edit(context.Background(), chatID, progressID, done); err != nil {
			_, _ = b.transport.Send(context.Background(), chatID, done, nil)
		}
	}()

	return b.adminPrompt(ctx, c, messages.AdminPanel, keyboard.AdminPanel())
}

// broadcastSendFunc turns the admin's message into a delivery closure.
func broadcastSendFunc(t *BotTransport, m *tele.Message) (broadcast.SendFunc, bool) {
	if m == nil {
		return nil, false
	}
	switch {
	case m.Photo != nil:
		fileID, caption := m.Photo.FileID, m.Caption
		return func(ctx context.Context, userID int64) error {
			_, err := t.SendMedia(ctx, userID, "photo", fileID, caption, nil)
			return err
		}, true
	case m.Video != nil:
		fileID, caption := m.Video.FileID, m.Caption
		return func(ctx context.Context, userID int64) error {
			_, err := t.SendMedia(ctx, userID, "video", fileID, caption, nil)
			return err
		}, true
	case m.Text != "":
		text := m.Text
		return func(ctx context.Context, userID int64) error {
			_, err := t.Send(ctx, userID, text, nil)
			return err
		}, true
	}
	return nil, false
}

// handleModerate shows the newest pending ads with verdict buttons.
func (b *Bot) handleModerate(c tele.Context) error {
	ctx := helpers.Context(c)

	ads, err := b.queue.Pending(ctx, moderationPageSize)
	if err != nil {
		logger.Error(ctx, "admin", "admin.moderation_list_failed", slog.Any("err", err))
		return c.Send(messages.GenericError)
	}
	if len(ads) == 0 {
		return b.adminPrompt(ctx, c, messages.ModerationEmpty, keyboard.AdminPanel())
	}

	ids := make([]int64, 0, len(ads))
	cards := make([]string, 0, len(ads))
	for _, ad := range ads {
		ids = append(ids, ad.ID)
		cards = append(cards, messages.ModerationCard(
			ad.ID, ad.Channel, ad.Duration, ad.Price, ad.Currency, moderation.Preview(ad.Text),
		))
	}
	text := messages.ModerationHeader(len(ads), len(ads)) + "\n\n" + strings.Join(cards, "\n\n")
	return b.adminPrompt(ctx, c, text, keyboard.Moderation(ids))
}

func (b *Bot) handleApprove(c tele.Context) error {
	return b.verdict(c, true)
}

func (b *Bot) handleReject(c tele.Context) error {
	return b.verdict(c, false)
}

func (b *Bot) verdict(c tele.Context, approve bool) error {
	ctx := helpers.Context(c)
	adID, err := strconv.ParseInt(strings.TrimSpace(c.Callback().Data), 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Некорректный идентификатор", ShowAlert: true})
	}

	if approve {
		_, err = b.queue.Approve(ctx, adID)
	} else {
		_, err = b.queue.Reject(ctx, adID)
	}
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrAdNotFound):
		return c.Respond(&tele.CallbackResponse{Text: "Объявление не найдено", ShowAlert: true})
	default:
		logger.Error(ctx, "admin", "admin.verdict_failed",
			slog.Int64("ad_id", adID),
			slog.Any("err", err),
		)
		return c.Respond(&tele.CallbackResponse{Text: "❌ Ошибка", ShowAlert: true})
	}

	if approve {
		_ = c.Respond(&tele.CallbackResponse{Text: "Объявление одобрено"})
	} else {
		_ = c.Respond(&tele.CallbackResponse{Text: "Объявление отклонено"})
	}
	return b.handleModerate(c)
}

func (b *Bot) handleRefresh(c tele.Context) error {
	_ = c.Respond(&tele.CallbackResponse{Text: "Обновляем список..."})
	return b.handleModerate(c)
}
