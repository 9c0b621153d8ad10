package flow

import (
	"context"
	"log/slog"
	"strings"

	"adbot/internal/logger"
	"adbot/internal/telegram/cleaner"
	"adbot/internal/telegram/keyboard"
	"adbot/internal/telegram/messages"
	"adbot/internal/telegram/state"
)

const myAdsLimit = 10

// Start resets the conversation and shows the main menu. Used by /start,
// the home button and after a finished form.
func (c *Controller) Start(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)
	c.sessions.Clear(in.ChatID)

	if _, err := c.store.GetOrCreateUser(ctx, in.UserID, in.Username, in.FullName); err != nil {
		logger.Error(ctx, "flow", "flow.user_upsert_failed",
			slog.Int64("user_id", in.UserID),
			slog.Any("err", err),
		)
		return c.notice(ctx, in.ChatID, messages.GenericError, nil)
	}

	logger.Info(ctx, "flow", "flow.started", slog.Int64("user_id", in.UserID))
	return c.mainMenu(ctx, in, true)
}

// Cancel aborts any form in the chat and returns to the main menu.
func (c *Controller) Cancel(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)
	return c.cancel(ctx, in)
}

// BeginAd opens the form at channel selection.
func (c *Controller) BeginAd(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)
	c.tracker.Clear(ctx, in.ChatID)

	// short-lived placeholder while the catalog renders
	if loadingID, err := c.transport.Send(ctx, in.ChatID, messages.ChannelsLoading, nil); err == nil {
		defer func() { _ = c.transport.Delete(ctx, in.ChatID, loadingID) }()
	}

	c.sessions.Update(in.ChatID, func(s *state.Session) {
		*s = state.Session{Step: state.StepSelectChannel}
	})
	c.logStep(ctx, "flow.ad_started", in)

	return c.notice(ctx, in.ChatID, messages.ChannelChoice, keyboard.Channels(c.cfg.Channels))
}

// MyAds lists the user's recent ads with their statuses.
func (c *Controller) MyAds(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)
	c.sessions.Clear(in.ChatID)

	ads, err := c.store.ListAdsByUser(ctx, in.UserID, myAdsLimit)
	if err != nil {
		logger.Error(ctx, "flow", "flow.my_ads_failed",
			slog.Int64("user_id", in.UserID),
			slog.Any("err", err),
		)
		return c.notice(ctx, in.ChatID, messages.GenericError, nil)
	}

	if len(ads) == 0 {
		return c.prompt(ctx, in.ChatID, messages.MyAdsEmpty, keyboard.MainMenu(c.cfg.IsAdmin(in.UserID)))
	}

	lines := make([]string, 0, len(ads))
	for _, ad := range ads {
		lines = append(lines, messages.MyAdsLine(ad.ID, ad.Channel, ad.Duration, ad.Status, ad.Price, ad.Currency))
	}
	text := "📋 <b>Ваши объявления:</b>\n\n" + strings.Join(lines, "\n")
	return c.prompt(ctx, in.ChatID, text, keyboard.MainMenu(c.cfg.IsAdmin(in.UserID)))
}

// Balance shows the placeholder balance screen.
func (c *Controller) Balance(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)
	c.sessions.Clear(in.ChatID)

	markup := keyboard.ReplyButtons(
		[]string{messages.BtnHome},
	)
	return c.prompt(ctx, in.ChatID, messages.Balance, markup)
}

// Help shows usage instructions.
func (c *Controller) Help(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)
	return c.prompt(ctx, in.ChatID, messages.Help, keyboard.MainMenu(c.cfg.IsAdmin(in.UserID)))
}

// mainMenu sweeps the chat when asked and shows the top-level keyboard.
func (c *Controller) mainMenu(ctx context.Context, in Input, sweep bool) error {
	if sweep {
		c.tracker.Clear(ctx, in.ChatID)
	}
	_, err := c.transport.Send(ctx, in.ChatID, messages.Start, keyboard.MainMenu(c.cfg.IsAdmin(in.UserID)))
	return err
}
