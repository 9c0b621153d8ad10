package flow

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"adbot/internal/logger"
	"adbot/internal/storage"
	"adbot/internal/telegram/keyboard"
	"adbot/internal/telegram/messages"
	"adbot/internal/telegram/state"
)

// stepSelectChannel expects one of the configured channel names.
func (c *Controller) stepSelectChannel(ctx context.Context, in Input, _ state.Session) error {
	if in.Kind != KindText {
		return c.notice(ctx, in.ChatID, messages.ChannelInvalid, keyboard.Channels(c.cfg.Channels))
	}
	if in.Text == messages.BtnBack {
		return c.cancel(ctx, in)
	}

	ch, ok := c.cfg.ChannelByName(in.Text)
	if !ok {
		return c.notice(ctx, in.ChatID, messages.ChannelInvalid, keyboard.Channels(c.cfg.Channels))
	}

	c.sessions.Update(in.ChatID, func(s *state.Session) {
		s.Fields.Channel = ch.Name
		s.Step = state.StepSelectDuration
	})
	c.logStep(ctx, "flow.channel_selected", in, slog.String("channel", ch.Name))

	return c.prompt(ctx, in.ChatID, messages.DurationChoice(ch.Name), keyboard.Durations(c.cfg.Tiers))
}

// stepSelectDuration expects one of the configured tier labels.
func (c *Controller) stepSelectDuration(ctx context.Context, in Input, sess state.Session) error {
	if in.Kind != KindText {
		return c.notice(ctx, in.ChatID, messages.DurationInvalid, keyboard.Durations(c.cfg.Tiers))
	}
	if in.Text == messages.BtnBack {
		c.sessions.SetStep(in.ChatID, state.StepSelectChannel)
		return c.prompt(ctx, in.ChatID, messages.ChannelChoice, keyboard.Channels(c.cfg.Channels))
	}

	tier, ok := c.cfg.TierByDuration(in.Text)
	if !ok {
		return c.notice(ctx, in.ChatID, messages.DurationInvalid, keyboard.Durations(c.cfg.Tiers))
	}
	ch, _ := c.cfg.ChannelByName(sess.Fields.Channel)
	cost := price(tier, ch)

	c.sessions.Update(in.ChatID, func(s *state.Session) {
		s.Fields.Duration = tier.Duration
		s.Fields.Price = cost
		s.Fields.Currency = tier.Currency
		s.Step = state.StepEnterMedia
	})
	c.logStep(ctx, "flow.duration_selected", in,
		slog.String("channel", sess.Fields.Channel),
		slog.String("payload", tier.Duration),
	)

	text := messages.MediaPrompt(sess.Fields.Channel, tier.Duration, cost, tier.Currency)
	return c.prompt(ctx, in.ChatID, text, keyboard.Media())
}

// stepEnterMedia accepts a photo or video, a skip, or a step back.
func (c *Controller) stepEnterMedia(ctx context.Context, in Input, sess state.Session) error {
	switch {
	case in.Kind == KindPhoto || in.Kind == KindVideo:
		mediaType := "photo"
		if in.Kind == KindVideo {
			mediaType = "video"
		}
		c.sessions.Update(in.ChatID, func(s *state.Session) {
			s.Fields.MediaType = mediaType
			s.Fields.MediaID = in.FileID
			s.Step = state.StepEnterText
		})
		c.logStep(ctx, "flow.media_attached", in, slog.String("payload", mediaType))
		text := messages.TextPrompt(c.cfg.Ad.TextMinLen, c.cfg.Ad.TextMaxLen, true)
		return c.prompt(ctx, in.ChatID, text, keyboard.RemoveKeyboard())

	case in.Kind == KindText && in.Text == messages.BtnSkip:
		// skipping overwrites any media kept from a previous pass
		c.sessions.Update(in.ChatID, func(s *state.Session) {
			s.Fields.MediaType = ""
			s.Fields.MediaID = ""
			s.Step = state.StepEnterText
		})
		c.logStep(ctx, "flow.media_skipped", in)
		text := messages.TextPrompt(c.cfg.Ad.TextMinLen, c.cfg.Ad.TextMaxLen, false)
		return c.prompt(ctx, in.ChatID, text, keyboard.RemoveKeyboard())

	case in.Kind == KindText && in.Text == messages.BtnBack:
		c.sessions.SetStep(in.ChatID, state.StepSelectDuration)
		return c.prompt(ctx, in.ChatID, messages.DurationChoice(sess.Fields.Channel), keyboard.Durations(c.cfg.Tiers))

	default:
		return c.notice(ctx, in.ChatID, messages.MediaInvalid, nil)
	}
}

// stepEnterText validates the ad copy, persists the ad and runs payment.
func (c *Controller) stepEnterText(ctx context.Context, in Input, sess state.Session) error {
	if in.Kind != KindText {
		return c.notice(ctx, in.ChatID, messages.MediaInvalid, nil)
	}

	length := utf8.RuneCountInString(in.Text)
	if length < c.cfg.Ad.TextMinLen {
		return c.notice(ctx, in.ChatID, messages.TextTooShort(c.cfg.Ad.TextMinLen), nil)
	}
	if length > c.cfg.Ad.TextMaxLen {
		return c.notice(ctx, in.ChatID, messages.TextTooLong(c.cfg.Ad.TextMaxLen), nil)
	}

	ad, err := c.store.CreateAd(ctx, storage.NewAd{
		UserID:    in.UserID,
		Channel:   sess.Fields.Channel,
		Text:      in.Text,
		Price:     sess.Fields.Price,
		Currency:  sess.Fields.Currency,
		Duration:  sess.Fields.Duration,
		MediaType: sess.Fields.MediaType,
		MediaID:   sess.Fields.MediaID,
	})
	if err != nil {
		logger.Error(ctx, "flow", "flow.ad_save_failed",
			slog.Int64("user_id", in.UserID),
			slog.Any("err", err),
		)
		// keep the step so the user can resubmit the text
		return c.notice(ctx, in.ChatID, messages.AdSaveError, nil)
	}

	paid, payErr := c.gateway.Process(ctx, in.UserID, ad.Channel, ad.Duration, ad.Price)
	if payErr != nil || !paid {
		logger.Warn(ctx, "flow", "flow.payment_failed",
			slog.Int64("ad_id", ad.ID),
			slog.Int64("user_id", in.UserID),
			slog.Any("err", payErr),
		)
	}

	c.logStep(ctx, "flow.ad_created", in,
		slog.Int64("ad_id", ad.ID),
		slog.String("channel", ad.Channel),
	)

	c.sessions.Clear(in.ChatID)
	c.tracker.Clear(ctx, in.ChatID)

	confirmation := messages.AdConfirmation(ad.Channel, ad.Duration, ad.Price, ad.Currency, ad.Text)
	if payErr != nil || !paid {
		confirmation += "\n\n" + messages.PaymentFailed
	}
	if ad.HasMedia() {
		if _, err := c.transport.SendMedia(ctx, in.ChatID, ad.MediaType.String, ad.MediaID.String, confirmation, nil); err != nil {
			return err
		}
	} else {
		if _, err := c.transport.Send(ctx, in.ChatID, confirmation, nil); err != nil {
			return err
		}
	}

	// back to the main menu, confirmation stays on screen
	return c.mainMenu(ctx, in, false)
}

// cancel aborts the form and returns to the main menu.
func (c *Controller) cancel(ctx context.Context, in Input) error {
	c.sessions.Clear(in.ChatID)
	c.logStep(ctx, "flow.cancelled", in)
	return c.mainMenu(ctx, in, true)
}
