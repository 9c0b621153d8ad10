package telegram

import (
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/telegram/flow"
	"adbot/internal/telegram/helpers"
	"adbot/internal/telegram/keyboard"
	"adbot/internal/telegram/messages"
	"adbot/internal/telegram/middleware"
	"adbot/internal/telegram/state"
)

// registerRoutes installs the middleware chain, the slash commands, the text
// router and the inline callback dispatch.
func (b *Bot) registerRoutes() {
	b.bot.Use(middleware.Recover)
	b.bot.Use(middleware.Logger)
	if b.cfg.RateLimit.MaxEvents > 0 && b.cfg.RateLimit.WindowSeconds > 0 {
		b.bot.Use(middleware.RateLimit(middleware.RateLimitOptions{
			MaxEvents: b.cfg.RateLimit.MaxEvents,
			Window:    time.Duration(b.cfg.RateLimit.WindowSeconds) * time.Second,
			OnLimited: func(c tele.Context) error {
				return c.Send(messages.TooManyRequests)
			},
		}))
	}

	b.reg.RegisterCommand("/start", Command{
		Handler:     b.handleStart,
		Description: "Главное меню",
	})
	b.reg.RegisterCommand("/help", Command{
		Handler:     b.handleHelp,
		Description: "Помощь",
	})
	b.reg.RegisterCommand("/admin", Command{
		Handler:     b.adminGate(b.handleAdminPanel),
		Description: "Админ-панель",
		AdminOnly:   true,
	})
	for name, cmd := range b.reg.Commands() {
		b.bot.Handle(name, cmd.Handler)
	}

	_ = b.reg.RegisterCallback(keyboard.CallbackApprove, b.adminGate(b.handleApprove))
	_ = b.reg.RegisterCallback(keyboard.CallbackReject, b.adminGate(b.handleReject))
	_ = b.reg.RegisterCallback(keyboard.CallbackRefresh, b.adminGate(b.handleRefresh))
	b.bot.Handle(tele.OnCallback, b.handleCallback)

	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnPhoto, b.mediaHandler(flow.KindPhoto))
	b.bot.Handle(tele.OnVideo, b.mediaHandler(flow.KindVideo))
}

// inputFrom unwraps a telebot update into a flow input.
func inputFrom(c tele.Context, kind flow.Kind) flow.Input {
	in := flow.Input{Kind: kind, Text: c.Text()}
	if chat := c.Chat(); chat != nil {
		in.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		in.UserID = user.ID
		in.Username = user.Username
		in.FullName = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	if m := c.Message(); m != nil {
		in.MessageID = m.ID
		switch {
		case kind == flow.KindPhoto && m.Photo != nil:
			in.FileID = m.Photo.FileID
		case kind == flow.KindVideo && m.Video != nil:
			in.FileID = m.Video.FileID
		}
	}
	return in
}

func (b *Bot) handleStart(c tele.Context) error {
	return b.flow.Start(helpers.Context(c), inputFrom(c, flow.KindText))
}

func (b *Bot) handleHelp(c tele.Context) error {
	return b.flow.Help(helpers.Context(c), inputFrom(c, flow.KindText))
}

// handleText routes plain text: an active form wins, then menu buttons, then
// the fallback hint.
func (b *Bot) handleText(c tele.Context) error {
	ctx := helpers.Context(c)
	in := inputFrom(c, flow.KindText)

	if b.sessions.Get(in.ChatID).Step == state.StepBroadcast {
		return b.adminGate(b.handleBroadcastPayload)(c)
	}
	if b.flow.InProgress(in.ChatID) {
		return b.flow.Handle(ctx, in)
	}

	switch in.Text {
	case messages.BtnPlaceAd:
		return b.flow.BeginAd(ctx, in)
	case messages.BtnMyAds:
		return b.flow.MyAds(ctx, in)
	case messages.BtnBalance:
		return b.flow.Balance(ctx, in)
	case messages.BtnHelp:
		return b.flow.Help(ctx, in)
	case messages.BtnHome, messages.BtnCancel:
		return b.flow.Cancel(ctx, in)
	case messages.BtnAdminPanel:
		return b.adminGate(b.handleAdminPanel)(c)
	case messages.BtnStats:
		return b.adminGate(b.handleStats)(c)
	case messages.BtnBroadcast:
		return b.adminGate(b.handleBroadcastStart)(c)
	case messages.BtnModerate:
		return b.adminGate(b.handleModerate)(c)
	}
	return c.Send(messages.UnknownInput)
}

// mediaHandler routes photo and video uploads to the broadcast composer or
// the form flow; stray media outside a conversation is ignored.
func (b *Bot) mediaHandler(kind flow.Kind) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.Context(c)
		in := inputFrom(c, kind)

		if b.sessions.Get(in.ChatID).Step == state.StepBroadcast {
			return b.adminGate(b.handleBroadcastPayload)(c)
		}
		if b.flow.InProgress(in.ChatID) {
			return b.flow.Handle(ctx, in)
		}
		return nil
	}
}

// handleCallback dispatches inline button presses through the registry.
func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	key, payload := splitCallbackData(cb)
	handler, ok := b.reg.Callback(key)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
	}
	cb.Data = payload
	return handler(c)
}

// splitCallbackData separates the registered unique key from its payload.
func splitCallbackData(cb *tele.Callback) (string, string) {
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}
