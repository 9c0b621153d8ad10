// Package flow drives the ad placement conversation: channel, duration,
// optional media, then the ad copy. Transitions are looked up in an explicit
// step table, every prompt replaces the previous one via the cleaner, and the
// finished form is persisted and handed to the payment gateway.
package flow

import (
	"context"
	"log/slog"
	"math"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/config"
	"adbot/internal/logger"
	"adbot/internal/payment"
	"adbot/internal/storage"
	"adbot/internal/telegram/cleaner"
	"adbot/internal/telegram/messages"
	"adbot/internal/telegram/state"
)

// Kind classifies an inbound update for the dispatch table.
type Kind int

const (
	// KindText is a plain text message, button presses included.
	KindText Kind = iota
	// KindPhoto is a photo upload.
	KindPhoto
	// KindVideo is a video upload.
	KindVideo
)

// Input is one inbound message, already unwrapped from the transport.
type Input struct {
	Kind      Kind
	ChatID    int64
	UserID    int64
	Username  string
	FullName  string
	MessageID int
	Text      string
	FileID    string
}

// Transport sends and deletes chat messages.
type Transport interface {
	Send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error)
	SendMedia(ctx context.Context, chatID int64, mediaType, fileID, caption string, markup *tele.ReplyMarkup) (int, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}

// Store is the persistence surface of the flow.
type Store interface {
	GetOrCreateUser(ctx context.Context, telegramID int64, username, fullName string) (storage.User, error)
	CreateAd(ctx context.Context, in storage.NewAd) (storage.Ad, error)
	ListAdsByUser(ctx context.Context, userID int64, limit int) ([]storage.Ad, error)
}

type stepFn func(ctx context.Context, in Input, sess state.Session) error

// Controller owns the conversation state machine.
type Controller struct {
	cfg       *config.Config
	sessions  state.Store
	tracker   *cleaner.Tracker
	transport Transport
	store     Store
	gateway   payment.Gateway

	steps map[state.Step]stepFn
}

// New wires a controller. The dispatch table is fixed at construction.
func New(cfg *config.Config, sessions state.Store, tracker *cleaner.Tracker, transport Transport, store Store, gateway payment.Gateway) *Controller {
	c := &Controller{
		cfg:       cfg,
		sessions:  sessions,
		tracker:   tracker,
		transport: transport,
		store:     store,
		gateway:   gateway,
	}
	c.steps = map[state.Step]stepFn{
		state.StepSelectChannel:  c.stepSelectChannel,
		state.StepSelectDuration: c.stepSelectDuration,
		state.StepEnterMedia:     c.stepEnterMedia,
		state.StepEnterText:      c.stepEnterText,
	}
	return c
}

// InProgress reports whether the chat has an active form.
func (c *Controller) InProgress(chatID int64) bool {
	return c.sessions.InProgress(chatID)
}

// Session exposes the current session, mainly for routing decisions.
func (c *Controller) Session(chatID int64) state.Session {
	return c.sessions.Get(chatID)
}

// Handle routes one inbound message to the handler of the chat's current
// step. Handling is serialized per chat; messages from other chats are
// never blocked.
func (c *Controller) Handle(ctx context.Context, in Input) error {
	release := c.sessions.Acquire(in.ChatID)
	defer release()

	c.tracker.Record(in.ChatID, in.MessageID, cleaner.OriginUser)

	sess := c.sessions.Get(in.ChatID)
	if in.Kind == KindText && (in.Text == messages.BtnHome || in.Text == messages.BtnCancel) {
		return c.cancel(ctx, in)
	}

	fn, ok := c.steps[sess.Step]
	if !ok {
		return nil
	}
	ctx = logger.WithHandler(ctx, "flow."+string(sess.Step))
	return fn(ctx, in, sess)
}

// price applies the channel multiplier to the tier amount.
func price(tier config.PriceTier, channel config.Channel) int {
	return int(math.Round(float64(tier.Amount) * channel.PriceMultiplier))
}

// prompt clears the chat transient messages and shows the next prompt,
// recording it for the following sweep.
func (c *Controller) prompt(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	c.tracker.Clear(ctx, chatID)
	msgID, err := c.transport.Send(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	c.tracker.Record(chatID, msgID, cleaner.OriginBot)
	return nil
}

// notice sends a corrective message without sweeping the chat, so the
// current prompt stays visible.
func (c *Controller) notice(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	msgID, err := c.transport.Send(ctx, chatID, text, markup)
	if err != nil {
		return err
	}
	c.tracker.Record(chatID, msgID, cleaner.OriginBot)
	return nil
}

func (c *Controller) logStep(ctx context.Context, event string, in Input, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Int64("chat_id", in.ChatID), slog.Int64("user_id", in.UserID))
	logger.Info(ctx, "flow", event, attrs...)
}
