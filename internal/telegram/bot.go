package telegram

import (
	"context"
	"fmt"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"adbot/internal/broadcast"
	"adbot/internal/config"
	"adbot/internal/moderation"
	"adbot/internal/payment"
	"adbot/internal/storage"
	"adbot/internal/telegram/cleaner"
	"adbot/internal/telegram/flow"
	"adbot/internal/telegram/state"
)

const defaultLongPollTimeout = 10 * time.Second

// Options carries everything needed to compose the bot.
type Options struct {
	Config  *config.Config
	Store   *storage.Store
	Gateway payment.Gateway
	Version string
}

// Bot wires the transport, the conversation flow and the admin surface over
// a single telebot instance.
type Bot struct {
	cfg       *config.Config
	bot       *tele.Bot
	store     *storage.Store
	transport *BotTransport
	sessions  state.Store
	tracker   *cleaner.Tracker
	flow      *flow.Controller
	queue     *moderation.Queue
	sender    *broadcast.Sender
	reg       *Registry
	version   string

	runCtx context.Context
	jobs   sync.WaitGroup
}

// New builds the bot and registers every route. It talks to the Telegram API
// once to validate the token.
func New(opts Options) (*Bot, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}

	timeout := defaultLongPollTimeout
	if cfg.Telegram.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Telegram.LongPollTimeoutSeconds) * time.Second
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
		Client: buildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	transport := NewBotTransport(tb)
	sessions := state.NewMemoryStore()
	tracker := cleaner.New(transport)

	b := &Bot{
		cfg:       cfg,
		bot:       tb,
		store:     opts.Store,
		transport: transport,
		sessions:  sessions,
		tracker:   tracker,
		flow:      flow.New(cfg, sessions, tracker, transport, opts.Store, opts.Gateway),
		queue:     moderation.New(opts.Store, transport),
		sender:    broadcast.New(cfg.Broadcast.PerSecond),
		reg:       NewRegistry(),
		version:   opts.Version,
		runCtx:    context.Background(),
	}
	b.registerRoutes()
	return b, nil
}
