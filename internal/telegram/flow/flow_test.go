package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"adbot/internal/config"
	"adbot/internal/storage"
	"adbot/internal/telegram/cleaner"
	"adbot/internal/telegram/messages"
	"adbot/internal/telegram/state"
)

type sentMsg struct {
	chatID    int64
	text      string
	mediaType string
	fileID    string
	markup    *tele.ReplyMarkup
}

type fakeTransport struct {
	nextID  int
	sent    []sentMsg
	deleted map[int64][]int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{deleted: make(map[int64][]int)}
}

func (t *fakeTransport) Send(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) (int, error) {
	t.nextID++
	t.sent = append(t.sent, sentMsg{chatID: chatID, text: text, markup: markup})
	return t.nextID, nil
}

func (t *fakeTransport) SendMedia(_ context.Context, chatID int64, mediaType, fileID, caption string, markup *tele.ReplyMarkup) (int, error) {
	t.nextID++
	t.sent = append(t.sent, sentMsg{chatID: chatID, text: caption, mediaType: mediaType, fileID: fileID, markup: markup})
	return t.nextID, nil
}

func (t *fakeTransport) Delete(_ context.Context, chatID int64, messageID int) error {
	t.deleted[chatID] = append(t.deleted[chatID], messageID)
	return nil
}

func (t *fakeTransport) lastText() string {
	if len(t.sent) == 0 {
		return ""
	}
	return t.sent[len(t.sent)-1].text
}

func (t *fakeTransport) texts() []string {
	out := make([]string, 0, len(t.sent))
	for _, m := range t.sent {
		out = append(out, m.text)
	}
	return out
}

type fakeFlowStore struct {
	users  map[int64]storage.User
	ads    []storage.Ad
	nextID int64
	failAd error
}

func newFakeFlowStore() *fakeFlowStore {
	return &fakeFlowStore{users: make(map[int64]storage.User)}
}

func (s *fakeFlowStore) GetOrCreateUser(_ context.Context, telegramID int64, username, fullName string) (storage.User, error) {
	u, ok := s.users[telegramID]
	if !ok {
		u = storage.User{ID: telegramID, TelegramID: telegramID, Username: username, FullName: fullName}
		s.users[telegramID] = u
	}
	return u, nil
}

func (s *fakeFlowStore) CreateAd(_ context.Context, in storage.NewAd) (storage.Ad, error) {
	if s.failAd != nil {
		return storage.Ad{}, s.failAd
	}
	s.nextID++
	ad := storage.Ad{
		ID:       s.nextID,
		UserID:   in.UserID,
		Channel:  in.Channel,
		Text:     in.Text,
		Price:    in.Price,
		Currency: in.Currency,
		Duration: in.Duration,
		Status:   storage.StatusPending,
	}
	if in.MediaID != "" {
		ad.MediaType.Valid = true
		ad.MediaType.String = in.MediaType
		ad.MediaID.Valid = true
		ad.MediaID.String = in.MediaID
	}
	s.ads = append(s.ads, ad)
	return ad, nil
}

func (s *fakeFlowStore) ListAdsByUser(_ context.Context, userID int64, limit int) ([]storage.Ad, error) {
	var out []storage.Ad
	for _, ad := range s.ads {
		if ad.UserID == userID && len(out) < limit {
			out = append(out, ad)
		}
	}
	return out, nil
}

type fakeGateway struct {
	ok    bool
	err   error
	calls int
}

func (g *fakeGateway) Process(_ context.Context, _ int64, _, _ string, _ int) (bool, error) {
	g.calls++
	return g.ok, g.err
}

func testConfig() *config.Config {
	return &config.Config{
		Ad: config.AdConfig{TextMinLen: 10, TextMaxLen: 500},
		Channels: []config.Channel{
			{Name: "Китайский для ума", ExternalID: "@cleverchinese", PriceMultiplier: 1.0},
			{Name: "Explore China", ExternalID: "@explorezhongguo", PriceMultiplier: 1.0},
		},
		Tiers: []config.PriceTier{
			{Duration: "1 день", Amount: 1000, Currency: "RUB"},
			{Duration: "2 дня", Amount: 1800, Currency: "RUB"},
			{Duration: "неделя", Amount: 5000, Currency: "RUB"},
		},
	}
}

type fixture struct {
	ctrl      *Controller
	transport *fakeTransport
	store     *fakeFlowStore
	gateway   *fakeGateway
	sessions  *state.MemoryStore
}

func newFixture() *fixture {
	transport := newFakeTransport()
	store := newFakeFlowStore()
	gateway := &fakeGateway{ok: true}
	sessions := state.NewMemoryStore()
	tracker := cleaner.New(transport)
	cfg := testConfig()
	return &fixture{
		ctrl:      New(cfg, sessions, tracker, transport, store, gateway),
		transport: transport,
		store:     store,
		gateway:   gateway,
		sessions:  sessions,
	}
}

func textInput(chatID int64, msgID int, text string) Input {
	return Input{Kind: KindText, ChatID: chatID, UserID: chatID, MessageID: msgID, Text: text}
}

func (f *fixture) mustHandle(t *testing.T, in Input) {
	t.Helper()
	require.NoError(t, f.ctrl.Handle(context.Background(), in))
}

func TestFlowHappyPathWithoutMedia(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	assert.Equal(t, state.StepSelectChannel, f.sessions.Get(chat).Step)

	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	assert.Equal(t, state.StepSelectDuration, f.sessions.Get(chat).Step)

	f.mustHandle(t, textInput(chat, 3, "1 день"))
	sess := f.sessions.Get(chat)
	assert.Equal(t, state.StepEnterMedia, sess.Step)
	assert.Equal(t, 1000, sess.Fields.Price)
	assert.Equal(t, "RUB", sess.Fields.Currency)

	f.mustHandle(t, textInput(chat, 4, messages.BtnSkip))
	assert.Equal(t, state.StepEnterText, f.sessions.Get(chat).Step)

	f.mustHandle(t, textInput(chat, 5, "Продам велосипед, отличное состояние"))

	require.Len(t, f.store.ads, 1)
	ad := f.store.ads[0]
	assert.Equal(t, storage.StatusPending, ad.Status)
	assert.Equal(t, "Explore China", ad.Channel)
	assert.Equal(t, "1 день", ad.Duration)
	assert.Equal(t, 1000, ad.Price)
	assert.False(t, ad.MediaID.Valid)

	assert.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, state.StepIdle, f.sessions.Get(chat).Step)

	texts := f.transport.texts()
	require.NotEmpty(t, texts)
	var confirmed bool
	for _, txt := range texts {
		if strings.Contains(txt, "Объявление успешно создано") {
			confirmed = true
			assert.Contains(t, txt, "Explore China")
			assert.Contains(t, txt, "1 день")
			assert.Contains(t, txt, "1000 RUB")
		}
	}
	assert.True(t, confirmed, "confirmation message must be sent")
}

func TestFlowMediaAttachment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, "2 дня"))

	f.mustHandle(t, Input{Kind: KindPhoto, ChatID: chat, UserID: chat, MessageID: 4, FileID: "photo-file-id"})
	sess := f.sessions.Get(chat)
	assert.Equal(t, state.StepEnterText, sess.Step)
	assert.Equal(t, "photo", sess.Fields.MediaType)
	assert.Equal(t, "photo-file-id", sess.Fields.MediaID)

	f.mustHandle(t, textInput(chat, 5, "Реклама курса китайского языка"))

	require.Len(t, f.store.ads, 1)
	ad := f.store.ads[0]
	require.True(t, ad.MediaID.Valid)
	assert.Equal(t, "photo", ad.MediaType.String)

	// confirmation goes out as a caption on the media
	last := f.transport.sent[len(f.transport.sent)-2]
	assert.Equal(t, "photo", last.mediaType)
	assert.Contains(t, last.text, "Объявление успешно создано")
}

func TestFlowInvalidChannelReprompts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Несуществующий канал"))

	sess := f.sessions.Get(chat)
	assert.Equal(t, state.StepSelectChannel, sess.Step)
	assert.Empty(t, sess.Fields.Channel)
	assert.Equal(t, messages.ChannelInvalid, f.transport.lastText())
}

func TestFlowInvalidDurationReprompts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, "3 месяца"))

	sess := f.sessions.Get(chat)
	assert.Equal(t, state.StepSelectDuration, sess.Step)
	assert.Empty(t, sess.Fields.Duration)
}

func TestFlowTextBounds(t *testing.T) {
	cases := []struct {
		name    string
		textLen int
		saved   bool
	}{
		{"below minimum", 9, false},
		{"at minimum", 10, true},
		{"at maximum", 500, true},
		{"above maximum", 501, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			chat := int64(700)

			require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
			f.mustHandle(t, textInput(chat, 2, "Explore China"))
			f.mustHandle(t, textInput(chat, 3, "1 день"))
			f.mustHandle(t, textInput(chat, 4, messages.BtnSkip))

			// multibyte text, bounds are counted in runes
			f.mustHandle(t, textInput(chat, 5, strings.Repeat("я", tc.textLen)))

			if tc.saved {
				assert.Len(t, f.store.ads, 1)
				assert.Equal(t, state.StepIdle, f.sessions.Get(chat).Step)
			} else {
				assert.Empty(t, f.store.ads)
				assert.Equal(t, state.StepEnterText, f.sessions.Get(chat).Step)
			}
		})
	}
}

func TestFlowBackFromMediaKeepsFields(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, "1 день"))
	f.mustHandle(t, textInput(chat, 4, messages.BtnBack))

	sess := f.sessions.Get(chat)
	assert.Equal(t, state.StepSelectDuration, sess.Step)
	assert.Equal(t, "Explore China", sess.Fields.Channel)
	assert.Equal(t, "1 день", sess.Fields.Duration)

	// re-selection overwrites the tier
	f.mustHandle(t, textInput(chat, 5, "неделя"))
	sess = f.sessions.Get(chat)
	assert.Equal(t, "неделя", sess.Fields.Duration)
	assert.Equal(t, 5000, sess.Fields.Price)
}

func TestFlowCancelReturnsToIdle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, messages.BtnHome))

	assert.Equal(t, state.StepIdle, f.sessions.Get(chat).Step)
	assert.Empty(t, f.store.ads)

	// cancelling again is harmless
	require.NoError(t, f.ctrl.Cancel(ctx, textInput(chat, 4, messages.BtnCancel)))
	assert.Equal(t, state.StepIdle, f.sessions.Get(chat).Step)
}

func TestFlowChatsAreIsolated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(700, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(700, 2, "Explore China"))

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(800, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(800, 2, "Китайский для ума"))

	assert.Equal(t, "Explore China", f.sessions.Get(700).Fields.Channel)
	assert.Equal(t, "Китайский для ума", f.sessions.Get(800).Fields.Channel)
}

func TestFlowStorageFailureKeepsStep(t *testing.T) {
	f := newFixture()
	f.store.failAd = errors.New("database is locked")
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, "1 день"))
	f.mustHandle(t, textInput(chat, 4, messages.BtnSkip))
	f.mustHandle(t, textInput(chat, 5, "Продам велосипед, отличное состояние"))

	assert.Equal(t, state.StepEnterText, f.sessions.Get(chat).Step, "user can retry after a storage error")
	assert.Equal(t, 0, f.gateway.calls, "payment must not run without a saved ad")
	assert.Equal(t, messages.AdSaveError, f.transport.lastText())

	// retry after the store recovers
	f.store.failAd = nil
	f.mustHandle(t, textInput(chat, 6, "Продам велосипед, отличное состояние"))
	assert.Len(t, f.store.ads, 1)
	assert.Equal(t, state.StepIdle, f.sessions.Get(chat).Step)
}

func TestFlowPaymentFailureStillCreatesAd(t *testing.T) {
	f := newFixture()
	f.gateway.ok = false
	f.gateway.err = errors.New("gateway unavailable")
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, "1 день"))
	f.mustHandle(t, textInput(chat, 4, messages.BtnSkip))
	f.mustHandle(t, textInput(chat, 5, "Продам велосипед, отличное состояние"))

	require.Len(t, f.store.ads, 1)
	assert.Equal(t, storage.StatusPending, f.store.ads[0].Status)
	assert.Equal(t, state.StepIdle, f.sessions.Get(chat).Step)

	var warned bool
	for _, txt := range f.transport.texts() {
		if strings.Contains(txt, messages.PaymentFailed) {
			warned = true
		}
	}
	assert.True(t, warned, "payment failure must be surfaced to the user")
}

func TestFlowChannelMultiplierAffectsPrice(t *testing.T) {
	f := newFixture()
	f.ctrl.cfg.Channels[1].PriceMultiplier = 1.5
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))
	f.mustHandle(t, textInput(chat, 3, "1 день"))

	assert.Equal(t, 1500, f.sessions.Get(chat).Fields.Price)
}

func TestFlowPromptReplacesPrevious(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.BeginAd(ctx, textInput(chat, 1, messages.BtnPlaceAd)))
	f.mustHandle(t, textInput(chat, 2, "Explore China"))

	// the channel prompt and the user's reply are swept once the duration
	// prompt goes out
	assert.NotEmpty(t, f.transport.deleted[chat])
}

func TestFlowStartRegistersUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := Input{Kind: KindText, ChatID: 700, UserID: 700, Username: "ivan", FullName: "Иван Петров", MessageID: 1, Text: "/start"}
	require.NoError(t, f.ctrl.Start(ctx, in))

	u, ok := f.store.users[700]
	require.True(t, ok)
	assert.Equal(t, "ivan", u.Username)
	assert.Equal(t, messages.Start, f.transport.lastText())
}

func TestFlowMyAds(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	chat := int64(700)

	require.NoError(t, f.ctrl.MyAds(ctx, textInput(chat, 1, messages.BtnMyAds)))
	assert.Equal(t, messages.MyAdsEmpty, f.transport.lastText())

	_, err := f.store.CreateAd(ctx, storage.NewAd{
		UserID: chat, Channel: "Explore China", Text: "Продам велосипед, отличное состояние",
		Price: 1000, Currency: "RUB", Duration: "1 день",
	})
	require.NoError(t, err)

	require.NoError(t, f.ctrl.MyAds(ctx, textInput(chat, 2, messages.BtnMyAds)))
	assert.Contains(t, f.transport.lastText(), "Ваши объявления")
	assert.Contains(t, f.transport.lastText(), "Explore China")
}
