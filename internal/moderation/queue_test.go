package moderation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adbot/internal/storage"
)

type fakeStore struct {
	ads     map[int64]*storage.Ad
	failUpd error
}

func newFakeStore(ads ...storage.Ad) *fakeStore {
	s := &fakeStore{ads: make(map[int64]*storage.Ad)}
	for i := range ads {
		ad := ads[i]
		s.ads[ad.ID] = &ad
	}
	return s
}

func (s *fakeStore) GetAd(_ context.Context, id int64) (storage.Ad, error) {
	ad, ok := s.ads[id]
	if !ok {
		return storage.Ad{}, storage.ErrAdNotFound
	}
	return *ad, nil
}

func (s *fakeStore) ListAdsByStatus(_ context.Context, status string, limit int) ([]storage.Ad, error) {
	var out []storage.Ad
	for _, ad := range s.ads {
		if ad.Status == status && len(out) < limit {
			out = append(out, *ad)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateAdStatus(_ context.Context, id int64, status string, approvedAt *time.Time) error {
	if s.failUpd != nil {
		return s.failUpd
	}
	ad, ok := s.ads[id]
	if !ok {
		return storage.ErrAdNotFound
	}
	ad.Status = status
	if approvedAt != nil {
		ad.ApprovedAt.Valid = true
		ad.ApprovedAt.Time = *approvedAt
	}
	return nil
}

type fakeNotifier struct {
	sent map[int64][]string
	err  error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[int64][]string)}
}

func (n *fakeNotifier) Notify(_ context.Context, userID int64, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent[userID] = append(n.sent[userID], text)
	return nil
}

func pendingAd(id, userID int64) storage.Ad {
	return storage.Ad{
		ID:       id,
		UserID:   userID,
		Channel:  "Explore China",
		Duration: "1 день",
		Price:    1000,
		Currency: "RUB",
		Text:     "Продам велосипед, отличное состояние",
		Status:   storage.StatusPending,
	}
}

func TestQueueApprove(t *testing.T) {
	store := newFakeStore(pendingAd(1, 500))
	notifier := newFakeNotifier()
	q := New(store, notifier)

	ad, err := q.Approve(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, storage.StatusApproved, ad.Status)
	assert.Equal(t, storage.StatusApproved, store.ads[1].Status)
	assert.True(t, store.ads[1].ApprovedAt.Valid)

	require.Len(t, notifier.sent[500], 1)
	assert.Contains(t, notifier.sent[500][0], "одобрено")
	assert.Contains(t, notifier.sent[500][0], "#1")
}

func TestQueueReject(t *testing.T) {
	store := newFakeStore(pendingAd(2, 500))
	notifier := newFakeNotifier()
	q := New(store, notifier)

	ad, err := q.Reject(context.Background(), 2)
	require.NoError(t, err)

	assert.Equal(t, storage.StatusRejected, ad.Status)
	assert.False(t, store.ads[2].ApprovedAt.Valid)

	require.Len(t, notifier.sent[500], 1)
	assert.Contains(t, notifier.sent[500][0], "отклонено")
}

func TestQueueApproveMissingAd(t *testing.T) {
	q := New(newFakeStore(), newFakeNotifier())

	_, err := q.Approve(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrAdNotFound)

	_, err = q.Reject(context.Background(), 42)
	assert.ErrorIs(t, err, storage.ErrAdNotFound)
}

func TestQueueNotifyFailureDoesNotFailVerdict(t *testing.T) {
	store := newFakeStore(pendingAd(3, 500))
	notifier := newFakeNotifier()
	notifier.err = errors.New("forbidden: bot was blocked by the user")
	q := New(store, notifier)

	ad, err := q.Approve(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusApproved, ad.Status)
}

func TestQueueVerdictIsRepeatable(t *testing.T) {
	store := newFakeStore(pendingAd(4, 500))
	q := New(store, newFakeNotifier())

	_, err := q.Approve(context.Background(), 4)
	require.NoError(t, err)

	ad, err := q.Reject(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusRejected, ad.Status)
}

func TestQueuePending(t *testing.T) {
	store := newFakeStore(pendingAd(1, 500), pendingAd(2, 501))
	approved := pendingAd(3, 502)
	approved.Status = storage.StatusApproved
	store.ads[3] = &approved
	q := New(store, newFakeNotifier())

	ads, err := q.Pending(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, ads, 2)
	for _, ad := range ads {
		assert.Equal(t, storage.StatusPending, ad.Status)
	}
}

func TestPreviewTrimsLongText(t *testing.T) {
	long := strings.Repeat("ж", 250)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("ж", 200)+"...", got)

	short := "короткий текст"
	assert.Equal(t, short, Preview(short))
}
