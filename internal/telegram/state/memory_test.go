package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreDefaultsToIdle(t *testing.T) {
	s := NewMemoryStore()

	sess := s.Get(100)
	assert.Equal(t, StepIdle, sess.Step)
	assert.False(t, s.InProgress(100))
}

func TestMemoryStoreKeepsFieldsAcrossSteps(t *testing.T) {
	s := NewMemoryStore()

	s.Update(100, func(sess *Session) {
		sess.Step = StepSelectDuration
		sess.Fields.Channel = "Explore China"
	})
	s.SetStep(100, StepEnterMedia)

	sess := s.Get(100)
	require.Equal(t, StepEnterMedia, sess.Step)
	assert.Equal(t, "Explore China", sess.Fields.Channel)
}

func TestMemoryStoreClear(t *testing.T) {
	s := NewMemoryStore()

	s.Update(100, func(sess *Session) {
		sess.Step = StepEnterText
		sess.Fields.Channel = "Explore China"
		sess.Fields.Duration = "1 день"
	})
	require.True(t, s.InProgress(100))

	s.Clear(100)
	sess := s.Get(100)
	assert.Equal(t, StepIdle, sess.Step)
	assert.Empty(t, sess.Fields.Channel)
	assert.Empty(t, sess.Fields.Duration)
}

func TestMemoryStoreIsolatesChats(t *testing.T) {
	s := NewMemoryStore()

	s.Update(100, func(sess *Session) {
		sess.Step = StepSelectChannel
	})

	assert.True(t, s.InProgress(100))
	assert.False(t, s.InProgress(200))
	assert.Equal(t, StepIdle, s.Get(200).Step)
}

func TestMemoryStoreAcquireSerializesChat(t *testing.T) {
	s := NewMemoryStore()

	release := s.Acquire(100)

	var wg sync.WaitGroup
	entered := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		r := s.Acquire(100)
		close(entered)
		r()
	}()

	select {
	case <-entered:
		t.Fatal("second handler entered while chat was locked")
	default:
	}

	release()
	wg.Wait()
	<-entered
}

func TestMemoryStoreConcurrentUpdates(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(chat int64) {
			defer wg.Done()
			s.Update(chat, func(sess *Session) {
				sess.Step = StepSelectChannel
			})
		}(int64(i % 5))
	}
	wg.Wait()

	for chat := int64(0); chat < 5; chat++ {
		assert.Equal(t, StepSelectChannel, s.Get(chat).Step)
	}
}
