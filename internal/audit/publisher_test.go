package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	store := NewMemoryStore()
	p := NewPublisher(store)

	require.NoError(t, p.Emit(context.Background(), Event{Action: string(EventUserRegistered), Subject: "u1"}))

	events := store.ListAll()
	require.Len(t, events, 1)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, []string{"user_registered"}, store.Actions())
}

func TestMemoryStoreListBySubject(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	_ = store.Append(ctx, Event{Action: "a", Subject: "deed-1"})
	_ = store.Append(ctx, Event{Action: "b", Subject: "agreement-1", TitleDeed: "deed-1"})
	_ = store.Append(ctx, Event{Action: "c", Subject: "deed-2"})

	got := store.ListBySubject("deed-1")
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Action)
	assert.Equal(t, "b", got[1].Action)
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("sink down") }

func TestWorkerDrainsQueue(t *testing.T) {
	queue := NewQueue(4)
	sink := NewMemoryStore()
	w := NewWorker(sink, queue, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, queue.Append(ctx, Event{Action: "one"}))
	require.NoError(t, queue.Append(ctx, Event{Action: "two"}))

	assert.Eventually(t, func() bool { return len(sink.ListAll()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerSurvivesSinkFailure(t *testing.T) {
	queue := NewQueue(1)
	w := NewWorker(failingStore{}, queue, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, queue.Append(ctx, Event{Action: "dropped"}))
	assert.Eventually(t, func() bool { return len(queue.ch) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestQueueRejectsWhenFull(t *testing.T) {
	queue := NewQueue(1)
	ctx := context.Background()
	require.NoError(t, queue.Append(ctx, Event{Action: "a"}))
	assert.ErrorIs(t, queue.Append(ctx, Event{Action: "b"}), ErrQueueFull)
}
