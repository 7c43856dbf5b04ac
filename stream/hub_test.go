package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func receiveFrame(t *testing.T, sub *Subscriber) []byte {
	t.Helper()
	select {
	case message, open := <-sub.Messages():
		require.True(t, open, "subscriber channel closed unexpectedly")
		return message
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestHubBroadcastReachesSubscriber(t *testing.T) {
	hub := startHub(t)

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	hub.Broadcast([]byte(`{"type":"new_event","id":1}`))

	assert.JSONEq(t, `{"type":"new_event","id":1}`, string(receiveFrame(t, sub)))
}

func TestHubLateSubscriberMissesEarlierBroadcast(t *testing.T) {
	hub := startHub(t)

	early := hub.Subscribe()
	defer hub.Unsubscribe(early)

	hub.Broadcast([]byte(`{"id":1}`))
	receiveFrame(t, early)

	late := hub.Subscribe()
	defer hub.Unsubscribe(late)

	select {
	case message := <-late.Messages():
		t.Fatalf("late subscriber received pre-connection frame: %s", message)
	case <-time.After(100 * time.Millisecond):
	}

	hub.Broadcast([]byte(`{"id":2}`))
	assert.JSONEq(t, `{"id":2}`, string(receiveFrame(t, late)))
}

func TestHubUnsubscribeReleasesSlot(t *testing.T) {
	hub := startHub(t)

	sub := hub.Subscribe()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unsubscribe(sub)
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, time.Second, 10*time.Millisecond)

	// the hub closes the channel on unsubscribe
	_, open := <-sub.Messages()
	assert.False(t, open)
}

func TestHubEvictsStalledSubscriber(t *testing.T) {
	hub := startHub(t)

	stalled := hub.Subscribe()
	healthy := hub.Subscribe()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 2 }, time.Second, 10*time.Millisecond)

	// never read from stalled: once its buffer is full it must be evicted
	// without blocking the broadcast path
	for i := 0; i < subscriberBuffer+8; i++ {
		hub.Broadcast([]byte(`{"seq":1}`))
		receiveFrame(t, healthy)
	}

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	// drain the stalled subscriber: buffered frames then a closed channel
	received := 0
	for range stalled.Messages() {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)

	// the healthy subscriber keeps receiving
	hub.Broadcast([]byte(`{"seq":2}`))
	assert.JSONEq(t, `{"seq":2}`, string(receiveFrame(t, healthy)))
}

func TestHubShutdownClosesSubscribers(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	sub := hub.Subscribe()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop on context cancel")
	}

	_, open := <-sub.Messages()
	assert.False(t, open)
}

func TestHubSubscribeAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	sub := hub.Subscribe()
	cancel()
	<-done

	// a deferred Unsubscribe in a stream handler must return even though
	// nothing drains the hub's channels anymore
	returned := make(chan struct{})
	go func() {
		hub.Unsubscribe(sub)
		late := hub.Subscribe()
		_, open := <-late.Messages()
		assert.False(t, open)
		hub.Unsubscribe(late)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("subscribe/unsubscribe blocked after hub shutdown")
	}
}
