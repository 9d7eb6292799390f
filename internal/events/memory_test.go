package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) *Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		require.True(t, ok, "subscription channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func requireNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryPubSub_DeliversToSubscriber(t *testing.T) {
	bus := NewMemoryPubSub()
	defer bus.Close()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, RoomTopic("r1"))
	require.NoError(t, err)
	defer sub.Close()

	err = bus.Publish(ctx, RoomTopic("r1"), NewEvent(TypeParticipantJoin, "r1", "p1", "Alice"))
	require.NoError(t, err)

	ev := receive(t, sub)
	require.Equal(t, TypeParticipantJoin, ev.Type)
	require.Equal(t, "r1", ev.RoomID)
	require.Equal(t, "p1", ev.ParticipantID)
	require.Equal(t, "Alice", ev.ParticipantName)
	require.WithinDuration(t, time.Now(), ev.Timestamp, time.Second)
}

func TestMemoryPubSub_TopicsAreIsolated(t *testing.T) {
	bus := NewMemoryPubSub()
	defer bus.Close()
	ctx := context.Background()

	subR1, err := bus.Subscribe(ctx, RoomTopic("r1"))
	require.NoError(t, err)
	defer subR1.Close()

	subRooms, err := bus.Subscribe(ctx, TopicRooms)
	require.NoError(t, err)
	defer subRooms.Close()

	require.NoError(t, bus.Publish(ctx, TopicRooms, NewEvent(TypeRoomCreated, "r2", "p1", "Bob")))

	ev := receive(t, subRooms)
	require.Equal(t, TypeRoomCreated, ev.Type)
	requireNoEvent(t, subR1)
}

func TestMemoryPubSub_NoReplayForLateSubscribers(t *testing.T) {
	bus := NewMemoryPubSub()
	defer bus.Close()
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, TopicRooms, NewEvent(TypeRoomCreated, "r1", "p1", "Alice")))

	sub, err := bus.Subscribe(ctx, TopicRooms)
	require.NoError(t, err)
	defer sub.Close()

	requireNoEvent(t, sub)
}

func TestMemoryPubSub_CloseStopsDelivery(t *testing.T) {
	bus := NewMemoryPubSub()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TopicRooms)
	require.NoError(t, err)

	sub.Close()
	// Double close is safe.
	sub.Close()

	require.NoError(t, bus.Publish(ctx, TopicRooms, NewEvent(TypeRoomCreated, "r1", "p1", "Alice")))

	_, ok := <-sub.C
	require.False(t, ok, "channel should be closed after unsubscribe")
}

func TestMemoryPubSub_SlowSubscriberNeverBlocksPublish(t *testing.T) {
	bus := NewMemoryPubSub()
	defer bus.Close()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TopicRooms)
	require.NoError(t, err)
	defer sub.Close()

	// Nobody drains sub: publishing far past the buffer size must not
	// block, surplus events are dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = bus.Publish(ctx, TopicRooms, NewEvent(TypeRoomCreated, "r1", "p1", "Alice"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.Len(t, sub.C, subscriberBuffer)
}

func TestMemoryPubSub_BusCloseClosesSubscriptions(t *testing.T) {
	bus := NewMemoryPubSub()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, TopicRooms)
	require.NoError(t, err)

	require.NoError(t, bus.Close())

	_, ok := <-sub.C
	require.False(t, ok)
}

func TestRoomTopic(t *testing.T) {
	require.Equal(t, "room:abc", RoomTopic("abc"))
}
