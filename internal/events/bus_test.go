package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	log := NewEventLog(setupTestDB(t))
	bus := NewBus(log, nil)
	defer bus.Close()

	ch := bus.Subscribe(10, EventRequestCreated)

	err := bus.Publish(context.Background(), created("req-1", 550))
	require.NoError(t, err)

	select {
	case received := <-ch:
		assert.Equal(t, EventRequestCreated, received.EventType())
		re, ok := received.(RequestEvent)
		require.True(t, ok)
		assert.Equal(t, "req-1", re.Info().RequestID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	persisted, err := log.ForRequest(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

func TestBus_SubscribeMultipleTypes(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe(10, EventRequestApproved, EventRequestDenied)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, created("req-1", 1)))
	require.NoError(t, bus.Publish(ctx, &RequestDenied{BaseEvent: NewBaseEvent(EventRequestDenied, EntityRequest, 1)}))
	require.NoError(t, bus.Publish(ctx, &RequestApproved{BaseEvent: NewBaseEvent(EventRequestApproved, EntityRequest, 1)}))

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case e := <-ch:
			got = append(got, e.EventType())
		case <-timeout:
			t.Fatalf("timeout after %v", got)
		}
	}
	assert.Equal(t, []string{EventRequestDenied, EventRequestApproved}, got)
}

func TestBus_SubscribeAll(t *testing.T) {
	bus := NewBus(NewEventLog(setupTestDB(t)), nil)
	defer bus.Close()

	ch := bus.SubscribeAll(10)

	e1 := &testEvent{BaseEvent: NewBaseEvent("test.first", "test", 1), Message: "first"}
	e2 := &testEvent{BaseEvent: NewBaseEvent("test.second", "test", 2), Message: "second"}

	require.NoError(t, bus.Publish(context.Background(), e1))
	require.NoError(t, bus.Publish(context.Background(), e2))

	received := make([]Event, 0, 2)
	timeout := time.After(time.Second)
	for i := 0; i < 2; i++ {
		select {
		case e := <-ch:
			received = append(received, e)
		case <-timeout:
			t.Fatalf("timeout waiting for event %d", i+1)
		}
	}

	assert.Len(t, received, 2)
}

func TestBus_FullSubscriberDrops(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe(1, EventRequestCreated)
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, created("a", 1)))
	require.NoError(t, bus.Publish(ctx, created("b", 1)), "publish never blocks")

	e := <-ch
	assert.Equal(t, "a", e.(RequestEvent).Info().RequestID)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %v", extra)
	default:
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.Subscribe(10, "test.event")
	bus.Unsubscribe(ch)

	e := &testEvent{BaseEvent: NewBaseEvent("test.event", "test", 1), Message: "hello"}
	require.NoError(t, bus.Publish(context.Background(), e))

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	bus := NewBus(nil, nil)
	ch := bus.Subscribe(10, EventRequestCreated, EventRequestFailed)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")
	require.NoError(t, bus.Publish(context.Background(), created("a", 1)))

	_, ok := <-ch
	assert.False(t, ok)
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Close()

	ch := bus.SubscribeAll(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := &testEvent{BaseEvent: NewBaseEvent("test.concurrent", "test", int64(n)), Message: "concurrent"}
			_ = bus.Publish(context.Background(), e)
		}(i)
	}

	wg.Wait()

	count := 0
	timeout := time.After(time.Second)
loop:
	for {
		select {
		case <-ch:
			count++
			if count == 10 {
				break loop
			}
		case <-timeout:
			break loop
		}
	}

	assert.Equal(t, 10, count)
}
