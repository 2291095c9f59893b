package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"speedbet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDelivery tests that a subscribed handler receives the emitted event
func TestEventDelivery(t *testing.T) {
	bus := NewBus()

	received := make(chan MatchFoundEvent, 1)
	bus.Subscribe(EventTypeMatchFound, func(ctx context.Context, event Event) {
		if e, ok := event.(MatchFoundEvent); ok {
			received <- e
		} else {
			t.Errorf("Expected MatchFoundEvent, got %T", event)
		}
	})

	bus.Emit(context.Background(), MatchFoundEvent{Duel: &models.Duel{ID: "7"}})

	select {
	case e := <-received:
		assert.Equal(t, models.ID("7"), e.Duel.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestBatchFlushOrder tests that a batch emits nothing until flushed, then everything
func TestBatchFlushOrder(t *testing.T) {
	bus := NewBus()
	batch := NewBatch(bus)

	var (
		mu  sync.Mutex
		got []EventType
		wg  sync.WaitGroup
	)
	record := func(ctx context.Context, event Event) {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		got = append(got, event.Type())
	}
	bus.SubscribeAll(record, EventTypeQueueLeft, EventTypeQueueJoined)

	batch.Publish(QueueJoinedEvent{Asset: "BTC"})
	batch.Publish(QueueLeftEvent{WasQueued: true})

	mu.Lock()
	assert.Empty(t, got)
	mu.Unlock()

	wg.Add(2)
	batch.Flush(context.Background())
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []EventType{EventTypeQueueJoined, EventTypeQueueLeft}, got)
}

// TestHandlerPanicIsRecovered tests that a panicking handler does not affect others
func TestHandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeDuelCleared, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeDuelCleared, func(ctx context.Context, event Event) {
		close(done)
	})

	require.NotPanics(t, func() {
		bus.Emit(context.Background(), DuelClearedEvent{DuelID: "1"})
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Second handler was not called")
	}
}

func TestNilBusBatch(t *testing.T) {
	t.Parallel()

	batch := NewBatch(nil)
	batch.Publish(SessionResetEvent{})
	assert.NotPanics(t, func() { batch.Flush(context.Background()) })
}
