package events

import (
	"context"
	"sync"

	"speedbet/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeQueueJoined         EventType = "queue_joined"
	EventTypeQueueLeft           EventType = "queue_left"
	EventTypeMatchFound          EventType = "match_found"
	EventTypePredictionSubmitted EventType = "prediction_submitted"
	EventTypeDuelResolved        EventType = "duel_resolved"
	EventTypeDuelCleared         EventType = "duel_cleared"
	EventTypeSessionReset        EventType = "session_reset"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// QueueJoinedEvent represents the session entering the matchmaking queue
type QueueJoinedEvent struct {
	Asset     string
	BetAmount decimal.Decimal
	TxHash    string
}

func (e QueueJoinedEvent) Type() EventType {
	return EventTypeQueueJoined
}

// QueueLeftEvent represents the session leaving the queue
type QueueLeftEvent struct {
	WasQueued bool
}

func (e QueueLeftEvent) Type() EventType {
	return EventTypeQueueLeft
}

// MatchFoundEvent represents a transition into a duel
type MatchFoundEvent struct {
	Duel *models.Duel
}

func (e MatchFoundEvent) Type() EventType {
	return EventTypeMatchFound
}

// PredictionSubmittedEvent represents a prediction sent for the current duel
type PredictionSubmittedEvent struct {
	DuelID    models.ID
	Direction models.Direction
}

func (e PredictionSubmittedEvent) Type() EventType {
	return EventTypePredictionSubmitted
}

// DuelResolvedEvent represents the current duel being settled
type DuelResolvedEvent struct {
	Duel *models.Duel
}

func (e DuelResolvedEvent) Type() EventType {
	return EventTypeDuelResolved
}

// DuelClearedEvent represents the end of the result display window
type DuelClearedEvent struct {
	DuelID models.ID
}

func (e DuelClearedEvent) Type() EventType {
	return EventTypeDuelCleared
}

// SessionResetEvent represents all session state being cleared
type SessionResetEvent struct{}

func (e SessionResetEvent) Type() EventType {
	return EventTypeSessionReset
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for several event types
func (b *Bus) SubscribeAll(handler Handler, eventTypes ...EventType) {
	for _, eventType := range eventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Call handlers asynchronously to avoid blocking
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Batch holds events raised while a lock is held and emits them once it is released
type Batch struct {
	real    *Bus
	pending []Event // stashed until Flush
}

// NewBatch creates a batch that flushes to real. A nil bus discards everything.
func NewBatch(real *Bus) *Batch {
	return &Batch{real: real}
}

func (b *Batch) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events in publish order
func (b *Batch) Flush(ctx context.Context) {
	if b.real != nil {
		for _, ev := range b.pending {
			b.real.Emit(ctx, ev)
		}
	}
	b.pending = nil
}
