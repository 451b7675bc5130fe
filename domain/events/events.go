package events

import (
	"context"
	"sync"

	"betledger/domain/entities"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange EventType = "balance_change"
	EventTypeBetAccepted   EventType = "bet_accepted"
	EventTypeBetResolved   EventType = "bet_resolved"
	EventTypeBetDisputed   EventType = "bet_disputed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	WalletID        int64
	TransactionType entities.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// BetAcceptedEvent represents a bet moving into escrow-locked state
type BetAcceptedEvent struct {
	BetID      int64
	CreatorID  int64
	OpponentID int64
	Amount     int64
}

func (e BetAcceptedEvent) Type() EventType {
	return EventTypeBetAccepted
}

// BetResolvedEvent represents a bet that was settled
type BetResolvedEvent struct {
	BetID  int64
	Result entities.BetResult
	Amount int64
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// BetDisputedEvent represents conflicting proofs requiring manual resolution
type BetDisputedEvent struct {
	BetID      int64
	CreatorID  int64
	OpponentID int64
}

func (e BetDisputedEvent) Type() EventType {
	return EventTypeBetDisputed
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

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Handlers run asynchronously so a slow subscriber never blocks settlement.
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

// TransactionalBus stashes events published during a unit of work and flushes
// them to the real bus only after the database transaction commits. Rollback
// discards them, so subscribers never observe a settlement that did not happen.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional wrapper around a bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish buffers an event until the owning transaction commits
func (b *TransactionalBus) Publish(e Event) error {
	b.pending = append(b.pending, e)
	return nil
}

// Flush emits all pending events. Called after a successful commit.
func (b *TransactionalBus) Flush() {
	// Events are emitted on a background context: the transaction context may
	// already be done, and event delivery is independent of its lifecycle.
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops all pending events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
