package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"betledger/domain/entities"

	"github.com/stretchr/testify/assert"
)

// TestTransactionalBusFlush tests the complete event flow from TransactionalBus to main Bus
func TestTransactionalBusFlush(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			select {
			case eventReceived <- balanceEvent:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		UserID:          123456,
		WalletID:        7,
		TransactionType: entities.TransactionTypeBetWin,
		ChangeAmount:    500,
	}

	// Publish buffers; nothing is delivered until the commit-side flush
	err := transactionalBus.Publish(testEvent)
	assert.NoError(t, err)

	transactionalBus.Flush()

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.UserID, receivedEvent.UserID)
		assert.Equal(t, testEvent.WalletID, receivedEvent.WalletID)
		assert.Equal(t, testEvent.TransactionType, receivedEvent.TransactionType)
		assert.Equal(t, testEvent.ChangeAmount, receivedEvent.ChangeAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestTransactionalBusFlushMultiple tests delivering multiple buffered events
func TestTransactionalBusFlushMultiple(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan BalanceChangeEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			eventsReceived <- balanceEvent
		}
	})

	published := []BalanceChangeEvent{
		{UserID: 1, WalletID: 10, TransactionType: entities.TransactionTypeBetWin, ChangeAmount: 100},
		{UserID: 2, WalletID: 20, TransactionType: entities.TransactionTypeBetLoss, ChangeAmount: -200},
		{UserID: 3, WalletID: 30, TransactionType: entities.TransactionTypeRefund, ChangeAmount: 300},
	}

	for _, event := range published {
		transactionalBus.Publish(event)
	}

	transactionalBus.Flush()

	wg.Wait()

	// Handlers run on goroutines, so collect without assuming order
	userIDs := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		select {
		case event := <-eventsReceived:
			userIDs[event.UserID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("Only received %d out of 3 events", len(userIDs))
		}
	}

	assert.True(t, userIDs[1])
	assert.True(t, userIDs[2])
	assert.True(t, userIDs[3])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BalanceChangeEvent{
		UserID:       123456,
		WalletID:     7,
		ChangeAmount: 500,
	})

	// Discard instead of flush, as a rolled back unit of work would
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestBusIsolatesEventTypes verifies handlers only see their subscribed type
func TestBusIsolatesEventTypes(t *testing.T) {
	bus := NewBus()

	disputed := make(chan BetDisputedEvent, 1)
	bus.Subscribe(EventTypeBetDisputed, func(ctx context.Context, event Event) {
		if e, ok := event.(BetDisputedEvent); ok {
			disputed <- e
		}
	})

	resolvedSeen := make(chan bool, 1)
	bus.Subscribe(EventTypeBetResolved, func(ctx context.Context, event Event) {
		resolvedSeen <- true
	})

	bus.Emit(context.Background(), BetDisputedEvent{BetID: 9, CreatorID: 1, OpponentID: 2})

	select {
	case e := <-disputed:
		assert.Equal(t, int64(9), e.BetID)
	case <-time.After(2 * time.Second):
		t.Fatal("disputed handler never ran")
	}

	select {
	case <-resolvedSeen:
		t.Fatal("resolved handler ran for a disputed event")
	case <-time.After(100 * time.Millisecond):
	}
}
