package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-service/internal/domain"
)

func TestAsyncDispatcherDeliversToSubscribers(t *testing.T) {
	dispatcher := NewAsyncDispatcher(8, zap.NewNop())

	var mu sync.Mutex
	var received []Event
	done := make(chan struct{})

	dispatcher.Subscribe(EventTicketCreated, func(_ context.Context, event Event) error {
		mu.Lock()
		received = append(received, event)
		if len(received) == 2 {
			close(done)
		}
		mu.Unlock()
		return nil
	})

	for i := 0; i < 2; i++ {
		require.NoError(t, dispatcher.Publish(context.Background(), Event{
			Type:   EventTicketCreated,
			Ticket: TicketRef{ID: "ticket-1", Status: domain.TicketStatusOpen},
		}))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events not delivered in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, received, 2)
	assert.Equal(t, "ticket-1", received[0].Ticket.ID)
}

func TestAsyncDispatcherCloseDrainsQueue(t *testing.T) {
	dispatcher := NewAsyncDispatcher(16, zap.NewNop())

	var mu sync.Mutex
	var count int
	dispatcher.Subscribe(EventTicketCommented, func(context.Context, Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 10; i++ {
		require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCommented}))
	}

	closer, ok := dispatcher.(interface{ Close() })
	require.True(t, ok)
	closer.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestAsyncDispatcherIgnoresUnsubscribedTypes(t *testing.T) {
	dispatcher := NewAsyncDispatcher(8, zap.NewNop())

	delivered := make(chan Event, 1)
	dispatcher.Subscribe(EventTicketAssigned, func(_ context.Context, event Event) error {
		delivered <- event
		return nil
	})

	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketCreated}))
	require.NoError(t, dispatcher.Publish(context.Background(), Event{Type: EventTicketAssigned, Ticket: TicketRef{ID: "t2"}}))

	select {
	case event := <-delivered:
		assert.Equal(t, "t2", event.Ticket.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("assigned event not delivered")
	}
	assert.Empty(t, delivered)
}
