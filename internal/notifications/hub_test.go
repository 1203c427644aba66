package notifications

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestHubPublishSubscribe проверяет доставку событий подписчику.
func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	hub.Publish(userID, Event{Type: EventExpenseCreated})

	select {
	case event := <-ch:
		if event.Type != EventExpenseCreated {
			t.Fatalf("expected event type %s, got %s", EventExpenseCreated, event.Type)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("expected timestamp to be set")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected event to be delivered")
	}
}

// TestHubUnsubscribe проверяет закрытие канала и повторную отписку.
func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	unsubscribe()
	unsubscribe()

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed")
	}
	if got := hub.Subscribers(userID); got != 0 {
		t.Fatalf("expected no subscribers, got %d", got)
	}
}

// TestHubIsolatesUsers проверяет, что события не уходят другим пользователям.
func TestHubIsolatesUsers(t *testing.T) {
	hub := NewHub()
	owner := uuid.New()
	other := uuid.New()

	ch, unsubscribe := hub.Subscribe(other)
	defer unsubscribe()

	hub.Publish(owner, Event{Type: EventExpenseDeleted})

	select {
	case event := <-ch:
		t.Fatalf("unexpected event %s", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestHubDropsWhenBufferFull проверяет, что публикация не блокируется.
func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	ch, unsubscribe := hub.Subscribe(userID)
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(userID, Event{Type: EventIncomeUpdated})
	}

	if got := len(ch); got != subscriberBuffer {
		t.Fatalf("expected %d buffered events, got %d", subscriberBuffer, got)
	}
}
