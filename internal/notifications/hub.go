package notifications

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventConnected      = "connected"
	EventExpenseCreated = "expense_created"
	EventExpenseDeleted = "expense_deleted"
	EventIncomeUpdated  = "income_updated"
)

const subscriberBuffer = 10

type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Hub рассылает события расходов подписчикам дашборда конкретного пользователя.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[chan Event]struct{}
}

// NewHub создает хаб для SSE-подписок.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[chan Event]struct{}),
	}
}

// Subscribe подписывает пользователя на события и возвращает канал и функцию отписки.
// Повторный вызов функции отписки безопасен.
func (h *Hub) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	userSubs, ok := h.subscribers[userID]
	if !ok {
		userSubs = make(map[chan Event]struct{})
		h.subscribers[userID] = userSubs
	}
	userSubs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if subs, exists := h.subscribers[userID]; exists {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(h.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Publish отправляет событие всем подписчикам пользователя. Медленные
// подписчики с заполненным буфером пропускают событие.
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	event.Timestamp = time.Now().UTC()

	h.mu.RLock()
	defer h.mu.RUnlock()

	subs, ok := h.subscribers[userID]
	if !ok {
		return
	}

	for ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribers возвращает число активных подписок пользователя.
func (h *Hub) Subscribers(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[userID])
}
