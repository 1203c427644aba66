package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"example.com/expense-tracker/backend/internal/auth"
	"example.com/expense-tracker/backend/internal/notifications"
)

const defaultKeepAlive = 25 * time.Second

type NotificationHandler struct {
	Hub       *notifications.Hub
	KeepAlive time.Duration
}

// NewNotificationHandler создает SSE-обработчик уведомлений.
func NewNotificationHandler(hub *notifications.Hub) *NotificationHandler {
	return &NotificationHandler{Hub: hub, KeepAlive: defaultKeepAlive}
}

func (h *NotificationHandler) keepAliveInterval() time.Duration {
	if h.KeepAlive <= 0 {
		return defaultKeepAlive
	}
	return h.KeepAlive
}

// Stream открывает SSE-поток событий о расходах пользователя. Между событиями
// раз в KeepAlive пишется комментарий keep-alive.
func (h *NotificationHandler) Stream(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return serverError(c)
	}

	ch, unsubscribe := h.Hub.Subscribe(userID)
	defer unsubscribe()

	_ = writeSSE(c, notifications.Event{
		Type:      notifications.EventConnected,
		Timestamp: time.Now().UTC(),
		Data:      map[string]string{"user_id": userID.String()},
	})
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAliveInterval())
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-keepAlive.C:
			if _, err := c.Response().Write([]byte(": keep-alive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if err := writeSSE(c, event); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}

func writeSSE(c echo.Context, event notifications.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := c.Response().Write([]byte("event: " + event.Type + "\n")); err != nil {
		return err
	}
	if _, err := c.Response().Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}

	return nil
}
