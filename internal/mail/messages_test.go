package mail

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// TestPasswordResetJSON проверяет формат сообщения в очереди.
func TestPasswordResetJSON(t *testing.T) {
	expires := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := NewPasswordReset("user@example.com", "http://localhost/reset/1/token", expires)

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(string(body), `"kind":"password_reset"`) {
		t.Fatalf("expected kind in payload: %s", body)
	}

	decoded, err := PasswordResetFromJSON(body)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if decoded.Email != msg.Email || decoded.Link != msg.Link || !decoded.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected message: %+v", decoded)
	}

	if _, err := PasswordResetFromJSON([]byte("{")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

// TestLogSender проверяет запасной отправитель без брокера.
func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	msg := NewPasswordReset("user@example.com", "http://localhost/reset/1/token", time.Now().Add(time.Minute))
	if err := sender.SendPasswordReset(context.Background(), msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(buf.String(), "http://localhost/reset/1/token") {
		t.Fatalf("expected link in log output: %s", buf.String())
	}
}
