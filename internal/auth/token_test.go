package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestManager() *TokenManager {
	return NewTokenManager("test-secret", "expense-tracker", time.Minute, time.Hour, 5*time.Minute)
}

// TestTokenPairRoundTrip проверяет выпуск и разбор access/refresh токенов.
func TestTokenPairRoundTrip(t *testing.T) {
	manager := newTestManager()
	userID := uuid.New()
	refreshID := uuid.New()

	pair, err := manager.NewTokenPair(userID, refreshID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	claims, err := manager.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("expected valid access token, got %v", err)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}

	refreshClaims, err := manager.ParseRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("expected valid refresh token, got %v", err)
	}
	if refreshClaims.ID != refreshID.String() {
		t.Fatalf("expected token id %s, got %s", refreshID, refreshClaims.ID)
	}

	if _, err := manager.ParseAccessToken(pair.RefreshToken); err == nil {
		t.Fatal("expected type mismatch for refresh token used as access token")
	}
}

// TestResetTokenBoundToPassword проверяет, что смена пароля инвалидирует токен сброса.
func TestResetTokenBoundToPassword(t *testing.T) {
	manager := newTestManager()
	userID := uuid.New()

	token, expiresAt, err := manager.NewResetToken(userID, "user@example.com", "hash-v1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if time.Until(expiresAt) > 5*time.Minute {
		t.Fatalf("unexpected expiration %v", expiresAt)
	}

	claims, err := manager.ParseResetToken(token, "hash-v1")
	if err != nil {
		t.Fatalf("expected valid reset token, got %v", err)
	}
	if claims.Email != "user@example.com" || claims.Subject != userID.String() {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := manager.ParseResetToken(token, "hash-v2"); err == nil {
		t.Fatal("expected reset token to fail after password change")
	}

	if _, err := manager.ParseAccessToken(token); err == nil {
		t.Fatal("expected reset token to be rejected as access token")
	}
}

// TestHashPasswordTooLong проверяет ограничение bcrypt на длину пароля.
func TestHashPasswordTooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := ComparePassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to match, got %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}

// TestJWTMiddlewareStreamToken проверяет токен в query только для SSE-запросов.
func TestJWTMiddlewareStreamToken(t *testing.T) {
	manager := newTestManager()
	userID := uuid.New()
	pair, err := manager.NewTokenPair(userID, uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	e := echo.New()
	handler := JWTMiddleware(manager)(func(c echo.Context) error {
		got, ok := UserIDFromContext(c)
		if !ok || got != userID {
			t.Fatalf("expected user %s in context, got %s", userID, got)
		}
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/stream?access_token="+pair.AccessToken, nil)
	req.Header.Set(echo.HeaderAccept, "text/event-stream")
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/expenses?access_token="+pair.AccessToken, nil)
	rec = httptest.NewRecorder()
	err = handler(e.NewContext(req, rec))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token outside stream, got %v", err)
	}
}
