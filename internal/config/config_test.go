package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// TestParseCSVEnv проверяет разбор списка email из ENV.
func TestParseCSVEnv(t *testing.T) {
	t.Setenv("ADMIN_EMAILS", " Admin@example.com, ,USER@Example.com ")

	got := parseCSVEnv("ADMIN_EMAILS")
	want := []string{"admin@example.com", "user@example.com"}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

// TestParseCSVEnvMissing проверяет поведение при отсутствии переменной.
func TestParseCSVEnvMissing(t *testing.T) {
	got := parseCSVEnv("MISSING_ENV")
	if got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

// TestParseBoolEnv проверяет разбор булевых флагов.
func TestParseBoolEnv(t *testing.T) {
	t.Setenv("DB_AUTO_MIGRATE", "false")

	got, err := parseBoolEnv("DB_AUTO_MIGRATE", true)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got {
		t.Fatal("expected false")
	}

	t.Setenv("DB_AUTO_MIGRATE", "maybe")
	if _, err := parseBoolEnv("DB_AUTO_MIGRATE", true); err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

// TestMigrationURL проверяет схему драйвера миграций.
func TestMigrationURL(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "expenses", SSLMode: "disable"}

	got := cfg.MigrationURL()
	if !strings.HasPrefix(got, "pgx5://u:p@db:5432/expenses") {
		t.Fatalf("unexpected migration url: %s", got)
	}
	if !strings.HasSuffix(got, "sslmode=disable") {
		t.Fatalf("expected sslmode in %s", got)
	}
}

// TestLoadRequiresSecret проверяет обязательность JWT_SECRET.
func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET error, got %v", err)
	}
}

// TestLoadDefaults проверяет значения по умолчанию.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_RESET_TTL", "10m")
	t.Setenv("RESET_LINK_BASE", "https://example.com/reset/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Auth.ResetTokenTTL != 10*time.Minute {
		t.Fatalf("expected reset ttl 10m, got %v", cfg.Auth.ResetTokenTTL)
	}
	if cfg.Mail.ResetLinkBase != "https://example.com/reset" {
		t.Fatalf("expected trimmed reset link base, got %s", cfg.Mail.ResetLinkBase)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected access ttl 15m, got %v", cfg.Auth.AccessTokenTTL)
	}
}
