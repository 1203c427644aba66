package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type UserType string

const (
	UserTypeUser  UserType = "user"
	UserTypeAdmin UserType = "admin"
)

type User struct {
	ID           uuid.UUID           `json:"id"`
	Email        string              `json:"email"`
	PasswordHash string              `json:"-"`
	FirstName    string              `json:"first_name"`
	LastName     string              `json:"last_name"`
	UserType     UserType            `json:"user_type"`
	Income       decimal.NullDecimal `json:"income"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type Expense struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	SpentAt   time.Time       `json:"spent_at"`
	Time      string          `json:"time"`
	Month     string          `json:"month"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}
