package mail

import (
	"encoding/json"
	"time"
)

const KindPasswordReset = "password_reset"

// PasswordReset описывает письмо со ссылкой для сброса пароля. Само письмо
// отправляет отдельный воркер, который читает очередь.
type PasswordReset struct {
	Kind      string    `json:"kind"`
	Email     string    `json:"email"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPasswordReset создает сообщение о сбросе пароля.
func NewPasswordReset(email, link string, expiresAt time.Time) PasswordReset {
	return PasswordReset{
		Kind:      KindPasswordReset,
		Email:     email,
		Link:      link,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}
}

func (m PasswordReset) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PasswordResetFromJSON разбирает сообщение из очереди; им пользуется воркер
// рассылки, который читает очередь вне этого сервиса.
func PasswordResetFromJSON(data []byte) (PasswordReset, error) {
	var msg PasswordReset
	if err := json.Unmarshal(data, &msg); err != nil {
		return PasswordReset{}, err
	}
	return msg, nil
}
