package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeReset   TokenType = "reset"
)

type Claims struct {
	TokenType TokenType `json:"typ"`
	Email     string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewTokenManager инициализирует менеджер JWT токенов.
func NewTokenManager(secret string, issuer string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}
}

// NewTokenPair создает пару access/refresh токенов для пользователя.
func (m *TokenManager) NewTokenPair(userID uuid.UUID, refreshTokenID uuid.UUID) (TokenPair, error) {
	accessToken, accessExp, err := m.newToken(userID, uuid.New(), TokenTypeAccess, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, refreshExp, err := m.newToken(userID, refreshTokenID, TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// ParseAccessToken валидирует access-токен и возвращает claims.
func (m *TokenManager) ParseAccessToken(tokenString string) (*Claims, error) {
	return m.parseToken(tokenString, TokenTypeAccess)
}

// ParseRefreshToken валидирует refresh-токен и возвращает claims.
func (m *TokenManager) ParseRefreshToken(tokenString string) (*Claims, error) {
	return m.parseToken(tokenString, TokenTypeRefresh)
}

// NewResetToken создает токен сброса пароля. Токен подписан секретом вместе с
// текущим хэшем пароля, поэтому после смены пароля он перестает быть валидным.
func (m *TokenManager) NewResetToken(userID uuid.UUID, email, passwordHash string) (string, time.Time, error) {
	return m.sign(m.resetSecret(passwordHash), userID, uuid.New(), email, TokenTypeReset, m.resetTTL)
}

// ParseResetToken валидирует токен сброса пароля для текущего хэша пароля.
func (m *TokenManager) ParseResetToken(tokenString, passwordHash string) (*Claims, error) {
	return m.parse(m.resetSecret(passwordHash), tokenString, TokenTypeReset)
}

func (m *TokenManager) resetSecret(passwordHash string) []byte {
	secret := make([]byte, 0, len(m.secret)+len(passwordHash))
	secret = append(secret, m.secret...)
	return append(secret, passwordHash...)
}

func (m *TokenManager) newToken(userID uuid.UUID, tokenID uuid.UUID, tokenType TokenType, ttl time.Duration) (string, time.Time, error) {
	return m.sign(m.secret, userID, tokenID, "", tokenType, ttl)
}

func (m *TokenManager) sign(secret []byte, userID uuid.UUID, tokenID uuid.UUID, email string, tokenType TokenType, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		TokenType: tokenType,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID.String(),
			ID:        tokenID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

func (m *TokenManager) parseToken(tokenString string, tokenType TokenType) (*Claims, error) {
	return m.parse(m.secret, tokenString, tokenType)
}

func (m *TokenManager) parse(secret []byte, tokenString string, tokenType TokenType) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}), jwt.WithIssuer(m.issuer))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("token is invalid")
	}

	if claims.TokenType != tokenType {
		return nil, errors.New("token type mismatch")
	}

	return claims, nil
}
