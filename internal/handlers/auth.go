package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/expense-tracker/backend/internal/auth"
	"example.com/expense-tracker/backend/internal/mail"
	"example.com/expense-tracker/backend/internal/models"
	"example.com/expense-tracker/backend/internal/notifications"
	"example.com/expense-tracker/backend/internal/repository"
)

// UserStore описывает операции с пользователями, нужные обработчику авторизации.
type UserStore interface {
	Create(ctx context.Context, input repository.NewUser) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
	UpdateIncome(ctx context.Context, id uuid.UUID, income decimal.NullDecimal) (models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type AuthHandler struct {
	Users         UserStore
	Tokens        *repository.RefreshTokenRepository
	TokenManager  *auth.TokenManager
	Mailer        mail.Sender
	Notifier      *notifications.Hub
	ResetLinkBase string
	AdminEmails   map[string]struct{}
}

// NewAuthHandler создает обработчик авторизации.
func NewAuthHandler(users UserStore, tokens *repository.RefreshTokenRepository, manager *auth.TokenManager, mailer mail.Sender, notifier *notifications.Hub, resetLinkBase string, adminEmails []string) *AuthHandler {
	return &AuthHandler{
		Users:         users,
		Tokens:        tokens,
		TokenManager:  manager,
		Mailer:        mailer,
		Notifier:      notifier,
		ResetLinkBase: resetLinkBase,
		AdminEmails:   emailSet(adminEmails),
	}
}

type RegisterRequest struct {
	FirstName string           `json:"first_name" validate:"required,max=100"`
	LastName  string           `json:"last_name" validate:"omitempty,max=100"`
	Email     string           `json:"email" validate:"required,email"`
	Password  string           `json:"password" validate:"required,min=8,max=72"`
	UserType  string           `json:"user_type" validate:"omitempty,oneof=user admin"`
	Income    *decimal.Decimal `json:"income"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type IncomeRequest struct {
	Income *decimal.Decimal `json:"income"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AuthUser struct {
	ID        uuid.UUID           `json:"id"`
	Email     string              `json:"email"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	UserType  models.UserType     `json:"user_type"`
	Income    decimal.NullDecimal `json:"income"`
}

type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

type UserResponse struct {
	User AuthUser `json:"user"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

// Register регистрирует пользователя и выдает токены.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	income, err := normalizeIncome(req.Income)
	if err != nil {
		return badRequest(c, err.Error())
	}

	email := normalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return badRequest(c, "password is too long")
		}
		return serverError(c)
	}

	userType := resolveUserType(req.UserType, email, h.AdminEmails)

	user, err := h.Users.Create(c.Request().Context(), repository.NewUser{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		UserType:     userType,
		Income:       income,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "user already exists")
		}
		return serverError(c)
	}

	response, err := h.issueTokens(c.Request().Context(), user)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, response)
}

// Login выполняет вход и выдает токены.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	email := normalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)

	user, err := h.Users.GetByEmail(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	if err = auth.ComparePassword(user.PasswordHash, password); err != nil {
		return unauthorized(c)
	}

	response, err := h.issueTokens(c.Request().Context(), user)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, response)
}

// Refresh обновляет токены по refresh-токену.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	claims, err := h.TokenManager.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return unauthorized(c)
	}

	refreshID, err := uuid.Parse(claims.ID)
	if err != nil {
		return unauthorized(c)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return unauthorized(c)
	}

	storedToken, err := h.Tokens.GetByID(c.Request().Context(), refreshID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	if storedToken.RevokedAt != nil || time.Now().After(storedToken.ExpiresAt) {
		return unauthorized(c)
	}

	if storedToken.UserID != userID || !auth.CompareTokenHash(storedToken.TokenHash, req.RefreshToken) {
		return unauthorized(c)
	}

	user, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	newRefreshID := uuid.New()
	tokenPair, err := h.TokenManager.NewTokenPair(userID, newRefreshID)
	if err != nil {
		return serverError(c)
	}

	newToken := models.RefreshToken{
		ID:        newRefreshID,
		UserID:    userID,
		TokenHash: auth.HashToken(tokenPair.RefreshToken),
		ExpiresAt: tokenPair.RefreshExpiresAt,
	}

	if err := h.Tokens.Rotate(c.Request().Context(), storedToken.ID, newToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorized(c)
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		User:         toAuthUser(user),
	})
}

// Logout отзывает refresh-токен.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	claims, err := h.TokenManager.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		return unauthorized(c)
	}

	refreshID, err := uuid.Parse(claims.ID)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.Tokens.Revoke(c.Request().Context(), refreshID, nil); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// Me возвращает данные текущего пользователя.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, UserResponse{User: toAuthUser(user)})
}

// UpdateIncome обновляет месячный доход текущего пользователя.
func (h *AuthHandler) UpdateIncome(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req IncomeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}

	income, err := normalizeIncome(req.Income)
	if err != nil {
		return badRequest(c, err.Error())
	}

	user, err := h.Users.UpdateIncome(c.Request().Context(), userID, income)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	if h.Notifier != nil {
		h.Notifier.Publish(userID, notifications.Event{
			Type: notifications.EventIncomeUpdated,
			Data: map[string]interface{}{"income": user.Income},
		})
	}

	return c.JSON(http.StatusOK, UserResponse{User: toAuthUser(user)})
}

// ForgotPassword выпускает токен сброса пароля и ставит письмо в очередь.
// Ответ не зависит от того, существует ли пользователь.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	ctx := c.Request().Context()
	accepted := StatusResponse{Status: "accepted"}

	user, err := h.Users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusAccepted, accepted)
		}
		return serverError(c)
	}

	token, expiresAt, err := h.TokenManager.NewResetToken(user.ID, user.Email, user.PasswordHash)
	if err != nil {
		return serverError(c)
	}

	msg := mail.NewPasswordReset(user.Email, buildResetLink(h.ResetLinkBase, user.ID, token), expiresAt)
	if err := h.Mailer.SendPasswordReset(ctx, msg); err != nil {
		// ответ тот же, что и для неизвестного email
		slog.ErrorContext(ctx, "failed to queue password reset mail",
			slog.String("user_id", user.ID.String()),
			slog.String("error", err.Error()),
		)
	}

	return c.JSON(http.StatusAccepted, accepted)
}

// ResetPassword проверяет токен сброса и устанавливает новый пароль.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	var req ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	ctx := c.Request().Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	claims, err := h.TokenManager.ParseResetToken(c.Param("token"), user.PasswordHash)
	if err != nil || claims.Subject != user.ID.String() {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "reset link is invalid or expired"})
	}

	passwordHash, err := auth.HashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return badRequest(c, "password is too long")
		}
		return serverError(c)
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, StatusResponse{Status: "verified"})
}

func (h *AuthHandler) issueTokens(ctx context.Context, user models.User) (AuthResponse, error) {
	refreshID := uuid.New()
	pair, err := h.TokenManager.NewTokenPair(user.ID, refreshID)
	if err != nil {
		return AuthResponse{}, err
	}

	refreshToken := models.RefreshToken{
		ID:        refreshID,
		UserID:    user.ID,
		TokenHash: auth.HashToken(pair.RefreshToken),
		ExpiresAt: pair.RefreshExpiresAt,
	}

	if err := h.Tokens.Create(ctx, refreshToken); err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         toAuthUser(user),
	}, nil
}

func toAuthUser(user models.User) AuthUser {
	return AuthUser{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		UserType:  user.UserType,
		Income:    user.Income,
	}
}

// resolveUserType выдает роль администратора только адресам из ADMIN_EMAILS.
func resolveUserType(requested, email string, adminEmails map[string]struct{}) models.UserType {
	if models.UserType(requested) != models.UserTypeAdmin {
		return models.UserTypeUser
	}
	if _, ok := adminEmails[email]; !ok {
		return models.UserTypeUser
	}
	return models.UserTypeAdmin
}

func emailSet(emails []string) map[string]struct{} {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		normalized := normalizeEmail(email)
		if normalized == "" {
			continue
		}
		set[normalized] = struct{}{}
	}
	return set
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeIncome(income *decimal.Decimal) (decimal.NullDecimal, error) {
	if income == nil {
		return decimal.NullDecimal{}, nil
	}

	if income.IsNegative() {
		return decimal.NullDecimal{}, errors.New("income must not be negative")
	}

	return decimal.NewNullDecimal(income.Round(2)), nil
}

func buildResetLink(base string, userID uuid.UUID, token string) string {
	return strings.TrimRight(base, "/") + "/" + userID.String() + "/" + url.PathEscape(token)
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, map[string]string{"error": message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": "access denied"})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
