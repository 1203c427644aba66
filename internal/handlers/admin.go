package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/expense-tracker/backend/internal/auth"
	"example.com/expense-tracker/backend/internal/models"
	"example.com/expense-tracker/backend/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	// maxPageNumber держит OFFSET в пределах int32 при любом limit.
	maxPageNumber = math.MaxInt32 / maxPageLimit
)

type AdminHandler struct {
	Repo *repository.AdminRepository
}

// NewAdminHandler создает обработчик админских эндпоинтов.
func NewAdminHandler(repo *repository.AdminRepository) *AdminHandler {
	return &AdminHandler{Repo: repo}
}

type AdminUserResponse struct {
	ID        uuid.UUID           `json:"id"`
	Email     string              `json:"email"`
	FirstName string              `json:"first_name"`
	LastName  string              `json:"last_name"`
	UserType  models.UserType     `json:"user_type"`
	Income    decimal.NullDecimal `json:"income"`
	CreatedAt string              `json:"created_at"`
	UpdatedAt string              `json:"updated_at"`
}

type AdminUsersResponse struct {
	Total     int                 `json:"total"`
	PageCount int                 `json:"page_count"`
	Next      *PageRef            `json:"next"`
	Prev      *PageRef            `json:"prev"`
	Users     []AdminUserResponse `json:"users"`
}

// PageRef указывает на соседнюю страницу выдачи.
type PageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Page описывает запрошенную страницу.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// ListUsers возвращает страницу пользователей для админки.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	page, err := parsePage(c.QueryParam("page"), c.QueryParam("limit"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	total, err := h.Repo.CountUsers(ctx)
	if err != nil {
		return serverError(c)
	}

	users, err := h.Repo.ListUsers(ctx, page.Limit, page.Offset())
	if err != nil {
		return serverError(c)
	}

	response := make([]AdminUserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, AdminUserResponse{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			UserType:  user.UserType,
			Income:    user.Income,
			CreatedAt: user.CreatedAt.Format(timestampLayout),
			UpdatedAt: user.UpdatedAt.Format(timestampLayout),
		})
	}

	result := paginate(total, page)
	result.Users = response

	return c.JSON(http.StatusOK, result)
}

// DeleteUser удаляет пользователя вместе с его расходами.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid user id")
	}

	if currentID, ok := auth.UserIDFromContext(c); ok && currentID == userID {
		return badRequest(c, "cannot delete yourself")
	}

	if err := h.Repo.DeleteUser(c.Request().Context(), userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

// AdminMiddleware пускает к админским роутам пользователей с ролью admin
// или с email из ADMIN_EMAILS.
func AdminMiddleware(users UserStore, emails []string) echo.MiddlewareFunc {
	allowed := emailSet(emails)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := auth.UserIDFromContext(c)
			if !ok {
				return unauthorized(c)
			}

			user, err := users.GetByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return forbidden(c)
				}
				return serverError(c)
			}

			if !isAdmin(user, allowed) {
				return forbidden(c)
			}

			return next(c)
		}
	}
}

func isAdmin(user models.User, allowed map[string]struct{}) bool {
	if user.UserType == models.UserTypeAdmin {
		return true
	}

	_, ok := allowed[normalizeEmail(user.Email)]
	return ok
}

func parsePage(rawPage, rawLimit string) (Page, error) {
	page := Page{Number: 1, Limit: defaultPageLimit}

	if raw := strings.TrimSpace(rawPage); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxPageNumber {
			return Page{}, errors.New("invalid page")
		}
		page.Number = parsed
	}

	if raw := strings.TrimSpace(rawLimit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return Page{}, errors.New("invalid limit")
		}
		if parsed > maxPageLimit {
			parsed = maxPageLimit
		}
		page.Limit = parsed
	}

	return page, nil
}

func paginate(total int, page Page) AdminUsersResponse {
	pageCount := 0
	if total > 0 {
		pageCount = (total + page.Limit - 1) / page.Limit
	}

	result := AdminUsersResponse{
		Total:     total,
		PageCount: pageCount,
	}

	if page.Number < pageCount {
		result.Next = &PageRef{Page: page.Number + 1, Limit: page.Limit}
	}
	if page.Number > 1 {
		prev := page.Number - 1
		if prev > pageCount && pageCount > 0 {
			prev = pageCount
		}
		result.Prev = &PageRef{Page: prev, Limit: page.Limit}
	}

	return result
}
