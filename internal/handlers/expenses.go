package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"example.com/expense-tracker/backend/internal/auth"
	"example.com/expense-tracker/backend/internal/models"
	"example.com/expense-tracker/backend/internal/notifications"
	"example.com/expense-tracker/backend/internal/repository"
	"example.com/expense-tracker/backend/internal/tips"
)

const (
	dateLayout      = time.DateOnly
	clockLayout     = "15:04"
	timestampLayout = time.RFC3339
)

type ExpenseHandler struct {
	Expenses *repository.ExpenseRepository
	Notifier *notifications.Hub
	Now      func() time.Time
}

// NewExpenseHandler создает обработчик расходов.
func NewExpenseHandler(expenses *repository.ExpenseRepository, notifier *notifications.Hub) *ExpenseHandler {
	return &ExpenseHandler{
		Expenses: expenses,
		Notifier: notifier,
		Now:      time.Now,
	}
}

type CreateExpenseRequest struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Category string          `json:"category" validate:"required,category"`
	Date     string          `json:"date" validate:"required"`
	Time     string          `json:"time" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

type ExpenseResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Month     string          `json:"month"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt string          `json:"created_at"`
}

type ExpensesResponse struct {
	Total    decimal.Decimal   `json:"total"`
	Expenses []ExpenseResponse `json:"expenses"`
}

type DayExpensesResponse struct {
	Date     string            `json:"date"`
	Total    decimal.Decimal   `json:"total"`
	Expenses []ExpenseResponse `json:"expenses"`
}

type PreviousExpensesResponse struct {
	Days []DayExpensesResponse `json:"days"`
}

// Create добавляет расход текущему пользователю.
func (h *ExpenseHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	input, err := parseExpenseInput(userID, req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	expense, err := h.Expenses.Create(c.Request().Context(), input)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "amount must not be negative")
		}
		return serverError(c)
	}

	response := toExpenseResponse(expense)
	publishExpenseEvent(h.Notifier, userID, notifications.EventExpenseCreated, response)

	return c.JSON(http.StatusCreated, response)
}

// Delete удаляет расход текущего пользователя.
func (h *ExpenseHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid expense id")
	}

	if err := h.Expenses.Delete(c.Request().Context(), userID, expenseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "expense not found")
		}
		return serverError(c)
	}

	publishExpenseEvent(h.Notifier, userID, notifications.EventExpenseDeleted, map[string]string{
		"id": expenseID.String(),
	})

	return c.NoContent(http.StatusNoContent)
}

// Today возвращает расходы за сегодня.
func (h *ExpenseHandler) Today(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	expenses, err := h.Expenses.ListByDay(c.Request().Context(), userID, h.today())
	if err != nil {
		return serverError(c)
	}

	total := decimal.Zero
	response := make([]ExpenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
		response = append(response, toExpenseResponse(expense))
	}

	return c.JSON(http.StatusOK, ExpensesResponse{Total: total, Expenses: response})
}

// Previous возвращает расходы за прошлые дни, сгруппированные по дате.
func (h *ExpenseHandler) Previous(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	groups, err := h.Expenses.ListBefore(c.Request().Context(), userID, h.today())
	if err != nil {
		return serverError(c)
	}

	days := make([]DayExpensesResponse, 0, len(groups))
	for _, group := range groups {
		expenses := make([]ExpenseResponse, 0, len(group.Expenses))
		for _, expense := range group.Expenses {
			expenses = append(expenses, toExpenseResponse(expense))
		}
		days = append(days, DayExpensesResponse{
			Date:     group.Day.Format(dateLayout),
			Total:    group.Total,
			Expenses: expenses,
		})
	}

	return c.JSON(http.StatusOK, PreviousExpensesResponse{Days: days})
}

func (h *ExpenseHandler) today() time.Time {
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseExpenseInput(userID uuid.UUID, req CreateExpenseRequest) (repository.NewExpense, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return repository.NewExpense{}, errors.New("name is required")
	}

	category, ok := tips.ParseCategory(strings.TrimSpace(req.Category))
	if !ok {
		return repository.NewExpense{}, fmt.Errorf("unknown category %q", req.Category)
	}

	spentAt, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return repository.NewExpense{}, errors.New("date must be in YYYY-MM-DD format")
	}

	clock, err := time.Parse(clockLayout, strings.TrimSpace(req.Time))
	if err != nil {
		return repository.NewExpense{}, errors.New("time must be in HH:MM format")
	}

	if req.Amount.IsNegative() {
		return repository.NewExpense{}, errors.New("amount must not be negative")
	}

	return repository.NewExpense{
		UserID:   userID,
		Name:     name,
		Category: string(category),
		SpentAt:  spentAt,
		Time:     clock.Format(clockLayout),
		Amount:   req.Amount.Round(2),
	}, nil
}

func toExpenseResponse(expense models.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:        expense.ID,
		Name:      expense.Name,
		Category:  expense.Category,
		Date:      expense.SpentAt.Format(dateLayout),
		Time:      expense.Time,
		Month:     expense.Month,
		Amount:    expense.Amount,
		CreatedAt: expense.CreatedAt.Format(timestampLayout),
	}
}

func publishExpenseEvent(hub *notifications.Hub, userID uuid.UUID, eventType string, data interface{}) {
	if hub == nil {
		return
	}

	hub.Publish(userID, notifications.Event{Type: eventType, Data: data})
}
