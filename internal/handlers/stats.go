package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"example.com/expense-tracker/backend/internal/auth"
	"example.com/expense-tracker/backend/internal/repository"
	"example.com/expense-tracker/backend/internal/tips"
)

// CategoryTotalsReader отдает суммы расходов пользователя по категориям.
type CategoryTotalsReader interface {
	CategoryTotals(ctx context.Context, userID uuid.UUID) ([]repository.CategoryTotal, error)
}

// IncomeReader отдает месячный доход пользователя.
type IncomeReader interface {
	GetIncome(ctx context.Context, userID uuid.UUID) (decimal.NullDecimal, error)
}

type StatsHandler struct {
	Stats     *repository.StatsRepository
	Totals    CategoryTotalsReader
	Incomes   IncomeReader
	Generator *tips.Generator
}

// NewStatsHandler создает обработчик статистики и советов.
func NewStatsHandler(stats *repository.StatsRepository, incomes IncomeReader, generator *tips.Generator) *StatsHandler {
	return &StatsHandler{
		Stats:     stats,
		Totals:    stats,
		Incomes:   incomes,
		Generator: generator,
	}
}

type MonthlyItem struct {
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Amount    decimal.Decimal `json:"amount"`
}

type MonthlyResponse struct {
	Months []MonthlyItem `json:"months"`
}

type CategoryItem struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

type CategoriesResponse struct {
	Categories []CategoryItem `json:"categories"`
}

// Monthly возвращает траты по месяцам для столбчатой диаграммы.
func (h *StatsHandler) Monthly(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	totals, err := h.Stats.MonthlyTotals(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	months := make([]MonthlyItem, 0, len(totals))
	for _, total := range totals {
		months = append(months, MonthlyItem{
			Month:     total.Month,
			MonthName: total.MonthName,
			Amount:    total.Amount,
		})
	}

	return c.JSON(http.StatusOK, MonthlyResponse{Months: months})
}

// Categories возвращает траты по категориям для круговой диаграммы.
func (h *StatsHandler) Categories(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	totals, err := h.Totals.CategoryTotals(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	categories := make([]CategoryItem, 0, len(totals))
	for _, total := range totals {
		categories = append(categories, CategoryItem{
			Category: total.Category,
			Amount:   total.Amount,
		})
	}

	return c.JSON(http.StatusOK, CategoriesResponse{Categories: categories})
}

// Tip возвращает случайный совет по экономии обычным текстом.
func (h *StatsHandler) Tip(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var (
		totals []repository.CategoryTotal
		income decimal.NullDecimal
	)

	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		totals, err = h.Totals.CategoryTotals(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		income, err = h.Incomes.GetIncome(ctx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "user not found")
		}
		return serverError(c)
	}

	expenses := make([]tips.Expense, 0, len(totals))
	for _, total := range totals {
		expenses = append(expenses, tips.Expense{Category: total.Category, Amount: total.Amount})
	}

	return c.String(http.StatusOK, h.Generator.Tip(expenses, income))
}
