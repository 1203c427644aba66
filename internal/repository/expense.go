package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/expense-tracker/backend/internal/models"
)

const expenseColumns = `id, user_id, name, category, spent_at, spent_time, month, amount, created_at`

type ExpenseRepository struct {
	db *pgxpool.Pool
}

type NewExpense struct {
	UserID   uuid.UUID
	Name     string
	Category string
	SpentAt  time.Time
	Time     string
	Amount   decimal.Decimal
}

// DayExpenses группирует расходы одного дня.
type DayExpenses struct {
	Day      time.Time
	Total    decimal.Decimal
	Expenses []models.Expense
}

// NewExpenseRepository создает репозиторий расходов.
func NewExpenseRepository(db *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create сохраняет расход пользователя.
func (r *ExpenseRepository) Create(ctx context.Context, input NewExpense) (models.Expense, error) {
	if input.Amount.IsNegative() {
		return models.Expense{}, ErrInvalid
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO expenses (user_id, name, category, spent_at, spent_time, month, amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+expenseColumns,
		input.UserID, input.Name, input.Category, input.SpentAt, input.Time, input.SpentAt.Month().String(), input.Amount,
	)

	expense, err := scanExpense(row)
	return expense, translateError(err)
}

// Delete удаляет расход, принадлежащий пользователю.
func (r *ExpenseRepository) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND user_id = $2`,
		expenseID, userID,
	)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByDay возвращает расходы пользователя за указанный день.
func (r *ExpenseRepository) ListByDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Expense, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+expenseColumns+`
		 FROM expenses
		 WHERE user_id = $1 AND spent_at = $2::date
		 ORDER BY spent_time, created_at`,
		userID, day.Format(time.DateOnly),
	)
	if err != nil {
		return nil, err
	}

	return collectExpenses(rows)
}

// ListBefore возвращает расходы до указанного дня, сгруппированные по дням,
// начиная с самого позднего.
func (r *ExpenseRepository) ListBefore(ctx context.Context, userID uuid.UUID, day time.Time) ([]DayExpenses, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+expenseColumns+`
		 FROM expenses
		 WHERE user_id = $1 AND spent_at < $2::date
		 ORDER BY spent_at DESC, spent_time, created_at`,
		userID, day.Format(time.DateOnly),
	)
	if err != nil {
		return nil, err
	}

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}

	return GroupByDay(expenses), nil
}

// GroupByDay группирует расходы по дате, сохраняя порядок появления дней.
func GroupByDay(expenses []models.Expense) []DayExpenses {
	groups := make([]DayExpenses, 0)
	index := make(map[string]int)

	for _, expense := range expenses {
		key := expense.SpentAt.Format(time.DateOnly)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayExpenses{Day: expense.SpentAt, Total: decimal.Zero})
		}
		groups[i].Expenses = append(groups[i].Expenses, expense)
		groups[i].Total = groups[i].Total.Add(expense.Amount)
	}

	return groups
}

func collectExpenses(rows pgx.Rows) ([]models.Expense, error) {
	defer rows.Close()

	expenses := make([]models.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return expenses, nil
}

func scanExpense(row pgx.Row) (models.Expense, error) {
	var expense models.Expense
	err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&expense.Name,
		&expense.Category,
		&expense.SpentAt,
		&expense.Time,
		&expense.Month,
		&expense.Amount,
		&expense.CreatedAt,
	)
	return expense, err
}
