package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
}

type MonthlyTotal struct {
	Month     int
	MonthName string
	Amount    decimal.Decimal
}

var monthShortNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sept", "Oct", "Nov", "Dec"}

// MonthShortName возвращает короткое название месяца для графиков.
func MonthShortName(month int) string {
	if month < 1 || month > len(monthShortNames) {
		return ""
	}
	return monthShortNames[month-1]
}

// NewStatsRepository создает репозиторий статистики.
func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// CategoryTotals возвращает суммы расходов пользователя по категориям.
func (r *StatsRepository) CategoryTotals(ctx context.Context, userID uuid.UUID) ([]CategoryTotal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT category, COALESCE(SUM(amount), 0) AS total
		 FROM expenses
		 WHERE user_id = $1
		 GROUP BY category
		 ORDER BY total DESC, category`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]CategoryTotal, 0)
	for rows.Next() {
		var row CategoryTotal
		if err := rows.Scan(&row.Category, &row.Amount); err != nil {
			return nil, err
		}
		totals = append(totals, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}

// MonthlyTotals возвращает суммы расходов пользователя по месяцам года.
func (r *StatsRepository) MonthlyTotals(ctx context.Context, userID uuid.UUID) ([]MonthlyTotal, error) {
	rows, err := r.db.Query(ctx,
		`SELECT EXTRACT(MONTH FROM spent_at)::int AS month,
		        COALESCE(SUM(amount), 0) AS total
		 FROM expenses
		 WHERE user_id = $1
		 GROUP BY month
		 ORDER BY month`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]MonthlyTotal, 0)
	for rows.Next() {
		var row MonthlyTotal
		if err := rows.Scan(&row.Month, &row.Amount); err != nil {
			return nil, err
		}
		row.MonthName = MonthShortName(row.Month)
		totals = append(totals, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}
