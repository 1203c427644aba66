package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"example.com/expense-tracker/backend/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, user_type, income, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

type NewUser struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	UserType     models.UserType
	Income       decimal.NullDecimal
}

// NewUserRepository создает репозиторий пользователей.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create создает пользователя в базе.
func (r *UserRepository) Create(ctx context.Context, input NewUser) (models.User, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, user_type, income)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		input.Email, input.PasswordHash, input.FirstName, input.LastName, input.UserType, input.Income,
	)

	user, err := scanUser(row)
	return user, translateError(err)
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	return user, translateError(err)
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	return user, translateError(err)
}

// GetIncome возвращает месячный доход пользователя; доход может быть не задан.
func (r *UserRepository) GetIncome(ctx context.Context, id uuid.UUID) (decimal.NullDecimal, error) {
	var income decimal.NullDecimal
	err := r.db.QueryRow(ctx, `SELECT income FROM users WHERE id = $1`, id).Scan(&income)
	return income, translateError(err)
}

// UpdateIncome обновляет месячный доход пользователя.
func (r *UserRepository) UpdateIncome(ctx context.Context, id uuid.UUID, income decimal.NullDecimal) (models.User, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE users
		 SET income = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, income,
	)

	user, err := scanUser(row)
	return user, translateError(err)
}

// UpdatePassword меняет хэш пароля и отзывает все refresh-токены пользователя.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cmd, err := tx.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`,
		id,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.UserType,
		&user.Income,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}
