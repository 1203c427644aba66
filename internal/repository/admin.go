package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/expense-tracker/backend/internal/models"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

// NewAdminRepository создает репозиторий для админских запросов.
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListUsers возвращает список пользователей с пагинацией.
func (r *AdminRepository) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+`
		 FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CountUsers возвращает общее количество пользователей.
func (r *AdminRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteUser удаляет пользователя вместе с его расходами и токенами.
func (r *AdminRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
