package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventportal/internal/model"
)

const userColumns = `id, first_name, last_name, phone, email, password_hash, role, created_at`

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	query := `
		INSERT INTO users (first_name, last_name, phone, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		u.FirstName, u.LastName, u.Phone, u.Email, u.PasswordHash, string(u.Role),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %w", ErrDuplicateEmail, err)
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return u.ID, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *repository) getUser(row scanner) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Phone, &u.Email, &u.PasswordHash, &role, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = model.Role(role)
	return &u, nil
}
