package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/database"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, created_at, updated_at`

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateUser(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, is_active)
		VALUES (:id, :email, :password_hash, :first_name, :last_name, :role, :is_active)
	`
	_, err := r.db.NamedExecContext(ctx, query, user)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("email %s: %w", user.Email, apperr.ErrConflict)
	}
	return apperr.Persistence("create user", err)
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := r.db.GetContext(ctx, user,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", email)
	}
	if err != nil {
		return nil, apperr.Persistence("get user by email", err)
	}
	return user, nil
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := r.db.GetContext(ctx, user, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get user", err)
	}
	return user, nil
}

func (r *postgresRepository) ListUsers(ctx context.Context) ([]*User, error) {
	var users []*User
	if err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`); err != nil {
		return nil, apperr.Persistence("list users", err)
	}
	return users, nil
}

func (r *postgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), id)
	return affected(res, err, id)
}

func (r *postgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	return affected(res, err, id)
}

func (r *postgresRepository) CountByRole(ctx context.Context, role Role) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE role = $1 AND is_active`, string(role))
	return n, apperr.Persistence("count users", err)
}

func affected(res sql.Result, err error, id uuid.UUID) error {
	if err != nil {
		return apperr.Persistence("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence("update user", err)
	}
	if n == 0 {
		return apperr.NotFound("user", id.String())
	}
	return nil
}
