package supplier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/database"
)

type postgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL supplier repository.
func NewPostgresRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, contact_name, phone, email, address, is_active, created_at, updated_at)
		VALUES (:id, :name, :contact_name, :phone, :email, :address, :is_active, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, s)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("supplier %q: %w", s.Name, apperr.ErrConflict)
	}
	return apperr.Persistence("create supplier", err)
}

func (r *postgresRepository) GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	s := &Supplier{}
	query := `
		SELECT id, name, contact_name, phone, email, address, is_active, created_at, updated_at
		FROM suppliers
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("supplier", id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get supplier", err)
	}
	return s, nil
}

func (r *postgresRepository) ListSuppliers(ctx context.Context, activeOnly bool) ([]*Supplier, error) {
	query := `
		SELECT id, name, contact_name, phone, email, address, is_active, created_at, updated_at
		FROM suppliers
		WHERE ($1 = FALSE OR is_active = TRUE)
		ORDER BY name
	`
	var out []*Supplier
	if err := r.db.SelectContext(ctx, &out, query, activeOnly); err != nil {
		return nil, apperr.Persistence("list suppliers", err)
	}
	return out, nil
}

func (r *postgresRepository) UpdateSupplier(ctx context.Context, s *Supplier) error {
	query := `
		UPDATE suppliers
		SET name = :name, contact_name = :contact_name, phone = :phone, email = :email,
		    address = :address, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.db.NamedExecContext(ctx, query, s)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("supplier %q: %w", s.Name, apperr.ErrConflict)
	}
	if err != nil {
		return apperr.Persistence("update supplier", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("supplier", s.ID.String())
	}
	return nil
}

func (r *postgresRepository) CountSuppliers(ctx context.Context, activeOnly bool) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM suppliers WHERE ($1 = FALSE OR is_active = TRUE)`, activeOnly)
	return n, apperr.Persistence("count suppliers", err)
}
