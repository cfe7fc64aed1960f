package menu

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

const columns = `id,name,description,category,price,cost_price,is_available,preparation_time,
allergens,is_combo,created_at,updated_at`

type postgresRepo struct{ db *sqlx.DB }

func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, item *Item) error {
	_, err := r.db.NamedExecContext(ctx, `
INSERT INTO menu_items (`+columns+`)
VALUES (:id,:name,:description,:category,:price,:cost_price,:is_available,:preparation_time,
:allergens,:is_combo,:created_at,:updated_at)`, item)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("menu item %q: %w", item.Name, apperr.ErrConflict)
	}
	return apperr.Persistence("create menu item", err)
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	item := &Item{}
	err := r.db.GetContext(ctx, item, `SELECT `+columns+` FROM menu_items WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("menu item", id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get menu item", err)
	}
	return item, nil
}

func (r *postgresRepo) List(ctx context.Context, f Filter) ([]*Item, error) {
	query := `SELECT ` + columns + ` FROM menu_items WHERE 1=1`
	args := []interface{}{}
	n := 1
	if f.Category != "" {
		query += fmt.Sprintf(` AND category=$%d`, n)
		args = append(args, f.Category)
		n++
	}
	if f.Search != "" {
		query += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, n, n)
		args = append(args, "%"+strings.TrimSpace(f.Search)+"%")
		n++
	}
	if f.AvailableOnly {
		query += ` AND is_available=true`
	}
	query += ` ORDER BY category, name`

	var items []*Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, apperr.Persistence("list menu items", err)
	}
	return items, nil
}

func (r *postgresRepo) Update(ctx context.Context, item *Item) error {
	res, err := r.db.NamedExecContext(ctx, `
UPDATE menu_items
SET name=:name, description=:description, category=:category, price=:price, cost_price=:cost_price,
    is_available=:is_available, preparation_time=:preparation_time, allergens=:allergens,
    is_combo=:is_combo, updated_at=:updated_at
WHERE id=:id`, item)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("menu item %q: %w", item.Name, apperr.ErrConflict)
	}
	if err != nil {
		return apperr.Persistence("update menu item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("menu item", item.ID.String())
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("menu item %s is referenced by orders: %w", id, apperr.ErrConflict)
	}
	if err != nil {
		return apperr.Persistence("delete menu item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("menu item", id.String())
	}
	return nil
}

func (r *postgresRepo) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.db.SelectContext(ctx, &cats, `SELECT DISTINCT category FROM menu_items ORDER BY category`)
	return cats, apperr.Persistence("list menu categories", err)
}

func (r *postgresRepo) MenuItemIDByName(ctx context.Context, name string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, `SELECT id FROM menu_items WHERE name=$1 LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, apperr.Persistence("find menu item by name", err)
	}
	return id, true, nil
}

func (r *postgresRepo) MenuItemExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM menu_items WHERE id=$1)`, id)
	if err != nil {
		return false, apperr.Persistence("check menu item", err)
	}
	return exists, nil
}
