package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/database"
)

const itemColumns = `id,name,sku,category_id,supplier_id,current_stock,minimum_stock,maximum_stock,
unit_cost,selling_price,unit_of_measure,is_active,track_stock,last_restocked_at,created_at,updated_at`

const insertMovement = `
INSERT INTO stock_movements (
    id, inventory_item_id, movement_type, quantity, unit_cost, total_cost,
    previous_stock, new_stock, reason, supplier_id, batch_number, expiry_date,
    notes, movement_date, created_by, created_at
) VALUES (
    :id, :inventory_item_id, :movement_type, :quantity, :unit_cost, :total_cost,
    :previous_stock, :new_stock, :reason, :supplier_id, :batch_number, :expiry_date,
    :notes, :movement_date, :created_by, :created_at
)`

type postgresRepository struct{ db *sqlx.DB }

// NewPostgresRepository creates the inventory item and ledger store.
func NewPostgresRepository(db *sqlx.DB) Repository { return &postgresRepository{db: db} }

func (r *postgresRepository) CreateItem(ctx context.Context, item *Item, initial *Movement) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
INSERT INTO inventory_items (`+itemColumns+`)
VALUES (:id,:name,:sku,:category_id,:supplier_id,:current_stock,:minimum_stock,:maximum_stock,
:unit_cost,:selling_price,:unit_of_measure,:is_active,:track_stock,:last_restocked_at,:created_at,:updated_at)`, item)
		if err != nil {
			return err
		}
		if initial != nil {
			_, err = tx.NamedExecContext(ctx, insertMovement, initial)
		}
		return err
	})
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("sku %s: %w", item.SKU, apperr.ErrConflict)
	}
	if database.IsForeignKeyViolation(err) {
		return apperr.Invalid("category_id", "or supplier_id does not exist")
	}
	return apperr.Persistence("create inventory item", err)
}

func (r *postgresRepository) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	item := &Item{}
	err := r.db.GetContext(ctx, item, `SELECT `+itemColumns+` FROM inventory_items WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("inventory item", id.String())
	}
	if err != nil {
		return nil, apperr.Persistence("get inventory item", err)
	}
	return item, nil
}

func (r *postgresRepository) ListItems(ctx context.Context, f ItemFilter) ([]*Item, error) {
	var conditions []string
	args := map[string]interface{}{}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if f.CategoryID != nil {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = *f.CategoryID
	}
	if f.LowStock {
		conditions = append(conditions, "current_stock <= minimum_stock")
	}
	if f.Search != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.Search + "%"
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query, qargs, err := sqlx.Named(`SELECT `+itemColumns+` FROM inventory_items`+where+` ORDER BY name`, args)
	if err != nil {
		return nil, err
	}
	var items []*Item
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), qargs...); err != nil {
		return nil, apperr.Persistence("list inventory items", err)
	}
	return items, nil
}

func (r *postgresRepository) UpdateItem(ctx context.Context, item *Item) error {
	res, err := r.db.NamedExecContext(ctx, `
UPDATE inventory_items SET name=:name, sku=:sku, category_id=:category_id, supplier_id=:supplier_id,
    minimum_stock=:minimum_stock, maximum_stock=:maximum_stock, unit_cost=:unit_cost,
    selling_price=:selling_price, unit_of_measure=:unit_of_measure, track_stock=:track_stock,
    updated_at=:updated_at
WHERE id=:id`, item)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("sku %s: %w", item.SKU, apperr.ErrConflict)
	}
	if err != nil {
		return apperr.Persistence("update inventory item", err)
	}
	return mustAffect(res, "inventory item", item.ID)
}

func (r *postgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory_items SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return apperr.Persistence("set inventory item active", err)
	}
	return mustAffect(res, "inventory item", id)
}

func (r *postgresRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM inventory_items WHERE id=$1`, id)
	if err != nil {
		return apperr.Persistence("delete inventory item", err)
	}
	return mustAffect(res, "inventory item", id)
}

// ApplyMovement holds a row lock on the item for the whole read-compute-write cycle,
// so concurrent deductions serialise on the item instead of over-drawing it.
func (r *postgresRepository) ApplyMovement(ctx context.Context, itemID uuid.UUID, fn MutateFunc) (*Item, *Movement, error) {
	var (
		item = &Item{}
		m    *Movement
	)
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, item,
			`SELECT `+itemColumns+` FROM inventory_items WHERE id=$1 FOR UPDATE`, itemID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("inventory item", itemID.String())
		}
		if err != nil {
			return apperr.Persistence("lock inventory item", err)
		}
		if m, err = fn(item); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
UPDATE inventory_items SET current_stock=$1, last_restocked_at=$2, updated_at=$3 WHERE id=$4`,
			item.CurrentStock, item.LastRestockedAt, item.UpdatedAt, item.ID); err != nil {
			return apperr.Persistence("update current stock", err)
		}
		if _, err := tx.NamedExecContext(ctx, insertMovement, m); err != nil {
			if database.IsForeignKeyViolation(err) {
				return apperr.Invalid("supplier_id", "does not exist")
			}
			return apperr.Persistence("insert stock movement", err)
		}
		return nil
	})
	if err != nil {
		var pe *apperr.PersistenceError
		var ve *apperr.ValidationError
		_, short := apperr.IsInsufficientStock(err)
		if !short && !errors.As(err, &pe) && !errors.As(err, &ve) && !errors.Is(err, apperr.ErrNotFound) {
			err = apperr.Persistence("commit stock movement", err)
		}
		return nil, nil, err
	}
	return item, m, nil
}

func (r *postgresRepository) ListMovements(ctx context.Context, itemID uuid.UUID, f MovementFilter) ([]*Movement, error) {
	conditions := []string{"inventory_item_id = :item_id"}
	args := map[string]interface{}{"item_id": itemID}
	if f.Type != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = string(f.Type)
	}
	if !f.From.IsZero() {
		conditions = append(conditions, "movement_date >= :from")
		args["from"] = f.From
	}
	if !f.To.IsZero() {
		conditions = append(conditions, "movement_date <= :to")
		args["to"] = f.To
	}
	query := `SELECT * FROM stock_movements WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY movement_date, id`
	if f.Limit > 0 {
		// keep the newest f.Limit entries, still returned oldest first
		query = fmt.Sprintf(`SELECT * FROM (SELECT * FROM stock_movements WHERE %s
ORDER BY movement_date DESC, id DESC LIMIT %d) recent ORDER BY movement_date, id`,
			strings.Join(conditions, " AND "), f.Limit)
	}

	q, qargs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}
	var out []*Movement
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), qargs...); err != nil {
		return nil, apperr.Persistence("list stock movements", err)
	}
	return out, nil
}

func (r *postgresRepository) LatestMovementBefore(ctx context.Context, itemID uuid.UUID, t time.Time) (*Movement, error) {
	m := &Movement{}
	err := r.db.GetContext(ctx, m, `
SELECT * FROM stock_movements
WHERE inventory_item_id=$1 AND movement_date < $2
ORDER BY movement_date DESC, id DESC
LIMIT 1`, itemID, t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("latest stock movement", err)
	}
	return m, nil
}

func (r *postgresRepository) SumQuantity(ctx context.Context, itemID uuid.UUID, typ MovementType, start, end time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.GetContext(ctx, &sum, `
SELECT COALESCE(SUM(quantity), 0) FROM stock_movements
WHERE inventory_item_id=$1 AND movement_type=$2 AND movement_date BETWEEN $3 AND $4`,
		itemID, string(typ), start, end)
	if err != nil {
		return decimal.Zero, apperr.Persistence("sum stock movements", err)
	}
	return sum, nil
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	_, err := r.db.NamedExecContext(ctx, `
INSERT INTO inventory_categories (id,name,description,created_at)
VALUES (:id,:name,:description,:created_at)`, c)
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("category %s: %w", c.Name, apperr.ErrConflict)
	}
	return apperr.Persistence("create inventory category", err)
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	var out []*Category
	if err := r.db.SelectContext(ctx, &out,
		`SELECT id,name,description,created_at FROM inventory_categories ORDER BY name`); err != nil {
		return nil, apperr.Persistence("list inventory categories", err)
	}
	return out, nil
}

// ---- Ingredient mappings ----

const ingredientSelect = `
SELECT mi.id, mi.menu_item_id, mi.inventory_item_id, mi.quantity_used, mi.unit_of_measure,
       mi.is_active, mi.created_at, mi.updated_at, ii.name AS inventory_item_name
FROM menu_item_ingredients mi
JOIN inventory_items ii ON ii.id = mi.inventory_item_id`

type recipePostgres struct{ db *sqlx.DB }

// NewRecipePostgresRepository creates the menu item ingredient mapping store.
func NewRecipePostgresRepository(db *sqlx.DB) RecipeRepository { return &recipePostgres{db: db} }

func (r *recipePostgres) CreateIngredient(ctx context.Context, ing *Ingredient) error {
	_, err := r.db.NamedExecContext(ctx, `
INSERT INTO menu_item_ingredients (id,menu_item_id,inventory_item_id,quantity_used,unit_of_measure,is_active,created_at,updated_at)
VALUES (:id,:menu_item_id,:inventory_item_id,:quantity_used,:unit_of_measure,:is_active,:created_at,:updated_at)`, ing)
	switch {
	case database.IsDuplicateKey(err):
		return fmt.Errorf("ingredient mapping already active: %w", apperr.ErrConflict)
	case database.IsForeignKeyViolation(err):
		return apperr.NotFound("menu item", ing.MenuItemID.String())
	}
	return apperr.Persistence("create ingredient mapping", err)
}

func (r *recipePostgres) FindActiveIngredient(ctx context.Context, menuItemID, inventoryItemID uuid.UUID) (*Ingredient, error) {
	ing := &Ingredient{}
	err := r.db.GetContext(ctx, ing, ingredientSelect+`
WHERE mi.menu_item_id=$1 AND mi.inventory_item_id=$2 AND mi.is_active`, menuItemID, inventoryItemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("find ingredient mapping", err)
	}
	return ing, nil
}

func (r *recipePostgres) ListActiveIngredients(ctx context.Context, menuItemID uuid.UUID) ([]*Ingredient, error) {
	var out []*Ingredient
	err := r.db.SelectContext(ctx, &out, ingredientSelect+`
WHERE mi.menu_item_id=$1 AND mi.is_active
ORDER BY mi.created_at, mi.id`, menuItemID)
	if err != nil {
		return nil, apperr.Persistence("list ingredient mappings", err)
	}
	return out, nil
}

func (r *recipePostgres) DeactivateIngredient(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE menu_item_ingredients SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return apperr.Persistence("deactivate ingredient mapping", err)
	}
	return mustAffect(res, "ingredient mapping", id)
}

func (r *recipePostgres) CountLinkedItems(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(DISTINCT inventory_item_id) FROM menu_item_ingredients WHERE is_active`)
	if err != nil {
		return 0, apperr.Persistence("count linked inventory items", err)
	}
	return n, nil
}

func mustAffect(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence("rows affected", err)
	}
	if n == 0 {
		return apperr.NotFound(what, id.String())
	}
	return nil
}
