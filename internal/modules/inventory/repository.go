package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MutateFunc computes the movement for an item read under lock and applies the
// new stock to item in place. Returning an error aborts without writing.
type MutateFunc func(item *Item) (*Movement, error)

// Repository defines inventory item and ledger storage.
type Repository interface {
	// CreateItem stores the item and, when initial is non-nil, its opening movement in one unit.
	CreateItem(ctx context.Context, item *Item, initial *Movement) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]*Item, error)
	// UpdateItem writes descriptive fields and thresholds; current_stock is never touched.
	UpdateItem(ctx context.Context, item *Item) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	// DeleteItem removes the item; its movements go with it.
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// ApplyMovement locks the item, runs fn and persists the updated stock and
	// the returned movement atomically.
	ApplyMovement(ctx context.Context, itemID uuid.UUID, fn MutateFunc) (*Item, *Movement, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, f MovementFilter) ([]*Movement, error)
	// LatestMovementBefore returns nil when no movement is dated strictly before t.
	LatestMovementBefore(ctx context.Context, itemID uuid.UUID, t time.Time) (*Movement, error)
	// SumQuantity totals movements of typ dated within [start, end].
	SumQuantity(ctx context.Context, itemID uuid.UUID, typ MovementType, start, end time.Time) (decimal.Decimal, error)

	CreateCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]*Category, error)
}

// RecipeRepository defines menu item ingredient mapping storage.
type RecipeRepository interface {
	// CreateIngredient fails with apperr.ErrConflict when an active mapping for the pair exists.
	CreateIngredient(ctx context.Context, ing *Ingredient) error
	// FindActiveIngredient returns nil when the pair has no active mapping.
	FindActiveIngredient(ctx context.Context, menuItemID, inventoryItemID uuid.UUID) (*Ingredient, error)
	ListActiveIngredients(ctx context.Context, menuItemID uuid.UUID) ([]*Ingredient, error)
	DeactivateIngredient(ctx context.Context, id uuid.UUID) error
	// CountLinkedItems counts inventory items referenced by at least one active mapping.
	CountLinkedItems(ctx context.Context) (int, error)
}
