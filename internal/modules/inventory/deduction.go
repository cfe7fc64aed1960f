package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Per-ingredient failure codes reported by Deduct.
const (
	DeductErrInsufficientStock = "insufficient_stock"
	DeductErrItemNotFound      = "item_not_found"
	DeductErrInvalidMapping    = "invalid_mapping_quantity"
)

// DeductionResult is the outcome for one ingredient of a sold menu item.
type DeductionResult struct {
	InventoryItemID   uuid.UUID        `json:"inventory_item_id"`
	InventoryItemName string           `json:"inventory_item_name"`
	QuantityDeducted  decimal.Decimal  `json:"quantity_deducted"`
	RemainingStock    *decimal.Decimal `json:"remaining_stock,omitempty"`
	MovementID        *uuid.UUID       `json:"movement_id,omitempty"`
	Error             string           `json:"error,omitempty"`
	Required          *decimal.Decimal `json:"required,omitempty"`
	Available         *decimal.Decimal `json:"available,omitempty"`
}

func (r DeductionResult) OK() bool { return r.Error == "" }

// Shortfalls returns only the failed outcomes.
func Shortfalls(results []DeductionResult) []DeductionResult {
	var out []DeductionResult
	for _, r := range results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// DeductionEngine consumes the linked ingredients of sold menu items.
type DeductionEngine struct {
	ledger  *Ledger
	recipes RecipeRepository
}

func NewDeductionEngine(ledger *Ledger, recipes RecipeRepository) *DeductionEngine {
	return &DeductionEngine{ledger: ledger, recipes: recipes}
}

// Deduct records one stock-out per active mapping of menuItemID. Each ingredient
// commits on its own, so a shortfall on one never blocks the others. The error
// return is reserved for storage failures; the results gathered so far are
// returned with it.
func (e *DeductionEngine) Deduct(ctx context.Context, menuItemID uuid.UUID, units int, meta MovementMeta) ([]DeductionResult, error) {
	if units <= 0 {
		return nil, apperr.Invalid("units", "must be positive")
	}
	if err := validateMeta(meta); err != nil {
		return nil, err
	}
	mappings, err := e.recipes.ListActiveIngredients(ctx, menuItemID)
	if err != nil {
		return nil, err
	}

	results := make([]DeductionResult, 0, len(mappings))
	for _, mapping := range mappings {
		required := mapping.QuantityUsed.Mul(decimal.NewFromInt(int64(units)))
		res := DeductionResult{
			InventoryItemID:   mapping.InventoryItemID,
			InventoryItemName: mapping.InventoryItemName,
			QuantityDeducted:  decimal.Zero,
		}
		if !required.IsPositive() {
			res.Error = DeductErrInvalidMapping
			results = append(results, res)
			continue
		}

		item, m, err := e.ledger.recordOut(ctx, mapping.InventoryItemID, MovementOut, required, ReasonSale, meta)
		if ise, ok := apperr.IsInsufficientStock(err); ok {
			req, avail := ise.Required, ise.Available
			res.Error = DeductErrInsufficientStock
			res.Required = &req
			res.Available = &avail
			results = append(results, res)
			continue
		}
		if errors.Is(err, apperr.ErrNotFound) {
			res.Error = DeductErrItemNotFound
			results = append(results, res)
			continue
		}
		if err != nil {
			return results, err
		}

		remaining := item.CurrentStock
		movementID := m.ID
		res.InventoryItemName = item.Name
		res.QuantityDeducted = required
		res.RemainingStock = &remaining
		res.MovementID = &movementID
		results = append(results, res)
	}
	return results, nil
}

// CanMake reports whether item holds enough stock for portions of the mapped menu item.
func CanMake(mapping *Ingredient, item *Item, portions int) bool {
	required := mapping.QuantityUsed.Mul(decimal.NewFromInt(int64(portions)))
	return item.CurrentStock.GreaterThanOrEqual(required)
}

// MaxPortions is how many whole portions the item's stock covers.
func MaxPortions(mapping *Ingredient, item *Item) int64 {
	if !mapping.QuantityUsed.IsPositive() || !item.CurrentStock.IsPositive() {
		return 0
	}
	return item.CurrentStock.Div(mapping.QuantityUsed).Floor().IntPart()
}
