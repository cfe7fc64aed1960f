package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	if !dec(want).Equal(got) {
		assert.Fail(t, fmt.Sprintf("decimal mismatch: want %s, got %s", want, got), msgAndArgs...)
	}
}

func metaAt(at time.Time) MovementMeta {
	return MovementMeta{Actor: uuid.MustParse("11111111-1111-1111-1111-111111111111"), At: at}
}

// seedItem stores an item whose opening stock is booked as an initial_stock movement at t0.
func seedItem(t *testing.T, repo *MemoryRepository, name, stock, minimum, unitCost string) *Item {
	t.Helper()
	item := &Item{
		ID:            uuid.New(),
		Name:          name,
		SKU:           "SKU-" + name,
		MinimumStock:  dec(minimum),
		UnitCost:      dec(unitCost),
		UnitOfMeasure: "piece",
		IsActive:      true,
		TrackStock:    true,
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
	var initial *Movement
	if dec(stock).IsPositive() {
		initial = stockIn(item, dec(stock), item.UnitCost, ReasonInitialStock, metaAt(t0))
	}
	require.NoError(t, repo.CreateItem(context.Background(), item, initial))
	return item
}

func mapIngredient(t *testing.T, repo *MemoryRepository, menuItemID uuid.UUID, item *Item, qty string, at time.Time) *Ingredient {
	t.Helper()
	ing := &Ingredient{
		ID:              uuid.New(),
		MenuItemID:      menuItemID,
		InventoryItemID: item.ID,
		QuantityUsed:    dec(qty),
		UnitOfMeasure:   item.UnitOfMeasure,
		IsActive:        true,
		CreatedAt:       at,
		UpdatedAt:       at,
	}
	require.NoError(t, repo.CreateIngredient(context.Background(), ing))
	return ing
}
