package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/modules/user"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

func newTestService(t *testing.T, opts ...Option) (Service, *MemoryRepository) {
	repo := NewMemoryRepository()
	clock := t0
	opts = append([]Option{WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})}, opts...)
	return NewService(repo, repo, zaptest.NewLogger(t), opts...), repo
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestService_CreateItemBooksInitialStock(t *testing.T) {
	svc, repo := newTestService(t)
	manager := uuid.New()
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{UserID: manager, Role: user.RoleManager})

	item, err := svc.CreateItem(ctx, CreateItemRequest{
		Name:         "  Chicken breast ",
		CurrentStock: dec("12.5"),
		MinimumStock: dec("3"),
		UnitCost:     dec("40"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Chicken breast", item.Name)
	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, item.SKU)
	assert.Equal(t, "piece", item.UnitOfMeasure)
	assert.True(t, item.TrackStock)
	assertDec(t, "12.5", item.CurrentStock)

	movements, err := repo.ListMovements(ctx, item.ID, MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	m := movements[0]
	assert.Equal(t, MovementIn, m.Type)
	assert.Equal(t, ReasonInitialStock, m.Reason)
	assertDec(t, "0", m.PreviousStock)
	assertDec(t, "12.5", m.NewStock)
	assertDec(t, "500", m.TotalCost)
	require.NotNil(t, m.CreatedBy)
	assert.Equal(t, manager, *m.CreatedBy)
}

func TestService_CreateItemWithoutStockHasNoMovement(t *testing.T) {
	svc, repo := newTestService(t)
	item, err := svc.CreateItem(context.Background(), CreateItemRequest{Name: "Napkins", SKU: "NAP-1"})
	require.NoError(t, err)
	movements, _ := repo.ListMovements(context.Background(), item.ID, MovementFilter{})
	assert.Empty(t, movements)
}

func TestService_CreateItemValidation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name  string
		req   CreateItemRequest
		field string
	}{
		{"missing name", CreateItemRequest{Name: " "}, "name"},
		{"negative stock", CreateItemRequest{Name: "x", CurrentStock: dec("-1")}, "current_stock"},
		{"negative cost", CreateItemRequest{Name: "x", UnitCost: dec("-0.5")}, "unit_cost"},
		{"bad category", CreateItemRequest{Name: "x", CategoryID: "nope"}, "category_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tc.req)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestService_CreateItemAutoLinksWhenEnabled(t *testing.T) {
	repo := NewMemoryRepository()
	fries := uuid.New()
	linker := NewAutoLinker(NewKeywordMatcher(DefaultKeywordRules()), menuNames{"French Fries": fries}, repo, zaptest.NewLogger(t))

	enabled := NewService(repo, repo, zaptest.NewLogger(t), WithClock(func() time.Time { return t0 }), WithAutoLinker(linker))
	item, err := enabled.CreateItem(context.Background(), CreateItemRequest{Name: "Potatoes (sack)", SKU: "POT-1"})
	require.NoError(t, err)
	ing, err := repo.FindActiveIngredient(context.Background(), fries, item.ID)
	require.NoError(t, err)
	require.NotNil(t, ing)
	assertDec(t, "0.25", ing.QuantityUsed)

	disabled := NewService(repo, repo, zaptest.NewLogger(t), WithClock(func() time.Time { return t0 }))
	other, err := disabled.CreateItem(context.Background(), CreateItemRequest{Name: "Sweet potato", SKU: "POT-2"})
	require.NoError(t, err)
	ing, err = repo.FindActiveIngredient(context.Background(), fries, other.ID)
	require.NoError(t, err)
	assert.Nil(t, ing)
}

// Item at 10 with minimum 5: use 3 -> 7 in stock, use 5 more -> 2 low stock.
func TestService_UseStockScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Lettuce", CurrentStock: dec("10"), MinimumStock: dec("5"), UnitCost: dec("2")})
	require.NoError(t, err)

	m, err := svc.UseStock(ctx, item.ID.String(), UseStockRequest{Quantity: dec("3"), Reason: "prep"})
	require.NoError(t, err)
	assert.Equal(t, MovementOut, m.Type)
	assertDec(t, "10", m.PreviousStock)
	assertDec(t, "7", m.NewStock)
	got, _ := svc.GetItem(ctx, item.ID.String())
	assert.Equal(t, StatusInStock, got.Status())

	_, err = svc.UseStock(ctx, item.ID.String(), UseStockRequest{Quantity: dec("5")})
	require.NoError(t, err)
	got, _ = svc.GetItem(ctx, item.ID.String())
	assertDec(t, "2", got.CurrentStock)
	assert.Equal(t, StatusLowStock, got.Status())

	_, err = svc.UseStock(ctx, item.ID.String(), UseStockRequest{Quantity: dec("2.5")})
	_, short := apperr.IsInsufficientStock(err)
	assert.True(t, short)
	got, _ = svc.GetItem(ctx, item.ID.String())
	assertDec(t, "2", got.CurrentStock)
}

func TestService_AddStockRequiresQuantityAndCost(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Rice"})
	require.NoError(t, err)

	_, err = svc.AddStock(ctx, item.ID.String(), AddStockRequest{Quantity: dec("5")})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "unit_cost", ve.Field)

	_, err = svc.AddStock(ctx, item.ID.String(), AddStockRequest{UnitCost: decPtr("3")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "quantity", ve.Field)

	expiry := t0.AddDate(0, 6, 0)
	m, err := svc.AddStock(ctx, item.ID.String(), AddStockRequest{
		Quantity:    dec("25"),
		UnitCost:    decPtr("1.8"),
		BatchNumber: "LOT-9",
		ExpiryDate:  &expiry,
		Notes:       "weekly delivery",
	})
	require.NoError(t, err)
	assertDec(t, "45", m.TotalCost)
	assert.Equal(t, "LOT-9", m.BatchNumber)
	assert.Equal(t, &expiry, m.ExpiryDate)
	assert.Nil(t, m.CreatedBy, "no principal means a system movement")
}

func TestService_AdjustStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Cheese", CurrentStock: dec("8")})
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, item.ID.String(), AdjustStockRequest{})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	m, err := svc.AdjustStock(ctx, item.ID.String(), AdjustStockRequest{NewQuantity: decPtr("8")})
	require.NoError(t, err)
	assert.Equal(t, MovementAdjustment, m.Type)
	assertDec(t, "0", m.Quantity)
	assert.Equal(t, ReasonAdjustment, m.Reason)
}

func TestService_UpdateItemNeverTouchesStock(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Bread", CurrentStock: dec("30")})
	require.NoError(t, err)

	name := "Burger buns"
	updated, err := svc.UpdateItem(ctx, item.ID.String(), UpdateItemRequest{Name: &name, MinimumStock: decPtr("12")})
	require.NoError(t, err)
	assert.Equal(t, "Burger buns", updated.Name)
	assertDec(t, "12", updated.MinimumStock)
	assertDec(t, "30", updated.CurrentStock)

	_, err = svc.UpdateItem(ctx, item.ID.String(), UpdateItemRequest{UnitCost: decPtr("-2")})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestService_DeleteCascadesMovements(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Onion", CurrentStock: dec("3")})
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, item.ID.String(), false))
	got, _ := svc.GetItem(ctx, item.ID.String())
	assert.False(t, got.IsActive)

	require.NoError(t, svc.DeleteItem(ctx, item.ID.String()))
	_, err = svc.GetItem(ctx, item.ID.String())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	movements, _ := repo.ListMovements(ctx, item.ID, MovementFilter{})
	assert.Empty(t, movements)
}

func TestService_IngredientMappings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	menuItem := uuid.New()
	beef, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Beef patty", CurrentStock: dec("9"), UnitOfMeasure: "piece"})
	require.NoError(t, err)
	bun, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Bun", CurrentStock: dec("20")})
	require.NoError(t, err)

	ing, err := svc.LinkIngredient(ctx, menuItem.String(), LinkIngredientRequest{InventoryItemID: beef.ID.String(), QuantityUsed: dec("2")})
	require.NoError(t, err)
	assert.Equal(t, "piece", ing.UnitOfMeasure)

	_, err = svc.LinkIngredient(ctx, menuItem.String(), LinkIngredientRequest{InventoryItemID: beef.ID.String(), QuantityUsed: dec("1")})
	assert.ErrorIs(t, err, apperr.ErrConflict, "one active mapping per pair")

	_, err = svc.LinkIngredient(ctx, menuItem.String(), LinkIngredientRequest{InventoryItemID: bun.ID.String(), QuantityUsed: dec("1")})
	require.NoError(t, err)

	avail, err := svc.Availability(ctx, menuItem.String())
	require.NoError(t, err)
	assert.Equal(t, int64(4), avail.MaxPortions, "beef limits to floor(9/2)")
	assert.Len(t, avail.Ingredients, 2)

	results, err := svc.DeductForSale(ctx, menuItem.String(), 3)
	require.NoError(t, err)
	assert.Empty(t, Shortfalls(results))

	require.NoError(t, svc.UnlinkIngredient(ctx, ing.ID.String()))
	list, err := svc.ListIngredients(ctx, menuItem.String())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bun.ID, list[0].InventoryItemID)

	// a deactivated pair can be mapped again
	_, err = svc.LinkIngredient(ctx, menuItem.String(), LinkIngredientRequest{InventoryItemID: beef.ID.String(), QuantityUsed: dec("1")})
	assert.NoError(t, err)
}

func TestService_ListMovementsFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Oil", CurrentStock: dec("10")})
	require.NoError(t, err)
	_, err = svc.UseStock(ctx, item.ID.String(), UseStockRequest{Quantity: dec("1")})
	require.NoError(t, err)
	_, err = svc.RecordWaste(ctx, item.ID.String(), UseStockRequest{Quantity: dec("2"), Reason: "spilled"})
	require.NoError(t, err)

	all, err := svc.ListMovements(ctx, item.ID.String(), MovementFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []MovementType{MovementIn, MovementOut, MovementWaste}, []MovementType{all[0].Type, all[1].Type, all[2].Type})

	waste, err := svc.ListMovements(ctx, item.ID.String(), MovementFilter{Type: MovementWaste})
	require.NoError(t, err)
	require.Len(t, waste, 1)
	assert.Equal(t, "spilled", waste[0].Reason)

	_, err = svc.ListMovements(ctx, item.ID.String(), MovementFilter{Type: "teleport"})
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)

	last, err := svc.ListMovements(ctx, item.ID.String(), MovementFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, MovementWaste, last[0].Type)
}

type knownMenu map[uuid.UUID]bool

func (m knownMenu) MenuItemExists(_ context.Context, id uuid.UUID) (bool, error) {
	return m[id], nil
}

func TestService_UnknownMenuItemIsNotFound(t *testing.T) {
	burger := uuid.New()
	svc, _ := newTestService(t, WithMenuCatalog(knownMenu{burger: true}))
	ctx := context.Background()
	patty, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Patty", CurrentStock: dec("5")})
	require.NoError(t, err)
	_, err = svc.LinkIngredient(ctx, burger.String(), LinkIngredientRequest{InventoryItemID: patty.ID.String(), QuantityUsed: dec("1")})
	require.NoError(t, err)

	results, err := svc.DeductForSale(ctx, uuid.NewString(), 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Nil(t, results)

	_, err = svc.LinkIngredient(ctx, uuid.NewString(), LinkIngredientRequest{InventoryItemID: patty.ID.String(), QuantityUsed: dec("1")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	results, err = svc.DeductForSale(ctx, burger.String(), 2)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assertDec(t, "3", *results[0].RemainingStock)
}

func TestService_QuantityScale(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	item, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Salt", CurrentStock: dec("10")})
	require.NoError(t, err)

	tests := []struct {
		name  string
		field string
		run   func() error
	}{
		{"initial stock", "current_stock", func() error {
			_, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Pepper", CurrentStock: dec("1.0001")})
			return err
		}},
		{"use", "quantity", func() error {
			_, err := svc.UseStock(ctx, item.ID.String(), UseStockRequest{Quantity: dec("0.0005")})
			return err
		}},
		{"adjust", "new_quantity", func() error {
			_, err := svc.AdjustStock(ctx, item.ID.String(), AdjustStockRequest{NewQuantity: decPtr("9.9995")})
			return err
		}},
		{"ingredient", "quantity_used", func() error {
			_, err := svc.LinkIngredient(ctx, uuid.NewString(), LinkIngredientRequest{InventoryItemID: item.ID.String(), QuantityUsed: dec("0.0125")})
			return err
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var ve *apperr.ValidationError
			require.ErrorAs(t, tc.run(), &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	got, err := svc.GetItem(ctx, item.ID.String())
	require.NoError(t, err)
	assertDec(t, "10", got.CurrentStock)
}
