package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/modules/supplier"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Wednesday.
var now = time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc       Service
	inventory inventory.Service
	orders    *order.MemoryRepository
	suppliers *supplier.MemoryRepository
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	f := &fixture{
		orders:    order.NewMemoryRepository(),
		suppliers: supplier.NewMemoryRepository(),
		clock:     now,
	}
	clock := func() time.Time { return f.clock }
	invRepo := inventory.NewMemoryRepository()
	f.inventory = inventory.NewService(invRepo, invRepo, log, inventory.WithClock(clock))
	f.svc = NewService(Sources{
		Items:     f.inventory,
		Ledger:    inventory.NewLedger(invRepo),
		Recipes:   invRepo,
		Suppliers: f.suppliers,
		Sales:     f.orders,
	}, log, WithClock(clock))
	return f
}

func (f *fixture) item(t *testing.T, name, current, minimum, maximum, cost string) *inventory.Item {
	t.Helper()
	it, err := f.inventory.CreateItem(context.Background(), inventory.CreateItemRequest{
		Name:          name,
		CurrentStock:  dec(current),
		MinimumStock:  dec(minimum),
		MaximumStock:  dec(maximum),
		UnitCost:      dec(cost),
		UnitOfMeasure: "kg",
	})
	require.NoError(t, err)
	return it
}

func (f *fixture) order(t *testing.T, at time.Time, total string, status order.Status, lines ...*order.Item) {
	t.Helper()
	o := &order.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-" + uuid.NewString()[:8],
		Status:      status,
		Total:       dec(total),
		CreatedAt:   at,
		UpdatedAt:   at,
		Items:       lines,
	}
	require.NoError(t, f.orders.CreateOrder(context.Background(), o, nil))
}

func line(menuItemID uuid.UUID, name string, qty int, total string) *order.Item {
	return &order.Item{ID: uuid.New(), MenuItemID: menuItemID, MenuItemName: name, Quantity: qty, ItemTotal: dec(total)}
}

func TestService_LowStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.item(t, "Chicken", "10", "5", "20", "3")
	f.item(t, "Potato", "2", "5", "10", "1")
	f.item(t, "Salt", "0", "1", "0", "5")

	items, err := f.svc.LowStock(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Salt", items[0].Name)
	assert.Equal(t, inventory.StatusOutOfStock, items[0].Status)
	assert.Equal(t, 1, items[0].DaysUntilStockout)

	assert.Equal(t, "Potato", items[1].Name)
	assert.Equal(t, inventory.StatusLowStock, items[1].Status)
	assert.Equal(t, 6, items[1].DaysUntilStockout)
	assert.Equal(t, "kg", items[1].UnitOfMeasure)

	limited, err := f.svc.LowStock(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Salt", limited[0].Name)
}

func TestService_InventoryStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	chicken := f.item(t, "Chicken", "10", "5", "20", "3")
	potato := f.item(t, "Potato", "2", "5", "10", "1")
	f.item(t, "Salt", "0", "1", "0", "5")

	meal, fries := uuid.NewString(), uuid.NewString()
	for _, link := range []struct {
		menu string
		item *inventory.Item
	}{{meal, chicken}, {meal, potato}, {fries, potato}} {
		_, err := f.inventory.LinkIngredient(ctx, link.menu, inventory.LinkIngredientRequest{
			InventoryItemID: link.item.ID.String(),
			QuantityUsed:    decimal.NewFromInt(1),
		})
		require.NoError(t, err)
	}

	for i, active := range []bool{true, true, false} {
		require.NoError(t, f.suppliers.CreateSupplier(ctx, &supplier.Supplier{
			ID:       uuid.New(),
			Name:     []string{"Farm Fresh", "Metro Meats", "Old Dairy"}[i],
			IsActive: active,
		}))
	}

	stats, err := f.svc.InventoryStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 1, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)
	assertDec(t, "32", stats.TotalValue)
	assertDec(t, "35", stats.AvgStockLevelPct)
	assert.Equal(t, 2, stats.AutoDeductItemCount)
	assert.Equal(t, 2, stats.SupplierCount)
}

func TestService_PeriodSales(t *testing.T) {
	f := newFixture(t)
	at := func(month time.Month, day, hour int) time.Time {
		return time.Date(2026, month, day, hour, 0, 0, 0, time.UTC)
	}
	f.order(t, at(3, 4, 10), "100", order.StatusCompleted)
	f.order(t, at(3, 4, 11), "50", order.StatusCancelled)
	f.order(t, at(3, 3, 9), "40", order.StatusCompleted)
	f.order(t, at(3, 2, 12), "60", order.StatusReady)
	f.order(t, at(3, 1, 18), "20", order.StatusCompleted)
	f.order(t, at(2, 25, 13), "80", order.StatusCompleted)

	sales, err := f.svc.PeriodSales(context.Background())
	require.NoError(t, err)

	assertDec(t, "100", sales.Today.Revenue)
	assert.Equal(t, 1, sales.Today.Orders)
	assertDec(t, "40", sales.Today.PreviousRevenue)
	assertDec(t, "150", sales.Today.RevenueGrowth)
	assertDec(t, "0", sales.Today.OrderGrowth)

	assertDec(t, "200", sales.ThisWeek.Revenue)
	assert.Equal(t, 3, sales.ThisWeek.Orders)
	assertDec(t, "100", sales.ThisWeek.PreviousRevenue)
	assert.Equal(t, 2, sales.ThisWeek.PreviousOrders)
	assertDec(t, "100", sales.ThisWeek.RevenueGrowth)
	assertDec(t, "50", sales.ThisWeek.OrderGrowth)

	assertDec(t, "220", sales.ThisMonth.Revenue)
	assert.Equal(t, 4, sales.ThisMonth.Orders)
	assertDec(t, "80", sales.ThisMonth.PreviousRevenue)
	assertDec(t, "175", sales.ThisMonth.RevenueGrowth)
	assertDec(t, "300", sales.ThisMonth.OrderGrowth)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), sales.ThisMonth.Start)
}

func TestService_TopSellers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	burger, fries := uuid.New(), uuid.New()

	f.order(t, now.Add(-2*time.Hour), "25", order.StatusCompleted, line(burger, "Beef Burger", 2, "25"))
	f.order(t, now.Add(-26*time.Hour), "34", order.StatusCompleted,
		line(burger, "Beef Burger", 2, "25"), line(fries, "Fries", 3, "9"))
	f.order(t, now.Add(-time.Hour), "15", order.StatusCancelled, line(fries, "Fries", 5, "15"))
	f.order(t, now.AddDate(0, 0, -10), "30", order.StatusCompleted, line(fries, "Fries", 10, "30"))

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	top, err := f.svc.TopSellers(ctx, start, now, 0)
	require.NoError(t, err)
	require.Len(t, top.Items, 2)
	assert.Equal(t, "Beef Burger", top.Items[0].MenuItemName)
	assert.Equal(t, int64(4), top.Items[0].Quantity)
	assertDec(t, "50", top.Items[0].Revenue)
	assert.Equal(t, int64(3), top.Items[1].Quantity)

	top, err = f.svc.TopSellers(ctx, start, now, 1)
	require.NoError(t, err)
	require.Len(t, top.Items, 1)

	_, err = f.svc.TopSellers(ctx, now, start, 5)
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start", ve.Field)
}

func TestService_StockPeriodSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := func(day, hour int) time.Time { return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC) }

	f.clock = at(1, 9)
	rice := f.item(t, "Rice", "10", "2", "50", "2")
	id := rice.ID.String()

	f.clock = at(2, 10)
	_, err := f.inventory.AddStock(ctx, id, inventory.AddStockRequest{Quantity: dec("5"), UnitCost: ptr(dec("2"))})
	require.NoError(t, err)
	f.clock = at(2, 11)
	_, err = f.inventory.UseStock(ctx, id, inventory.UseStockRequest{Quantity: dec("3"), Reason: "lunch prep"})
	require.NoError(t, err)
	f.clock = at(2, 12)
	_, err = f.inventory.AdjustStock(ctx, id, inventory.AdjustStockRequest{NewQuantity: ptr(dec("11")), Reason: "count"})
	require.NoError(t, err)
	f.clock = at(2, 13)
	_, err = f.inventory.RecordWaste(ctx, id, inventory.UseStockRequest{Quantity: dec("1"), Reason: "spilled"})
	require.NoError(t, err)
	f.clock = at(3, 10)
	_, err = f.inventory.UseStock(ctx, id, inventory.UseStockRequest{Quantity: dec("4")})
	require.NoError(t, err)

	summary, err := f.svc.StockPeriodSummary(ctx, at(2, 0), at(3, 0).Add(-time.Microsecond))
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	l := summary.Lines[0]
	assert.Equal(t, "Rice", l.Name)
	assertDec(t, "10", l.Opening)
	assertDec(t, "5", l.Received)
	assertDec(t, "4", l.Used, "the count correction from 12 to 11 is an out movement")
	assertDec(t, "1", l.Wasted)
	assertDec(t, "10", l.Closing)

	doc, err := f.svc.StockReportPDF(ctx, at(2, 0), at(3, 0))
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
