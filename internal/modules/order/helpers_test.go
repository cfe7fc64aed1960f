package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
	"github.com/georgemunganga/restaurant-pos/internal/modules/menu"
)

var t0 = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(Event))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	svc       Service
	repo      *MemoryRepository
	menus     *menu.MemoryRepository
	inventory inventory.Service
	published *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	clock := t0
	now := func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	invRepo := inventory.NewMemoryRepository()
	menus := menu.NewMemoryRepository()
	f := &fixture{
		repo:      NewMemoryRepository(),
		menus:     menus,
		inventory: inventory.NewService(invRepo, invRepo, log, inventory.WithClock(now), inventory.WithMenuCatalog(menus)),
		published: &recordingPublisher{},
	}
	f.svc = NewService(f.repo, f.menus, f.inventory, log, WithPublisher(f.published), WithClock(now))
	return f
}

func (f *fixture) menuItem(t *testing.T, name, price string, available bool) *menu.Item {
	t.Helper()
	item := &menu.Item{
		ID:          uuid.New(),
		Name:        name,
		Category:    "Mains",
		Price:       decimal.RequireFromString(price),
		IsAvailable: available,
	}
	require.NoError(t, f.menus.Create(context.Background(), item))
	return item
}

func (f *fixture) stock(t *testing.T, name, qty string) *inventory.Item {
	t.Helper()
	item, err := f.inventory.CreateItem(context.Background(), inventory.CreateItemRequest{
		Name:         name,
		CurrentStock: decimal.RequireFromString(qty),
		MinimumStock: decimal.NewFromInt(1),
		UnitCost:     decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) link(t *testing.T, menuItem *menu.Item, inv *inventory.Item, qty string) {
	t.Helper()
	_, err := f.inventory.LinkIngredient(context.Background(), menuItem.ID.String(), inventory.LinkIngredientRequest{
		InventoryItemID: inv.ID.String(),
		QuantityUsed:    decimal.RequireFromString(qty),
	})
	require.NoError(t, err)
}

func dineIn(lines ...LineRequest) PlaceOrderRequest {
	return PlaceOrderRequest{Type: TypeDineIn, TableNumber: "T4", Items: lines}
}

func line(item *menu.Item, qty int) LineRequest {
	return LineRequest{MenuItemID: item.ID.String(), Quantity: qty}
}
