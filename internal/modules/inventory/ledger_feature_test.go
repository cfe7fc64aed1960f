package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

type ledgerTestContext struct {
	svc     Service
	repo    *MemoryRepository
	items   map[string]*Item
	menu    map[string]uuid.UUID
	current *Item
	err     error
	results []DeductionResult
}

func (c *ledgerTestContext) reset() {
	c.repo = NewMemoryRepository()
	clock := t0
	c.svc = NewService(c.repo, c.repo, zap.NewNop(), WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	c.items = map[string]*Item{}
	c.menu = map[string]uuid.UUID{}
	c.current = nil
	c.err = nil
	c.results = nil
}

func (c *ledgerTestContext) anInventoryItemWithStockAndMinimum(name string, stock, minimum string) error {
	item, err := c.svc.CreateItem(context.Background(), CreateItemRequest{
		Name:         name,
		CurrentStock: decimal.RequireFromString(stock),
		MinimumStock: decimal.RequireFromString(minimum),
		UnitCost:     decimal.NewFromInt(2),
	})
	if err != nil {
		return err
	}
	c.items[name] = item
	if c.current == nil {
		c.current = item
	}
	return nil
}

func (c *ledgerTestContext) unitsAreUsed(qty string) error {
	_, c.err = c.svc.UseStock(context.Background(), c.current.ID.String(), UseStockRequest{Quantity: decimal.RequireFromString(qty)})
	return nil
}

func (c *ledgerTestContext) theStockIsAdjustedTo(target string) error {
	t := decimal.RequireFromString(target)
	_, c.err = c.svc.AdjustStock(context.Background(), c.current.ID.String(), AdjustStockRequest{NewQuantity: &t})
	return c.err
}

func (c *ledgerTestContext) movements() ([]*Movement, error) {
	return c.repo.ListMovements(context.Background(), c.current.ID, MovementFilter{})
}

func (c *ledgerTestContext) theItemHasMovements(n int) error {
	ms, err := c.movements()
	if err != nil {
		return err
	}
	if len(ms) != n {
		return fmt.Errorf("expected %d movements, got %d", n, len(ms))
	}
	return nil
}

func (c *ledgerTestContext) lastMovement() (*Movement, error) {
	ms, err := c.movements()
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, fmt.Errorf("no movements recorded")
	}
	return ms[len(ms)-1], nil
}

func (c *ledgerTestContext) theLastMovementIsFromToWithReason(typ, prev, next, reason string) error {
	m, err := c.lastMovement()
	if err != nil {
		return err
	}
	if string(m.Type) != typ || !m.PreviousStock.Equal(decimal.RequireFromString(prev)) ||
		!m.NewStock.Equal(decimal.RequireFromString(next)) || m.Reason != reason {
		return fmt.Errorf("got %s from %s to %s (%s)", m.Type, m.PreviousStock, m.NewStock, m.Reason)
	}
	return nil
}

func (c *ledgerTestContext) theLastMovementQuantityIs(qty string) error {
	m, err := c.lastMovement()
	if err != nil {
		return err
	}
	if !m.Quantity.Equal(decimal.RequireFromString(qty)) {
		return fmt.Errorf("expected quantity %s, got %s", qty, m.Quantity)
	}
	return nil
}

func (c *ledgerTestContext) theCurrentStockIs(qty string) error {
	item, err := c.repo.GetItem(context.Background(), c.current.ID)
	if err != nil {
		return err
	}
	if !item.CurrentStock.Equal(decimal.RequireFromString(qty)) {
		return fmt.Errorf("expected stock %s, got %s", qty, item.CurrentStock)
	}
	return nil
}

func (c *ledgerTestContext) theItemIsClassified(status string) error {
	item, err := c.repo.GetItem(context.Background(), c.current.ID)
	if err != nil {
		return err
	}
	if string(item.Status()) != status {
		return fmt.Errorf("expected %s, got %s", status, item.Status())
	}
	return nil
}

func (c *ledgerTestContext) theCurrentStockEqualsTheSignedSumOfMovements() error {
	ms, err := c.movements()
	if err != nil {
		return err
	}
	sum := decimal.Zero
	for _, m := range ms {
		sum = sum.Add(m.SignedQuantity())
	}
	return c.theCurrentStockIs(sum.String())
}

func (c *ledgerTestContext) theOperationFailsWithInsufficientStock(required, available string) error {
	ise, ok := apperr.IsInsufficientStock(c.err)
	if !ok {
		return fmt.Errorf("expected insufficient stock, got %v", c.err)
	}
	if !ise.Required.Equal(decimal.RequireFromString(required)) || !ise.Available.Equal(decimal.RequireFromString(available)) {
		return fmt.Errorf("got required %s available %s", ise.Required, ise.Available)
	}
	return nil
}

func (c *ledgerTestContext) theMenuItemUsesAnd(menuName, qtyA, itemA, qtyB, itemB string) error {
	id := uuid.New()
	c.menu[menuName] = id
	for _, link := range []struct{ qty, item string }{{qtyA, itemA}, {qtyB, itemB}} {
		_, err := c.svc.LinkIngredient(context.Background(), id.String(), LinkIngredientRequest{
			InventoryItemID: c.items[link.item].ID.String(),
			QuantityUsed:    decimal.RequireFromString(link.qty),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *ledgerTestContext) areSold(units int, menuName string) error {
	c.results, c.err = c.svc.DeductForSale(context.Background(), c.menu[menuName].String(), units)
	return c.err
}

func (c *ledgerTestContext) result(name string) (DeductionResult, error) {
	for _, r := range c.results {
		if r.InventoryItemID == c.items[name].ID {
			return r, nil
		}
	}
	return DeductionResult{}, fmt.Errorf("no deduction result for %s", name)
}

func (c *ledgerTestContext) wasDeductedLeaving(name, qty, remaining string) error {
	r, err := c.result(name)
	if err != nil {
		return err
	}
	if !r.OK() || !r.QuantityDeducted.Equal(decimal.RequireFromString(qty)) ||
		r.RemainingStock == nil || !r.RemainingStock.Equal(decimal.RequireFromString(remaining)) {
		return fmt.Errorf("unexpected result %+v", r)
	}
	return nil
}

func (c *ledgerTestContext) reportsInsufficientStock(name, required, available string) error {
	r, err := c.result(name)
	if err != nil {
		return err
	}
	if r.Error != DeductErrInsufficientStock || r.Required == nil || r.Available == nil ||
		!r.Required.Equal(decimal.RequireFromString(required)) || !r.Available.Equal(decimal.RequireFromString(available)) {
		return fmt.Errorf("unexpected result %+v", r)
	}
	return nil
}

func InitializeLedgerScenario(ctx *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an inventory item "([^"]*)" with stock (\d+(?:\.\d+)?) and minimum (\d+(?:\.\d+)?)$`, tc.anInventoryItemWithStockAndMinimum)
	ctx.Step(`^the menu item "([^"]*)" uses (\d+(?:\.\d+)?) "([^"]*)" and (\d+(?:\.\d+)?) "([^"]*)"$`, tc.theMenuItemUsesAnd)

	// When steps
	ctx.Step(`^(\d+(?:\.\d+)?) units are used$`, tc.unitsAreUsed)
	ctx.Step(`^the stock is adjusted to (\d+(?:\.\d+)?)$`, tc.theStockIsAdjustedTo)
	ctx.Step(`^(\d+) "([^"]*)" are sold$`, tc.areSold)

	// Then steps
	ctx.Step(`^the item has (\d+) movements?$`, tc.theItemHasMovements)
	ctx.Step(`^the last movement is "([^"]*)" from (\d+(?:\.\d+)?) to (\d+(?:\.\d+)?) with reason "([^"]*)"$`, tc.theLastMovementIsFromToWithReason)
	ctx.Step(`^the last movement quantity is (\d+(?:\.\d+)?)$`, tc.theLastMovementQuantityIs)
	ctx.Step(`^the current stock is (\d+(?:\.\d+)?)$`, tc.theCurrentStockIs)
	ctx.Step(`^the item is classified "([^"]*)"$`, tc.theItemIsClassified)
	ctx.Step(`^the current stock equals the signed sum of movements$`, tc.theCurrentStockEqualsTheSignedSumOfMovements)
	ctx.Step(`^the operation fails with insufficient stock, required (\d+(?:\.\d+)?) and available (\d+(?:\.\d+)?)$`, tc.theOperationFailsWithInsufficientStock)
	ctx.Step(`^"([^"]*)" was deducted (\d+(?:\.\d+)?) leaving (\d+(?:\.\d+)?)$`, tc.wasDeductedLeaving)
	ctx.Step(`^"([^"]*)" reports insufficient stock, required (\d+(?:\.\d+)?) and available (\d+(?:\.\d+)?)$`, tc.reportsInsufficientStock)
}

func TestLedgerFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeLedgerScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/ledger.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
