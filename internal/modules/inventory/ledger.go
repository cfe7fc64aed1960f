package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

const (
	ReasonInitialStock = "initial_stock"
	ReasonPurchase     = "purchase"
	ReasonSale         = "sale"
	ReasonAdjustment   = "adjustment"
	ReasonWaste        = "waste"
)

// quantityScale matches the NUMERIC(14,3) quantity columns.
const quantityScale = 3

// Ledger is the only writer of an item's current stock. Every operation takes
// the acting user and timestamp explicitly through MovementMeta.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// RecordIn receives quantity at unitCost.
func (l *Ledger) RecordIn(ctx context.Context, itemID uuid.UUID, quantity, unitCost decimal.Decimal, reason string, meta MovementMeta) (*Movement, error) {
	if err := checkQuantityScale("quantity", quantity); err != nil {
		return nil, err
	}
	if !quantity.IsPositive() {
		return nil, apperr.Invalid("quantity", "must be positive")
	}
	if unitCost.IsNegative() {
		return nil, apperr.Invalid("unit_cost", "must not be negative")
	}
	if err := validateMeta(meta); err != nil {
		return nil, err
	}
	_, m, err := l.repo.ApplyMovement(ctx, itemID, func(item *Item) (*Movement, error) {
		return stockIn(item, quantity, unitCost, defaultReason(reason, ReasonPurchase), meta), nil
	})
	return m, err
}

// RecordOut consumes quantity valued at the item's standing unit cost.
func (l *Ledger) RecordOut(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, reason string, meta MovementMeta) (*Movement, error) {
	_, m, err := l.recordOut(ctx, itemID, MovementOut, quantity, defaultReason(reason, ReasonSale), meta)
	return m, err
}

// RecordWaste is a stock-out recorded as spoilage or breakage.
func (l *Ledger) RecordWaste(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal, reason string, meta MovementMeta) (*Movement, error) {
	_, m, err := l.recordOut(ctx, itemID, MovementWaste, quantity, defaultReason(reason, ReasonWaste), meta)
	return m, err
}

func (l *Ledger) recordOut(ctx context.Context, itemID uuid.UUID, typ MovementType, quantity decimal.Decimal, reason string, meta MovementMeta) (*Item, *Movement, error) {
	if err := checkQuantityScale("quantity", quantity); err != nil {
		return nil, nil, err
	}
	if !quantity.IsPositive() {
		return nil, nil, apperr.Invalid("quantity", "must be positive")
	}
	if err := validateMeta(meta); err != nil {
		return nil, nil, err
	}
	return l.repo.ApplyMovement(ctx, itemID, func(item *Item) (*Movement, error) {
		return stockOut(item, typ, quantity, reason, meta)
	})
}

// RecordAdjustment sets the stock to target, storing the absolute delta.
func (l *Ledger) RecordAdjustment(ctx context.Context, itemID uuid.UUID, target decimal.Decimal, reason string, meta MovementMeta) (*Movement, error) {
	if err := checkQuantityScale("new_quantity", target); err != nil {
		return nil, err
	}
	if target.IsNegative() {
		return nil, apperr.Invalid("new_quantity", "must not be negative")
	}
	if err := validateMeta(meta); err != nil {
		return nil, err
	}
	_, m, err := l.repo.ApplyMovement(ctx, itemID, func(item *Item) (*Movement, error) {
		return adjustTo(item, target, defaultReason(reason, ReasonAdjustment), meta), nil
	})
	return m, err
}

// OpeningStock is the closing balance of the latest movement strictly before asOf.
func (l *Ledger) OpeningStock(ctx context.Context, itemID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	m, err := l.repo.LatestMovementBefore(ctx, itemID, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	if m == nil {
		return decimal.Zero, nil
	}
	return m.NewStock, nil
}

// PeriodReceived sums `in` quantities dated within [start, end].
func (l *Ledger) PeriodReceived(ctx context.Context, itemID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	return l.repo.SumQuantity(ctx, itemID, MovementIn, start, end)
}

// PeriodUsed sums `out` quantities dated within [start, end].
func (l *Ledger) PeriodUsed(ctx context.Context, itemID uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	return l.repo.SumQuantity(ctx, itemID, MovementOut, start, end)
}

func stockIn(item *Item, quantity, unitCost decimal.Decimal, reason string, meta MovementMeta) *Movement {
	m := newMovement(item, MovementIn, quantity, unitCost, reason, meta)
	m.NewStock = item.CurrentStock.Add(quantity)
	item.CurrentStock = m.NewStock
	at := meta.At
	item.LastRestockedAt = &at
	item.UpdatedAt = meta.At
	return m
}

func stockOut(item *Item, typ MovementType, quantity decimal.Decimal, reason string, meta MovementMeta) (*Movement, error) {
	if quantity.GreaterThan(item.CurrentStock) {
		return nil, &apperr.InsufficientStockError{
			ItemID:    item.ID.String(),
			Required:  quantity,
			Available: item.CurrentStock,
		}
	}
	m := newMovement(item, typ, quantity, item.UnitCost, reason, meta)
	m.NewStock = item.CurrentStock.Sub(quantity)
	item.CurrentStock = m.NewStock
	item.UpdatedAt = meta.At
	return m, nil
}

func adjustTo(item *Item, target decimal.Decimal, reason string, meta MovementMeta) *Movement {
	delta := target.Sub(item.CurrentStock)
	typ := MovementAdjustment
	switch delta.Sign() {
	case 1:
		typ = MovementIn
	case -1:
		typ = MovementOut
	}
	m := newMovement(item, typ, delta.Abs(), item.UnitCost, reason, meta)
	m.NewStock = target
	item.CurrentStock = target
	item.UpdatedAt = meta.At
	return m
}

func newMovement(item *Item, typ MovementType, quantity, unitCost decimal.Decimal, reason string, meta MovementMeta) *Movement {
	m := &Movement{
		ID:            newMovementID(),
		ItemID:        item.ID,
		Type:          typ,
		Quantity:      quantity,
		UnitCost:      unitCost,
		TotalCost:     quantity.Mul(unitCost),
		PreviousStock: item.CurrentStock,
		Reason:        reason,
		SupplierID:    meta.SupplierID,
		BatchNumber:   meta.BatchNumber,
		ExpiryDate:    meta.ExpiryDate,
		Notes:         meta.Notes,
		MovementDate:  meta.At,
		CreatedAt:     meta.At,
	}
	if meta.Actor != uuid.Nil {
		actor := meta.Actor
		m.CreatedBy = &actor
	}
	return m
}

// newMovementID returns a time-ordered id. Within one process v7 ids are
// strictly increasing, so movements sharing a movement_date keep their
// recording order.
func newMovementID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// checkQuantityScale rejects quantities finer than the stored scale. Postgres
// would round quantity and new_stock independently and break the running sum.
func checkQuantityScale(field string, q decimal.Decimal) error {
	if q.Equal(q.Truncate(quantityScale)) {
		return nil
	}
	return apperr.Invalid(field, "must have at most %d decimal places", quantityScale)
}

func validateMeta(meta MovementMeta) error {
	if meta.At.IsZero() {
		return apperr.Invalid("movement_date", "is required")
	}
	return nil
}

func defaultReason(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}
