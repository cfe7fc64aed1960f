package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies a ledger entry.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
	MovementTransfer   MovementType = "transfer"
	MovementWaste      MovementType = "waste"
)

// Valid reports whether t is one of the known movement types.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment, MovementTransfer, MovementWaste:
		return true
	}
	return false
}

// Sign is the multiplier applied to Quantity when replaying the ledger.
// Zero-delta adjustments and transfers do not move the stock of the item.
func (t MovementType) Sign() int64 {
	switch t {
	case MovementIn:
		return 1
	case MovementOut, MovementWaste:
		return -1
	default:
		return 0
	}
}

// StockStatus is the derived classification of an item's current stock.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "out_of_stock"
	StatusLowStock   StockStatus = "low_stock"
	StatusInStock    StockStatus = "in_stock"
)

// Item is a stockable raw material or finished good.
type Item struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	SKU             string          `db:"sku" json:"sku"`
	CategoryID      *uuid.UUID      `db:"category_id" json:"category_id,omitempty"`
	SupplierID      *uuid.UUID      `db:"supplier_id" json:"supplier_id,omitempty"`
	CurrentStock    decimal.Decimal `db:"current_stock" json:"current_stock"`
	MinimumStock    decimal.Decimal `db:"minimum_stock" json:"minimum_stock"`
	MaximumStock    decimal.Decimal `db:"maximum_stock" json:"maximum_stock"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	SellingPrice    decimal.Decimal `db:"selling_price" json:"selling_price"`
	UnitOfMeasure   string          `db:"unit_of_measure" json:"unit_of_measure"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	TrackStock      bool            `db:"track_stock" json:"track_stock"`
	LastRestockedAt *time.Time      `db:"last_restocked_at" json:"last_restocked_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// StockValue is the current stock valued at the standing unit cost.
func (i *Item) StockValue() decimal.Decimal {
	return i.CurrentStock.Mul(i.UnitCost)
}

// IsLowStock is true at or below the minimum threshold.
func (i *Item) IsLowStock() bool {
	return i.CurrentStock.LessThanOrEqual(i.MinimumStock)
}

// IsOutOfStock is true when nothing is left.
func (i *Item) IsOutOfStock() bool {
	return !i.CurrentStock.IsPositive()
}

// StockLevelPct is current stock as a percentage of the maximum. ok is false
// when the item has no positive maximum.
func (i *Item) StockLevelPct() (pct decimal.Decimal, ok bool) {
	if !i.MaximumStock.IsPositive() {
		return decimal.Zero, false
	}
	return i.CurrentStock.Div(i.MaximumStock).Mul(decimal.NewFromInt(100)), true
}

// Status is recomputed on every call and never stored.
func (i *Item) Status() StockStatus {
	switch {
	case i.IsOutOfStock():
		return StatusOutOfStock
	case i.IsLowStock():
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// Category groups inventory items.
type Category struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Movement is one immutable ledger entry. Quantity is always non-negative;
// the direction comes from Type.
type Movement struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	ItemID        uuid.UUID       `db:"inventory_item_id" json:"inventory_item_id"`
	Type          MovementType    `db:"movement_type" json:"movement_type"`
	Quantity      decimal.Decimal `db:"quantity" json:"quantity"`
	UnitCost      decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	TotalCost     decimal.Decimal `db:"total_cost" json:"total_cost"`
	PreviousStock decimal.Decimal `db:"previous_stock" json:"previous_stock"`
	NewStock      decimal.Decimal `db:"new_stock" json:"new_stock"`
	Reason        string          `db:"reason" json:"reason"`
	SupplierID    *uuid.UUID      `db:"supplier_id" json:"supplier_id,omitempty"`
	BatchNumber   string          `db:"batch_number" json:"batch_number,omitempty"`
	ExpiryDate    *time.Time      `db:"expiry_date" json:"expiry_date,omitempty"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	MovementDate  time.Time       `db:"movement_date" json:"movement_date"`
	CreatedBy     *uuid.UUID      `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// SignedQuantity is the contribution of the movement to the running stock.
func (m *Movement) SignedQuantity() decimal.Decimal {
	return m.Quantity.Mul(decimal.NewFromInt(m.Type.Sign()))
}

// MovementMeta carries who recorded a movement and when, plus optional receipt details.
type MovementMeta struct {
	Actor       uuid.UUID
	At          time.Time
	SupplierID  *uuid.UUID
	BatchNumber string
	ExpiryDate  *time.Time
	Notes       string
}

// Ingredient links a menu item to the inventory item it consumes per unit sold.
type Ingredient struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	MenuItemID      uuid.UUID       `db:"menu_item_id" json:"menu_item_id"`
	InventoryItemID uuid.UUID       `db:"inventory_item_id" json:"inventory_item_id"`
	QuantityUsed    decimal.Decimal `db:"quantity_used" json:"quantity_used"`
	UnitOfMeasure   string          `db:"unit_of_measure" json:"unit_of_measure"`
	IsActive        bool            `db:"is_active" json:"is_active"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`

	// read-only, joined from inventory_items
	InventoryItemName string `db:"inventory_item_name" json:"inventory_item_name,omitempty"`
}

// ItemFilter narrows ListItems.
type ItemFilter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
	LowStock   bool
	Search     string
}

// MovementFilter narrows ListMovements. Zero times are open bounds.
type MovementFilter struct {
	Type  MovementType
	From  time.Time
	To    time.Time
	Limit int
}
