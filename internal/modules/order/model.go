package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Type indicates how the order is served.
type Type string

const (
	TypeDineIn   Type = "dine_in"
	TypeTakeaway Type = "takeaway"
	TypeDelivery Type = "delivery"
)

func (t Type) Valid() bool {
	switch t {
	case TypeDineIn, TypeTakeaway, TypeDelivery:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentMobileMoney PaymentMethod = "mobile_money"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentMobileMoney:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Order is a customer's order with its computed totals.
type Order struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	OrderNumber   string          `db:"order_number" json:"order_number"`
	Type          Type            `db:"order_type" json:"order_type"`
	TableNumber   string          `db:"table_number" json:"table_number,omitempty"`
	CustomerName  string          `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone string          `db:"customer_phone" json:"customer_phone,omitempty"`
	Status        Status          `db:"status" json:"status"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
	PaymentStatus PaymentStatus   `db:"payment_status" json:"payment_status"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
	Tax           decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	Discount      decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	Total         decimal.Decimal `db:"total_amount" json:"total_amount"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
	CreatedBy     *uuid.UUID      `db:"created_by" json:"created_by,omitempty"`
	ConfirmedAt   *time.Time      `db:"confirmed_at" json:"confirmed_at,omitempty"`
	PreparingAt   *time.Time      `db:"preparing_at" json:"preparing_at,omitempty"`
	ReadyAt       *time.Time      `db:"ready_at" json:"ready_at,omitempty"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt   *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	Items         []*Item         `db:"-" json:"items,omitempty"`
}

// Item is a single line of an order. The menu item name and price are
// captured at order time.
type Item struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	OrderID      uuid.UUID       `db:"order_id" json:"order_id"`
	MenuItemID   uuid.UUID       `db:"menu_item_id" json:"menu_item_id"`
	MenuItemName string          `db:"menu_item_name" json:"menu_item_name"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	ItemTotal    decimal.Decimal `db:"item_total" json:"item_total"`
	Notes        string          `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// StatusChange is one row of an order's append-only status history.
type StatusChange struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	OrderID    uuid.UUID  `db:"order_id" json:"order_id"`
	FromStatus *Status    `db:"from_status" json:"from_status,omitempty"`
	ToStatus   Status     `db:"to_status" json:"to_status"`
	ChangedBy  *uuid.UUID `db:"changed_by" json:"changed_by,omitempty"`
	Notes      string     `db:"notes" json:"notes,omitempty"`
	ChangedAt  time.Time  `db:"changed_at" json:"changed_at"`
}

type Filter struct {
	Status Status
	Type   Type
	From   time.Time
	To     time.Time
	Limit  int
}

// TopSeller aggregates sold quantity and revenue for one menu item.
type TopSeller struct {
	MenuItemID   uuid.UUID       `db:"menu_item_id" json:"menu_item_id"`
	MenuItemName string          `db:"menu_item_name" json:"menu_item_name"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	Revenue      decimal.Decimal `db:"revenue" json:"revenue"`
}

// SalesSummary is revenue and order count over a window, cancelled orders excluded.
type SalesSummary struct {
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Orders  int             `db:"orders" json:"orders"`
}
