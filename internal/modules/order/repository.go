package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists a new order, its items and the first history row atomically.
	CreateOrder(ctx context.Context, o *Order, initial *StatusChange) error

	// GetOrder retrieves an order with its items.
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable order number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)

	// ListOrders returns orders newest first, without items.
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateStatus persists o's new status and status timestamp and appends
	// change, provided the stored status still equals change.FromStatus.
	// A lost race returns apperr.ErrConflict.
	UpdateStatus(ctx context.Context, o *Order, change *StatusChange) error

	// ReplaceItems swaps the order's lines and totals.
	ReplaceItems(ctx context.Context, o *Order) error

	// History returns the status trail newest first.
	History(ctx context.Context, orderID uuid.UUID) ([]*StatusChange, error)

	// Sales and TopSellers aggregate orders created in [start, end), cancelled excluded.
	Sales(ctx context.Context, start, end time.Time) (SalesSummary, error)
	TopSellers(ctx context.Context, start, end time.Time, limit int) ([]TopSeller, error)
}
