package pos

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines data access for POS transactions. Settle and Refund move
// the transaction and its order's payment status together or not at all.
type Repository interface {
	// Settle stores a completed transaction and marks its order paid.
	Settle(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*Transaction, error)
	List(ctx context.Context, from, to time.Time) ([]*Transaction, error)

	// Refund flips a completed transaction to refunded and marks its order
	// refunded. Any other current status returns apperr.ErrConflict.
	Refund(ctx context.Context, id uuid.UUID, reason string, at time.Time) error
}
