package pos

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// OrderPayments writes an order's payment columns. order.MemoryRepository
// satisfies it.
type OrderPayments interface {
	UpdatePayment(ctx context.Context, id uuid.UUID, method order.PaymentMethod, status order.PaymentStatus, at time.Time) error
}

// MemoryRepository keeps transactions in memory. The order update runs under
// the repository lock before the transaction is stored, so a failed update
// leaves nothing behind.
type MemoryRepository struct {
	mu     sync.RWMutex
	txs    map[uuid.UUID]*Transaction
	orders OrderPayments
}

func NewMemoryRepository(orders OrderPayments) *MemoryRepository {
	return &MemoryRepository{txs: map[uuid.UUID]*Transaction{}, orders: orders}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Settle(ctx context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.txs {
		if existing.OrderID == tx.OrderID && existing.Status == TxCompleted {
			return apperr.ErrConflict
		}
	}
	if err := r.orders.UpdatePayment(ctx, tx.OrderID, tx.PaymentMethod, order.PaymentPaid, tx.TransactedAt); err != nil {
		return err
	}
	cp := *tx
	r.txs[tx.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[id]
	if !ok {
		return nil, apperr.NotFound("transaction", id.String())
	}
	cp := *tx
	return &cp, nil
}

func (r *MemoryRepository) ListByOrder(_ context.Context, orderID uuid.UUID) ([]*Transaction, error) {
	return r.filter(func(tx *Transaction) bool { return tx.OrderID == orderID }), nil
}

func (r *MemoryRepository) List(_ context.Context, from, to time.Time) ([]*Transaction, error) {
	return r.filter(func(tx *Transaction) bool {
		return !tx.TransactedAt.Before(from) && tx.TransactedAt.Before(to)
	}), nil
}

func (r *MemoryRepository) Refund(ctx context.Context, id uuid.UUID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok {
		return apperr.NotFound("transaction", id.String())
	}
	if tx.Status != TxCompleted {
		return apperr.ErrConflict
	}
	if err := r.orders.UpdatePayment(ctx, tx.OrderID, tx.PaymentMethod, order.PaymentRefunded, at); err != nil {
		return err
	}
	tx.Status = TxRefunded
	tx.RefundReason = reason
	tx.RefundedAt = &at
	tx.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) filter(keep func(*Transaction) bool) []*Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Transaction
	for _, tx := range r.txs {
		if keep(tx) {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactedAt.After(out[j].TransactedAt) })
	return out
}
