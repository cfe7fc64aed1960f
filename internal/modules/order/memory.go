package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// MemoryRepository keeps orders in process for tests and demo mode.
type MemoryRepository struct {
	mu      sync.RWMutex
	orders  map[uuid.UUID]*Order
	history map[uuid.UUID][]*StatusChange
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:  map[uuid.UUID]*Order{},
		history: map[uuid.UUID][]*StatusChange{},
	}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) CreateOrder(_ context.Context, o *Order, initial *StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.OrderNumber == o.OrderNumber {
			return apperr.ErrConflict
		}
	}
	r.orders[o.ID] = cloneOrder(o)
	if initial != nil {
		ch := *initial
		r.history[o.ID] = append(r.history[o.ID], &ch)
	}
	return nil
}

func (r *MemoryRepository) GetOrder(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id.String())
	}
	return cloneOrder(o), nil
}

func (r *MemoryRepository) GetOrderByNumber(_ context.Context, orderNumber string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.OrderNumber == orderNumber {
			return cloneOrder(o), nil
		}
	}
	return nil, apperr.NotFound("order", orderNumber)
}

func (r *MemoryRepository) ListOrders(_ context.Context, f Filter) ([]*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Order
	for _, o := range r.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Type != "" && o.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && o.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !o.CreatedAt.Before(f.To) {
			continue
		}
		cp := cloneOrder(o)
		cp.Items = nil
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, o *Order, change *StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[o.ID]
	if !ok {
		return apperr.NotFound("order", o.ID.String())
	}
	if change.FromStatus != nil && stored.Status != *change.FromStatus {
		return apperr.ErrConflict
	}
	items := stored.Items
	r.orders[o.ID] = cloneOrder(o)
	r.orders[o.ID].Items = items
	ch := *change
	r.history[o.ID] = append(r.history[o.ID], &ch)
	return nil
}

func (r *MemoryRepository) ReplaceItems(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; !ok {
		return apperr.NotFound("order", o.ID.String())
	}
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

// UpdatePayment sets the payment method and status. Payments call it through
// pos.MemoryRepository; in Postgres the pos repository writes both tables in
// one transaction.
func (r *MemoryRepository) UpdatePayment(_ context.Context, id uuid.UUID, method PaymentMethod, status PaymentStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperr.NotFound("order", id.String())
	}
	o.PaymentMethod = method
	o.PaymentStatus = status
	o.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) History(_ context.Context, orderID uuid.UUID) ([]*StatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	trail := r.history[orderID]
	out := make([]*StatusChange, 0, len(trail))
	for i := len(trail) - 1; i >= 0; i-- {
		ch := *trail[i]
		out = append(out, &ch)
	}
	return out, nil
}

func (r *MemoryRepository) Sales(_ context.Context, start, end time.Time) (SalesSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := SalesSummary{Revenue: decimal.Zero}
	for _, o := range r.orders {
		if o.Status == StatusCancelled || o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		sum.Revenue = sum.Revenue.Add(o.Total)
		sum.Orders++
	}
	return sum, nil
}

func (r *MemoryRepository) TopSellers(_ context.Context, start, end time.Time, limit int) ([]TopSeller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byItem := map[uuid.UUID]*TopSeller{}
	var order []uuid.UUID
	for _, o := range r.orders {
		if o.Status == StatusCancelled || o.CreatedAt.Before(start) || !o.CreatedAt.Before(end) {
			continue
		}
		for _, it := range o.Items {
			ts, ok := byItem[it.MenuItemID]
			if !ok {
				ts = &TopSeller{MenuItemID: it.MenuItemID, MenuItemName: it.MenuItemName, Revenue: decimal.Zero}
				byItem[it.MenuItemID] = ts
				order = append(order, it.MenuItemID)
			}
			ts.Quantity += int64(it.Quantity)
			ts.Revenue = ts.Revenue.Add(it.ItemTotal)
		}
	}
	out := make([]TopSeller, 0, len(order))
	for _, id := range order {
		out = append(out, *byItem[id])
	}
	sort.Slice(out, func(i, j int) bool { return topSellerLess(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// topSellerLess orders by quantity descending, then name and id so ties are stable.
func topSellerLess(a, b TopSeller) bool {
	if a.Quantity != b.Quantity {
		return a.Quantity > b.Quantity
	}
	if a.MenuItemName != b.MenuItemName {
		return a.MenuItemName < b.MenuItemName
	}
	return a.MenuItemID.String() < b.MenuItemID.String()
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = make([]*Item, 0, len(o.Items))
	for _, it := range o.Items {
		ic := *it
		cp.Items = append(cp.Items, &ic)
	}
	return &cp
}
