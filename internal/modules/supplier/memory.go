package supplier

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

type MemoryRepository struct {
	mu        sync.RWMutex
	suppliers map[uuid.UUID]*Supplier
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{suppliers: map[uuid.UUID]*Supplier{}}
}

func (r *MemoryRepository) CreateSupplier(_ context.Context, s *Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.suppliers {
		if existing.Name == s.Name {
			return apperr.ErrConflict
		}
	}
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetSupplier(_ context.Context, id uuid.UUID) (*Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.suppliers[id]
	if !ok {
		return nil, apperr.NotFound("supplier", id.String())
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) ListSuppliers(_ context.Context, activeOnly bool) ([]*Supplier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Supplier
	for _, s := range r.suppliers {
		if activeOnly && !s.IsActive {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) UpdateSupplier(_ context.Context, s *Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[s.ID]; !ok {
		return apperr.NotFound("supplier", s.ID.String())
	}
	cp := *s
	r.suppliers[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) CountSuppliers(ctx context.Context, activeOnly bool) (int, error) {
	list, err := r.ListSuppliers(ctx, activeOnly)
	return len(list), err
}
