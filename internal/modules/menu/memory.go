package menu

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// MemoryRepository is an in-process Repository used by tests and demo mode.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: map[uuid.UUID]*Item{}}
}

var _ Repository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Create(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Name == item.Name {
			return apperr.ErrConflict
		}
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("menu item", id.String())
	}
	cp := *item
	return &cp, nil
}

func (r *MemoryRepository) List(_ context.Context, f Filter) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []*Item
	for _, item := range r.items {
		if f.Category != "" && item.Category != f.Category {
			continue
		}
		if f.AvailableOnly && !item.IsAvailable {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return apperr.NotFound("menu item", item.ID.String())
	}
	for id, existing := range r.items {
		if id != item.ID && existing.Name == item.Name {
			return apperr.ErrConflict
		}
	}
	cp := *item
	r.items[item.ID] = &cp
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NotFound("menu item", id.String())
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]bool{}
	var cats []string
	for _, item := range r.items {
		if !seen[item.Category] {
			seen[item.Category] = true
			cats = append(cats, item.Category)
		}
	}
	sort.Strings(cats)
	return cats, nil
}

func (r *MemoryRepository) MenuItemIDByName(_ context.Context, name string) (uuid.UUID, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, item := range r.items {
		if item.Name == name {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

func (r *MemoryRepository) MenuItemExists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[id]
	return ok, nil
}
