package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// MemoryRepository keeps items, movements and ingredient mappings in process.
// A single mutex plays the role of the row lock taken by the postgres store.
type MemoryRepository struct {
	mu          sync.Mutex
	items       map[uuid.UUID]*Item
	movements   map[uuid.UUID][]*Movement
	categories  []*Category
	ingredients map[uuid.UUID]*Ingredient
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:       map[uuid.UUID]*Item{},
		movements:   map[uuid.UUID][]*Movement{},
		ingredients: map[uuid.UUID]*Ingredient{},
	}
}

var (
	_ Repository       = (*MemoryRepository)(nil)
	_ RecipeRepository = (*MemoryRepository)(nil)
)

func (r *MemoryRepository) CreateItem(_ context.Context, item *Item, initial *Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if item.SKU != "" && existing.SKU == item.SKU {
			return apperr.ErrConflict
		}
	}
	cp := *item
	r.items[item.ID] = &cp
	if initial != nil {
		mv := *initial
		r.movements[item.ID] = append(r.movements[item.ID], &mv)
	}
	return nil
}

func (r *MemoryRepository) GetItem(_ context.Context, id uuid.UUID) (*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, apperr.NotFound("inventory item", id.String())
	}
	cp := *item
	return &cp, nil
}

func (r *MemoryRepository) ListItems(_ context.Context, f ItemFilter) ([]*Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	search := strings.ToLower(f.Search)
	var out []*Item
	for _, item := range r.items {
		if f.ActiveOnly && !item.IsActive {
			continue
		}
		if f.CategoryID != nil && (item.CategoryID == nil || *item.CategoryID != *f.CategoryID) {
			continue
		}
		if f.LowStock && !item.IsLowStock() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.SKU), search) {
			continue
		}
		cp := *item
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) UpdateItem(_ context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[item.ID]
	if !ok {
		return apperr.NotFound("inventory item", item.ID.String())
	}
	cp := *item
	cp.CurrentStock = existing.CurrentStock
	cp.LastRestockedAt = existing.LastRestockedAt
	r.items[item.ID] = &cp
	return nil
}

func (r *MemoryRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return apperr.NotFound("inventory item", id.String())
	}
	item.IsActive = active
	return nil
}

func (r *MemoryRepository) DeleteItem(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NotFound("inventory item", id.String())
	}
	delete(r.items, id)
	delete(r.movements, id)
	for ingID, ing := range r.ingredients {
		if ing.InventoryItemID == id {
			delete(r.ingredients, ingID)
		}
	}
	return nil
}

func (r *MemoryRepository) ApplyMovement(_ context.Context, itemID uuid.UUID, fn MutateFunc) (*Item, *Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[itemID]
	if !ok {
		return nil, nil, apperr.NotFound("inventory item", itemID.String())
	}
	work := *stored
	m, err := fn(&work)
	if err != nil {
		return nil, nil, err
	}
	*stored = work
	mv := *m
	r.movements[itemID] = append(r.movements[itemID], &mv)
	out := work
	return &out, m, nil
}

// ordered returns the item's movements by movement_date then id.
func (r *MemoryRepository) ordered(itemID uuid.UUID) []*Movement {
	ms := append([]*Movement(nil), r.movements[itemID]...)
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].MovementDate.Equal(ms[j].MovementDate) {
			return ms[i].MovementDate.Before(ms[j].MovementDate)
		}
		return ms[i].ID.String() < ms[j].ID.String()
	})
	return ms
}

func (r *MemoryRepository) ListMovements(_ context.Context, itemID uuid.UUID, f MovementFilter) ([]*Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Movement
	for _, m := range r.ordered(itemID) {
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		if !f.From.IsZero() && m.MovementDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && m.MovementDate.After(f.To) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

func (r *MemoryRepository) LatestMovementBefore(_ context.Context, itemID uuid.UUID, t time.Time) (*Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *Movement
	for _, m := range r.ordered(itemID) {
		if !m.MovementDate.Before(t) {
			break
		}
		latest = m
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *MemoryRepository) SumQuantity(_ context.Context, itemID uuid.UUID, typ MovementType, start, end time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, m := range r.movements[itemID] {
		if m.Type != typ || m.MovementDate.Before(start) || m.MovementDate.After(end) {
			continue
		}
		sum = sum.Add(m.Quantity)
	}
	return sum, nil
}

func (r *MemoryRepository) CreateCategory(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return apperr.ErrConflict
		}
	}
	cp := *c
	r.categories = append(r.categories, &cp)
	return nil
}

func (r *MemoryRepository) ListCategories(_ context.Context) ([]*Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Category, 0, len(r.categories))
	for _, c := range r.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepository) CreateIngredient(_ context.Context, ing *Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[ing.InventoryItemID]; !ok {
		return apperr.NotFound("inventory item", ing.InventoryItemID.String())
	}
	for _, existing := range r.ingredients {
		if existing.IsActive && existing.MenuItemID == ing.MenuItemID && existing.InventoryItemID == ing.InventoryItemID {
			return apperr.ErrConflict
		}
	}
	cp := *ing
	r.ingredients[ing.ID] = &cp
	return nil
}

func (r *MemoryRepository) FindActiveIngredient(_ context.Context, menuItemID, inventoryItemID uuid.UUID) (*Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ing := range r.ingredients {
		if ing.IsActive && ing.MenuItemID == menuItemID && ing.InventoryItemID == inventoryItemID {
			return r.withName(ing), nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ListActiveIngredients(_ context.Context, menuItemID uuid.UUID) ([]*Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Ingredient
	for _, ing := range r.ingredients {
		if ing.IsActive && ing.MenuItemID == menuItemID {
			out = append(out, r.withName(ing))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *MemoryRepository) DeactivateIngredient(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ing, ok := r.ingredients[id]
	if !ok {
		return apperr.NotFound("ingredient mapping", id.String())
	}
	ing.IsActive = false
	return nil
}

func (r *MemoryRepository) CountLinkedItems(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[uuid.UUID]struct{}{}
	for _, ing := range r.ingredients {
		if ing.IsActive {
			seen[ing.InventoryItemID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (r *MemoryRepository) withName(ing *Ingredient) *Ingredient {
	cp := *ing
	if item, ok := r.items[ing.InventoryItemID]; ok {
		cp.InventoryItemName = item.Name
	}
	return &cp
}
