package menu

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Service defines menu business logic.
type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, f Filter) ([]*Item, error)
	UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*Item, error)
	SetAvailable(ctx context.Context, id string, available bool) (*Item, error)
	DeleteItem(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
}

// CreateItemRequest holds the data for creating a menu item.
type CreateItemRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Price           decimal.Decimal `json:"price"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	IsAvailable     *bool           `json:"is_available"`
	PreparationTime int             `json:"preparation_time"`
	Allergens       []string        `json:"allergens"`
	IsCombo         bool            `json:"is_combo"`
}

// UpdateItemRequest changes only the fields that are present.
type UpdateItemRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	Price           *decimal.Decimal `json:"price"`
	CostPrice       *decimal.Decimal `json:"cost_price"`
	IsAvailable     *bool            `json:"is_available"`
	PreparationTime *int             `json:"preparation_time"`
	Allergens       []string         `json:"allergens"`
	IsCombo         *bool            `json:"is_combo"`
}

type service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *zap.Logger) Service {
	return &service{repo: repo, log: log, now: time.Now}
}

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "General"
	}
	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	now := s.now().UTC()
	item := &Item{
		ID:              uuid.New(),
		Name:            name,
		Description:     strings.TrimSpace(req.Description),
		Category:        category,
		Price:           req.Price,
		CostPrice:       req.CostPrice,
		IsAvailable:     available,
		PreparationTime: req.PreparationTime,
		Allergens:       normalizeAllergens(req.Allergens),
		IsCombo:         req.IsCombo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := validate(item); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.log.Info("menu item created", zap.String("menu_item_id", item.ID.String()), zap.String("name", item.Name))
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, uid)
}

func (s *service) ListItems(ctx context.Context, f Filter) ([]*Item, error) {
	return s.repo.List(ctx, f)
}

func (s *service) UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.CostPrice != nil {
		item.CostPrice = *req.CostPrice
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.PreparationTime != nil {
		item.PreparationTime = *req.PreparationTime
	}
	if req.Allergens != nil {
		item.Allergens = normalizeAllergens(req.Allergens)
	}
	if req.IsCombo != nil {
		item.IsCombo = *req.IsCombo
	}
	if item.Name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	if err := validate(item); err != nil {
		return nil, err
	}
	item.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) SetAvailable(ctx context.Context, id string, available bool) (*Item, error) {
	return s.UpdateItem(ctx, id, UpdateItemRequest{IsAvailable: &available})
}

func (s *service) DeleteItem(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, uid)
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func validate(item *Item) error {
	if item.Price.IsNegative() {
		return apperr.Invalid("price", "must not be negative")
	}
	if item.CostPrice.IsNegative() {
		return apperr.Invalid("cost_price", "must not be negative")
	}
	if item.PreparationTime < 0 {
		return apperr.Invalid("preparation_time", "must not be negative")
	}
	return nil
}

// normalizeAllergens lower-cases, trims and de-duplicates allergen labels.
func normalizeAllergens(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, a := range in {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.Invalid("id", "is not a valid uuid")
	}
	return uid, nil
}
