package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

const ReasonUsage = "usage"

// Service defines inventory business logic for items, the stock ledger and ingredient mappings.
type Service interface {
	// Item operations
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, f ItemFilter) ([]*Item, error)
	UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*Item, error)
	SetActive(ctx context.Context, id string, active bool) error
	DeleteItem(ctx context.Context, id string) error

	// Ledger operations
	AddStock(ctx context.Context, id string, req AddStockRequest) (*Movement, error)
	UseStock(ctx context.Context, id string, req UseStockRequest) (*Movement, error)
	AdjustStock(ctx context.Context, id string, req AdjustStockRequest) (*Movement, error)
	RecordWaste(ctx context.Context, id string, req UseStockRequest) (*Movement, error)
	ListMovements(ctx context.Context, id string, f MovementFilter) ([]*Movement, error)

	// Sale deduction and ingredient mappings
	DeductForSale(ctx context.Context, menuItemID string, units int) ([]DeductionResult, error)
	LinkIngredient(ctx context.Context, menuItemID string, req LinkIngredientRequest) (*Ingredient, error)
	ListIngredients(ctx context.Context, menuItemID string) ([]*Ingredient, error)
	UnlinkIngredient(ctx context.Context, id string) error
	Availability(ctx context.Context, menuItemID string) (*MenuAvailability, error)

	// Categories
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
}

// CreateItemRequest holds data for creating an inventory item. A positive
// CurrentStock is booked as an initial_stock movement.
type CreateItemRequest struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	CategoryID    string          `json:"category_id"`
	SupplierID    string          `json:"supplier_id"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MinimumStock  decimal.Decimal `json:"minimum_stock"`
	MaximumStock  decimal.Decimal `json:"maximum_stock"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	TrackStock    *bool           `json:"track_stock"`
}

// UpdateItemRequest changes descriptive fields only; stock moves through the ledger.
type UpdateItemRequest struct {
	Name          *string          `json:"name"`
	SKU           *string          `json:"sku"`
	CategoryID    *string          `json:"category_id"`
	SupplierID    *string          `json:"supplier_id"`
	MinimumStock  *decimal.Decimal `json:"minimum_stock"`
	MaximumStock  *decimal.Decimal `json:"maximum_stock"`
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	UnitOfMeasure *string          `json:"unit_of_measure"`
	TrackStock    *bool            `json:"track_stock"`
}

// AddStockRequest records a receipt. Quantity and UnitCost are both required.
type AddStockRequest struct {
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	SupplierID  string           `json:"supplier_id"`
	BatchNumber string           `json:"batch_number"`
	ExpiryDate  *time.Time       `json:"expiry_date"`
	Notes       string           `json:"notes"`
}

type UseStockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason"`
	Notes    string          `json:"notes"`
}

type AdjustStockRequest struct {
	NewQuantity *decimal.Decimal `json:"new_quantity"`
	Reason      string           `json:"reason"`
	Notes       string           `json:"notes"`
}

type LinkIngredientRequest struct {
	InventoryItemID string          `json:"inventory_item_id"`
	QuantityUsed    decimal.Decimal `json:"quantity_used"`
	UnitOfMeasure   string          `json:"unit_of_measure"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// IngredientAvailability is how many portions one ingredient's stock allows.
type IngredientAvailability struct {
	Ingredient   *Ingredient     `json:"ingredient"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MaxPortions  int64           `json:"max_portions"`
}

// MenuAvailability is bounded by the scarcest ingredient.
type MenuAvailability struct {
	MenuItemID  uuid.UUID                `json:"menu_item_id"`
	MaxPortions int64                    `json:"max_portions"`
	Ingredients []IngredientAvailability `json:"ingredients"`
}

// MenuCatalog confirms that a menu item exists before its recipe is used.
type MenuCatalog interface {
	MenuItemExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Option func(*service)

// WithAutoLinker enables ingredient auto-linking after item creation.
func WithAutoLinker(l *AutoLinker) Option {
	return func(s *service) { s.linker = l }
}

// WithMenuCatalog makes sale deductions and ingredient links reject unknown menu items.
func WithMenuCatalog(c MenuCatalog) Option {
	return func(s *service) { s.menu = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo    Repository
	recipes RecipeRepository
	ledger  *Ledger
	engine  *DeductionEngine
	linker  *AutoLinker
	menu    MenuCatalog
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a new inventory service.
func NewService(repo Repository, recipes RecipeRepository, log *zap.Logger, opts ...Option) Service {
	ledger := NewLedger(repo)
	s := &service{
		repo:    repo,
		recipes: recipes,
		ledger:  ledger,
		engine:  NewDeductionEngine(ledger, recipes),
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) meta(ctx context.Context) MovementMeta {
	return MovementMeta{Actor: auth.ActorID(ctx), At: s.now().UTC()}
}

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	for field, v := range map[string]decimal.Decimal{
		"current_stock": req.CurrentStock,
		"minimum_stock": req.MinimumStock,
		"maximum_stock": req.MaximumStock,
		"unit_cost":     req.UnitCost,
		"selling_price": req.SellingPrice,
	} {
		if v.IsNegative() {
			return nil, apperr.Invalid(field, "must not be negative")
		}
	}
	if err := checkQuantityScale("current_stock", req.CurrentStock); err != nil {
		return nil, err
	}
	categoryID, err := parseOptionalID("category_id", req.CategoryID)
	if err != nil {
		return nil, err
	}
	supplierID, err := parseOptionalID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		sku = generateSKU()
	}
	unit := req.UnitOfMeasure
	if unit == "" {
		unit = "piece"
	}
	trackStock := true
	if req.TrackStock != nil {
		trackStock = *req.TrackStock
	}

	meta := s.meta(ctx)
	item := &Item{
		ID:            uuid.New(),
		Name:          name,
		SKU:           sku,
		CategoryID:    categoryID,
		SupplierID:    supplierID,
		CurrentStock:  decimal.Zero,
		MinimumStock:  req.MinimumStock,
		MaximumStock:  req.MaximumStock,
		UnitCost:      req.UnitCost,
		SellingPrice:  req.SellingPrice,
		UnitOfMeasure: unit,
		IsActive:      true,
		TrackStock:    trackStock,
		CreatedAt:     meta.At,
		UpdatedAt:     meta.At,
	}
	var initial *Movement
	if req.CurrentStock.IsPositive() {
		meta.SupplierID = supplierID
		initial = stockIn(item, req.CurrentStock, req.UnitCost, ReasonInitialStock, meta)
	}
	if err := s.repo.CreateItem(ctx, item, initial); err != nil {
		return nil, err
	}
	s.log.Info("inventory item created",
		zap.String("item_id", item.ID.String()),
		zap.String("sku", item.SKU),
		zap.String("current_stock", item.CurrentStock.String()))

	if s.linker != nil {
		s.linker.Link(ctx, item)
	}
	return item, nil
}

func (s *service) GetItem(ctx context.Context, id string) (*Item, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetItem(ctx, uid)
}

func (s *service) ListItems(ctx context.Context, f ItemFilter) ([]*Item, error) {
	return s.repo.ListItems(ctx, f)
}

func (s *service) UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "must not be empty")
		}
		item.Name = name
	}
	if req.SKU != nil && strings.TrimSpace(*req.SKU) != "" {
		item.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.CategoryID != nil {
		if item.CategoryID, err = parseOptionalID("category_id", *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.SupplierID != nil {
		if item.SupplierID, err = parseOptionalID("supplier_id", *req.SupplierID); err != nil {
			return nil, err
		}
	}
	for field, pair := range map[string]struct {
		src *decimal.Decimal
		dst *decimal.Decimal
	}{
		"minimum_stock": {req.MinimumStock, &item.MinimumStock},
		"maximum_stock": {req.MaximumStock, &item.MaximumStock},
		"unit_cost":     {req.UnitCost, &item.UnitCost},
		"selling_price": {req.SellingPrice, &item.SellingPrice},
	} {
		if pair.src == nil {
			continue
		}
		if pair.src.IsNegative() {
			return nil, apperr.Invalid(field, "must not be negative")
		}
		*pair.dst = *pair.src
	}
	if req.UnitOfMeasure != nil && *req.UnitOfMeasure != "" {
		item.UnitOfMeasure = *req.UnitOfMeasure
	}
	if req.TrackStock != nil {
		item.TrackStock = *req.TrackStock
	}
	item.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) SetActive(ctx context.Context, id string, active bool) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.repo.SetActive(ctx, uid, active)
}

func (s *service) DeleteItem(ctx context.Context, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, uid); err != nil {
		return err
	}
	s.log.Info("inventory item deleted", zap.String("item_id", uid.String()))
	return nil
}

func (s *service) AddStock(ctx context.Context, id string, req AddStockRequest) (*Movement, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	if req.Quantity.IsZero() {
		return nil, apperr.Invalid("quantity", "is required")
	}
	if req.UnitCost == nil {
		return nil, apperr.Invalid("unit_cost", "is required")
	}
	meta := s.meta(ctx)
	if meta.SupplierID, err = parseOptionalID("supplier_id", req.SupplierID); err != nil {
		return nil, err
	}
	meta.BatchNumber = req.BatchNumber
	meta.ExpiryDate = req.ExpiryDate
	meta.Notes = req.Notes
	return s.ledger.RecordIn(ctx, uid, req.Quantity, *req.UnitCost, ReasonPurchase, meta)
}

func (s *service) UseStock(ctx context.Context, id string, req UseStockRequest) (*Movement, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	meta := s.meta(ctx)
	meta.Notes = req.Notes
	return s.ledger.RecordOut(ctx, uid, req.Quantity, defaultReason(req.Reason, ReasonUsage), meta)
}

func (s *service) AdjustStock(ctx context.Context, id string, req AdjustStockRequest) (*Movement, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	if req.NewQuantity == nil {
		return nil, apperr.Invalid("new_quantity", "is required")
	}
	meta := s.meta(ctx)
	meta.Notes = req.Notes
	return s.ledger.RecordAdjustment(ctx, uid, *req.NewQuantity, req.Reason, meta)
}

func (s *service) RecordWaste(ctx context.Context, id string, req UseStockRequest) (*Movement, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	meta := s.meta(ctx)
	meta.Notes = req.Notes
	return s.ledger.RecordWaste(ctx, uid, req.Quantity, req.Reason, meta)
}

func (s *service) ListMovements(ctx context.Context, id string, f MovementFilter) ([]*Movement, error) {
	uid, err := parseID("id", id)
	if err != nil {
		return nil, err
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Invalid("type", "unknown movement type %q", f.Type)
	}
	if _, err := s.repo.GetItem(ctx, uid); err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, uid, f)
}

func (s *service) DeductForSale(ctx context.Context, menuItemID string, units int) ([]DeductionResult, error) {
	uid, err := parseID("menu_item_id", menuItemID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMenuItem(ctx, uid); err != nil {
		return nil, err
	}
	results, err := s.engine.Deduct(ctx, uid, units, s.meta(ctx))
	if err != nil {
		return results, err
	}
	if short := Shortfalls(results); len(short) > 0 {
		s.log.Warn("sale deduction incomplete",
			zap.String("menu_item_id", uid.String()),
			zap.Int("units", units),
			zap.Int("shortfalls", len(short)))
	}
	return results, nil
}

func (s *service) requireMenuItem(ctx context.Context, id uuid.UUID) error {
	if s.menu == nil {
		return nil
	}
	ok, err := s.menu.MenuItemExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("menu item", id.String())
	}
	return nil
}

func (s *service) LinkIngredient(ctx context.Context, menuItemID string, req LinkIngredientRequest) (*Ingredient, error) {
	menuID, err := parseID("menu_item_id", menuItemID)
	if err != nil {
		return nil, err
	}
	invID, err := parseID("inventory_item_id", req.InventoryItemID)
	if err != nil {
		return nil, err
	}
	if err := checkQuantityScale("quantity_used", req.QuantityUsed); err != nil {
		return nil, err
	}
	if !req.QuantityUsed.IsPositive() {
		return nil, apperr.Invalid("quantity_used", "must be positive")
	}
	if err := s.requireMenuItem(ctx, menuID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, invID)
	if err != nil {
		return nil, err
	}
	unit := req.UnitOfMeasure
	if unit == "" {
		unit = item.UnitOfMeasure
	}
	now := s.now().UTC()
	ing := &Ingredient{
		ID:                uuid.New(),
		MenuItemID:        menuID,
		InventoryItemID:   invID,
		QuantityUsed:      req.QuantityUsed,
		UnitOfMeasure:     unit,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
		InventoryItemName: item.Name,
	}
	if err := s.recipes.CreateIngredient(ctx, ing); err != nil {
		return nil, err
	}
	return ing, nil
}

func (s *service) ListIngredients(ctx context.Context, menuItemID string) ([]*Ingredient, error) {
	uid, err := parseID("menu_item_id", menuItemID)
	if err != nil {
		return nil, err
	}
	return s.recipes.ListActiveIngredients(ctx, uid)
}

func (s *service) UnlinkIngredient(ctx context.Context, id string) error {
	uid, err := parseID("id", id)
	if err != nil {
		return err
	}
	return s.recipes.DeactivateIngredient(ctx, uid)
}

func (s *service) Availability(ctx context.Context, menuItemID string) (*MenuAvailability, error) {
	uid, err := parseID("menu_item_id", menuItemID)
	if err != nil {
		return nil, err
	}
	mappings, err := s.recipes.ListActiveIngredients(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := &MenuAvailability{MenuItemID: uid, Ingredients: make([]IngredientAvailability, 0, len(mappings))}
	for i, mapping := range mappings {
		item, err := s.repo.GetItem(ctx, mapping.InventoryItemID)
		if err != nil {
			return nil, err
		}
		n := MaxPortions(mapping, item)
		out.Ingredients = append(out.Ingredients, IngredientAvailability{
			Ingredient:   mapping,
			CurrentStock: item.CurrentStock,
			MaxPortions:  n,
		})
		if i == 0 || n < out.MaxPortions {
			out.MaxPortions = n
		}
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	c := &Category{
		ID:          uuid.New(),
		Name:        name,
		Description: req.Description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*Category, error) {
	return s.repo.ListCategories(ctx)
}

// generateSKU creates a readable stock keeping unit, e.g. INV-1A2B3C4D.
func generateSKU() string {
	return fmt.Sprintf("INV-%s", strings.ToUpper(uuid.New().String()[:8]))
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Invalid(field, "is not a valid id")
	}
	return id, nil
}

func parseOptionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
