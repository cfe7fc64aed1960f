package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
	"github.com/georgemunganga/restaurant-pos/internal/modules/menu"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
	"github.com/georgemunganga/restaurant-pos/internal/platform/broker"
)

// Service defines the order management business logic.
type Service interface {
	// PlaceOrder prices the lines from the menu, calculates totals, and persists the order atomically.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error)

	GetOrder(ctx context.Context, id string) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListOrders(ctx context.Context, f Filter) ([]*Order, error)

	// UpdateStatus advances an order along the state machine. Completing an
	// order deducts ingredients for every line; shortfalls do not block it.
	UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*StatusResult, error)

	// CancelOrder cancels a pending, confirmed or preparing order.
	CancelOrder(ctx context.Context, id string, notes string) (*Order, error)

	// UpdateItems replaces the lines of an order that is not yet being prepared.
	UpdateItems(ctx context.Context, id string, req UpdateItemsRequest) (*Order, error)

	History(ctx context.Context, id string) ([]*StatusChange, error)
}

// MenuReader prices order lines.
type MenuReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*menu.Item, error)
}

// Deductor books ingredient usage for sold menu items.
type Deductor interface {
	DeductForSale(ctx context.Context, menuItemID string, units int) ([]inventory.DeductionResult, error)
}

type LineRequest struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// PlaceOrderRequest is the payload for creating a new order.
type PlaceOrderRequest struct {
	Type          Type            `json:"order_type"`
	TableNumber   string          `json:"table_number,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method,omitempty"`
	Discount      decimal.Decimal `json:"discount_amount"`
	Notes         string          `json:"notes,omitempty"`
	Items         []LineRequest   `json:"items"`
}

// UpdateStatusRequest is the payload for advancing an order's status.
type UpdateStatusRequest struct {
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type UpdateItemsRequest struct {
	Items    []LineRequest    `json:"items"`
	Discount *decimal.Decimal `json:"discount_amount,omitempty"`
}

// LineDeduction is the ingredient deduction outcome for one order line.
type LineDeduction struct {
	MenuItemID   uuid.UUID                   `json:"menu_item_id"`
	MenuItemName string                      `json:"menu_item_name"`
	Quantity     int                         `json:"quantity"`
	Results      []inventory.DeductionResult `json:"results"`
	Error        string                      `json:"error,omitempty"`
}

// StatusResult is the order after a transition plus any deductions it triggered.
type StatusResult struct {
	Order      *Order          `json:"order"`
	Deductions []LineDeduction `json:"deductions,omitempty"`
}

const (
	EventStatusChanged = "OrderStatusChanged"
	EventOrderPlaced   = "OrderPlaced"
)

// Event is published to the orders topic on placement and every transition.
type Event struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type EventPayload struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	FromStatus  Status          `json:"from_status,omitempty"`
	ToStatus    Status          `json:"to_status"`
	Total       decimal.Decimal `json:"total_amount"`
}

type Option func(*service)

func WithPublisher(p broker.Publisher) Option {
	return func(s *service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo      Repository
	menu      MenuReader
	deductor  Deductor
	publisher broker.Publisher
	log       *zap.Logger
	now       func() time.Time
}

// NewService creates a new order service.
func NewService(repo Repository, menus MenuReader, deductor Deductor, log *zap.Logger, opts ...Option) Service {
	s := &service{
		repo:      repo,
		menu:      menus,
		deductor:  deductor,
		publisher: broker.NopPublisher{},
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	orderType := req.Type
	if orderType == "" {
		orderType = TypeDineIn
	}
	if !orderType.Valid() {
		return nil, apperr.Invalid("order_type", "must be dine_in, takeaway or delivery")
	}
	method := req.PaymentMethod
	if method == "" {
		method = PaymentCash
	}
	if !method.Valid() {
		return nil, apperr.Invalid("payment_method", "must be cash, card or mobile_money")
	}

	now := s.now().UTC()
	o := &Order{
		ID:            uuid.New(),
		OrderNumber:   generateOrderNumber(now),
		Type:          orderType,
		TableNumber:   strings.TrimSpace(req.TableNumber),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Status:        StatusPending,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor := auth.ActorID(ctx); actor != uuid.Nil {
		o.CreatedBy = &actor
	}
	if o.Type == TypeDineIn && o.TableNumber == "" {
		return nil, apperr.Invalid("table_number", "is required for dine-in orders")
	}

	items, err := s.priceLines(ctx, o.ID, req.Items, now)
	if err != nil {
		return nil, err
	}
	o.Items = items
	if err := s.applyTotals(o, req.Discount); err != nil {
		return nil, err
	}

	initial := &StatusChange{
		ID:        uuid.New(),
		OrderID:   o.ID,
		ToStatus:  StatusPending,
		ChangedBy: o.CreatedBy,
		Notes:     "order placed",
		ChangedAt: now,
	}
	if err := s.repo.CreateOrder(ctx, o, initial); err != nil {
		return nil, err
	}
	s.log.Info("order placed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total", o.Total.StringFixed(2)))
	s.publish(ctx, EventOrderPlaced, o, "")
	return o, nil
}

// priceLines builds order lines from the current menu. Unknown and unavailable
// menu items are rejected.
func (s *service) priceLines(ctx context.Context, orderID uuid.UUID, lines []LineRequest, now time.Time) ([]*Item, error) {
	if len(lines) == 0 {
		return nil, apperr.Invalid("items", "must contain at least one item")
	}
	items := make([]*Item, 0, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		menuID, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].menu_item_id", i), "is not a valid uuid")
		}
		mi, err := s.menu.GetByID(ctx, menuID)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].menu_item_id", i), "does not exist")
		}
		if err != nil {
			return nil, err
		}
		if !mi.IsAvailable {
			return nil, apperr.Invalid(fmt.Sprintf("items[%d].menu_item_id", i), "%s is currently unavailable", mi.Name)
		}
		items = append(items, &Item{
			ID:           uuid.New(),
			OrderID:      orderID,
			MenuItemID:   mi.ID,
			MenuItemName: mi.Name,
			Quantity:     line.Quantity,
			UnitPrice:    mi.Price,
			Notes:        line.Notes,
			CreatedAt:    now,
		})
	}
	return items, nil
}

func (s *service) applyTotals(o *Order, discount decimal.Decimal) error {
	if discount.IsNegative() {
		return apperr.Invalid("discount_amount", "must not be negative")
	}
	t := ComputeTotals(o.Items, discount)
	if t.Total.IsNegative() {
		return apperr.Invalid("discount_amount", "exceeds the order total")
	}
	o.applyTotals(t)
	return nil
}

func (s *service) GetOrder(ctx context.Context, id string) (*Order, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetOrder(ctx, uid)
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.repo.GetOrderByNumber(ctx, orderNumber)
}

func (s *service) ListOrders(ctx context.Context, f Filter) ([]*Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Invalid("status", "unknown status %q", f.Status)
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, apperr.Invalid("order_type", "unknown order type %q", f.Type)
	}
	return s.repo.ListOrders(ctx, f)
}

func (s *service) UpdateStatus(ctx context.Context, id string, req UpdateStatusRequest) (*StatusResult, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next := Status(strings.ToLower(string(req.Status)))
	if !next.Valid() {
		return nil, apperr.Invalid("status", "unknown status %q", req.Status)
	}
	if !CanTransition(o.Status, next) {
		return nil, fmt.Errorf("cannot transition order from %s to %s: %w", o.Status, next, apperr.ErrConflict)
	}

	from := o.Status
	now := s.now().UTC()
	o.enter(next, now)
	change := &StatusChange{
		ID:         uuid.New(),
		OrderID:    o.ID,
		FromStatus: &from,
		ToStatus:   next,
		Notes:      req.Notes,
		ChangedAt:  now,
	}
	if actor := auth.ActorID(ctx); actor != uuid.Nil {
		change.ChangedBy = &actor
	}
	if err := s.repo.UpdateStatus(ctx, o, change); err != nil {
		return nil, err
	}
	s.log.Info("order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(next)))
	s.publish(ctx, EventStatusChanged, o, from)

	result := &StatusResult{Order: o}
	if next == StatusCompleted {
		result.Deductions = s.deductIngredients(ctx, o)
	}
	return result, nil
}

// deductIngredients runs the deduction engine for every line of a completed
// order. Failures are logged and reported, never returned.
func (s *service) deductIngredients(ctx context.Context, o *Order) []LineDeduction {
	out := make([]LineDeduction, 0, len(o.Items))
	for _, it := range o.Items {
		ld := LineDeduction{MenuItemID: it.MenuItemID, MenuItemName: it.MenuItemName, Quantity: it.Quantity}
		results, err := s.deductor.DeductForSale(ctx, it.MenuItemID.String(), it.Quantity)
		ld.Results = results
		if err != nil {
			ld.Error = err.Error()
			s.log.Error("ingredient deduction failed",
				zap.String("order_id", o.ID.String()),
				zap.String("menu_item_id", it.MenuItemID.String()),
				zap.Error(err))
		}
		for _, short := range inventory.Shortfalls(results) {
			s.log.Warn("ingredient shortfall on completed order",
				zap.String("order_number", o.OrderNumber),
				zap.String("menu_item", it.MenuItemName),
				zap.String("inventory_item", short.InventoryItemName),
				zap.String("error", short.Error))
		}
		out = append(out, ld)
	}
	return out
}

func (s *service) CancelOrder(ctx context.Context, id string, notes string) (*Order, error) {
	res, err := s.UpdateStatus(ctx, id, UpdateStatusRequest{Status: StatusCancelled, Notes: notes})
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

func (s *service) UpdateItems(ctx context.Context, id string, req UpdateItemsRequest) (*Order, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending && o.Status != StatusConfirmed {
		return nil, fmt.Errorf("order in status %s can no longer be edited: %w", o.Status, apperr.ErrConflict)
	}
	now := s.now().UTC()
	items, err := s.priceLines(ctx, o.ID, req.Items, now)
	if err != nil {
		return nil, err
	}
	discount := o.Discount
	if req.Discount != nil {
		discount = *req.Discount
	}
	o.Items = items
	if err := s.applyTotals(o, discount); err != nil {
		return nil, err
	}
	o.UpdatedAt = now
	if err := s.repo.ReplaceItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) History(ctx context.Context, id string) ([]*StatusChange, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.History(ctx, o.ID)
}

func (s *service) publish(ctx context.Context, eventType string, o *Order, from Status) {
	evt := Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload: EventPayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			FromStatus:  from,
			ToStatus:    o.Status,
			Total:       o.Total,
		},
		Timestamp: o.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, o.ID.String(), evt); err != nil {
		s.log.Warn("failed to publish order event",
			zap.String("order_id", o.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXXXX
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperr.Invalid("id", "is not a valid uuid")
	}
	return uid, nil
}
