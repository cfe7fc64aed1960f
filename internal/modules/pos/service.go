package pos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/modules/auth"
	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// Service defines POS business logic.
type Service interface {
	// RecordPayment settles an unpaid order. Cash may exceed the total and
	// returns change; card and mobile money must match it exactly.
	RecordPayment(ctx context.Context, req PaymentRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)
	ListOrderTransactions(ctx context.Context, orderID string) ([]*Transaction, error)
	ListTransactions(ctx context.Context, from, to time.Time) ([]*Transaction, error)
	// RefundTransaction refunds a completed transaction and marks its order refunded.
	RefundTransaction(ctx context.Context, id string, req RefundRequest) (*Transaction, error)
}

// Orders is the part of the order service payments depend on. Payment status
// itself is written by the Repository together with the transaction.
type Orders interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
}

type service struct {
	repo     Repository
	orders   Orders
	gateways GatewayRegistry
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*service)

// WithGateways enables mobile money collection through the given operators.
func WithGateways(g GatewayRegistry) Option {
	return func(s *service) { s.gateways = g }
}

func NewService(repo Repository, orders Orders, log *zap.Logger, opts ...Option) Service {
	s := &service{repo: repo, orders: orders, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) RecordPayment(ctx context.Context, req PaymentRequest) (*Transaction, error) {
	if req.OrderID == "" {
		return nil, apperr.Invalid("order_id", "is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.Invalid("amount", "must be greater than zero")
	}
	method := order.PaymentMethod(strings.ToLower(string(req.PaymentMethod)))
	if !method.Valid() {
		return nil, apperr.Invalid("payment_method", "must be cash, card or mobile_money")
	}

	o, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusCancelled {
		return nil, fmt.Errorf("order %s is cancelled: %w", o.OrderNumber, apperr.ErrConflict)
	}
	if o.PaymentStatus != order.PaymentUnpaid {
		return nil, fmt.Errorf("order %s is already %s: %w", o.OrderNumber, o.PaymentStatus, apperr.ErrConflict)
	}
	if req.Amount.LessThan(o.Total) {
		return nil, apperr.Invalid("amount", "%s does not cover the order total %s", req.Amount.StringFixed(2), o.Total.StringFixed(2))
	}
	if method != order.PaymentCash && !req.Amount.Equal(o.Total) {
		return nil, apperr.Invalid("amount", "must equal the order total for %s payments", method)
	}

	reference := strings.TrimSpace(req.Reference)
	var provider Provider
	if req.Provider != "" {
		if method != order.PaymentMobileMoney {
			return nil, apperr.Invalid("provider", "only applies to mobile_money payments")
		}
		if reference, err = s.collect(ctx, o, req); err != nil {
			return nil, err
		}
		provider = Provider(strings.ToLower(string(req.Provider)))
	}

	now := s.now().UTC()
	tx := &Transaction{
		ID:            uuid.New(),
		OrderID:       o.ID,
		Amount:        req.Amount,
		OrderTotal:    o.Total,
		ChangeGiven:   req.Amount.Sub(o.Total),
		Currency:      Currency,
		PaymentMethod: method,
		Provider:      string(provider),
		Reference:     reference,
		Status:        TxCompleted,
		Notes:         req.Notes,
		TransactedAt:  now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actor := auth.ActorID(ctx); actor != uuid.Nil {
		tx.CashierID = &actor
	}

	if err := s.repo.Settle(ctx, tx); err != nil {
		if provider != "" {
			s.reverse(ctx, provider, tx, err)
		}
		return nil, err
	}
	s.log.Info("payment recorded",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("method", string(method)),
		zap.String("amount", tx.Amount.StringFixed(2)))
	return tx, nil
}

// collect charges the customer's wallet and returns the operator reference.
// Anything short of a completed collection is a rejection.
func (s *service) collect(ctx context.Context, o *order.Order, req PaymentRequest) (string, error) {
	gw, ok := s.gateways.lookup(req.Provider)
	if !ok {
		return "", apperr.Invalid("provider", "unsupported provider %q", req.Provider)
	}
	phone := strings.TrimSpace(req.PhoneNumber)
	if phone == "" {
		return "", apperr.Invalid("phone_number", "is required for mobile money")
	}
	resp, err := gw.Collect(ctx, Collection{
		OrderNumber: o.OrderNumber,
		PhoneNumber: phone,
		Amount:      o.Total,
		Currency:    Currency,
	})
	if err != nil {
		return "", fmt.Errorf("mobile money collection for %s: %w", o.OrderNumber, err)
	}
	if st := gw.Normalise(resp.ProviderStatus); st != CollectionCompleted {
		s.log.Warn("mobile money collection not completed",
			zap.String("order_number", o.OrderNumber),
			zap.String("provider", string(req.Provider)),
			zap.String("provider_status", resp.ProviderStatus))
		return "", fmt.Errorf("mobile money collection is %s: %w", st, apperr.ErrConflict)
	}
	return resp.ProviderRef, nil
}

// reverse refunds a wallet collection whose transaction could not be stored.
func (s *service) reverse(ctx context.Context, provider Provider, tx *Transaction, cause error) {
	fields := []zap.Field{
		zap.String("order_id", tx.OrderID.String()),
		zap.String("provider", string(provider)),
		zap.String("provider_ref", tx.Reference),
		zap.NamedError("cause", cause),
	}
	gw, _ := s.gateways.lookup(provider)
	if _, err := gw.Refund(ctx, tx.Reference, tx.Amount); err != nil {
		s.log.Error("mobile money collected but not settled; reversal failed", append(fields, zap.Error(err))...)
		return
	}
	s.log.Warn("mobile money collection reversed after settlement failure", fields...)
}

func (s *service) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("id", "is not a valid uuid")
	}
	return s.repo.GetByID(ctx, uid)
}

func (s *service) ListOrderTransactions(ctx context.Context, orderID string) ([]*Transaction, error) {
	uid, err := uuid.Parse(orderID)
	if err != nil {
		return nil, apperr.Invalid("order_id", "is not a valid uuid")
	}
	return s.repo.ListByOrder(ctx, uid)
}

func (s *service) ListTransactions(ctx context.Context, from, to time.Time) ([]*Transaction, error) {
	if to.IsZero() {
		to = s.now().UTC().Add(time.Second)
	}
	if !from.Before(to) {
		return nil, apperr.Invalid("from", "must be before to")
	}
	return s.repo.List(ctx, from, to)
}

func (s *service) RefundTransaction(ctx context.Context, id string, req RefundRequest) (*Transaction, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperr.Invalid("reason", "is required")
	}
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status != TxCompleted {
		return nil, fmt.Errorf("only completed transactions can be refunded, current status: %s: %w", tx.Status, apperr.ErrConflict)
	}
	if tx.Provider != "" {
		gw, ok := s.gateways.lookup(Provider(tx.Provider))
		if !ok {
			return nil, fmt.Errorf("no gateway for provider %s: %w", tx.Provider, apperr.ErrConflict)
		}
		resp, err := gw.Refund(ctx, tx.Reference, tx.Amount)
		if err != nil {
			return nil, fmt.Errorf("mobile money refund for %s: %w", tx.Reference, err)
		}
		s.log.Info("mobile money refund requested",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("provider_ref", resp.ProviderRef))
	}
	if err := s.repo.Refund(ctx, tx.ID, reason, s.now().UTC()); err != nil {
		return nil, err
	}
	s.log.Info("transaction refunded", zap.String("transaction_id", tx.ID.String()), zap.String("reason", reason))
	return s.repo.GetByID(ctx, tx.ID)
}
