package inventory

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/platform/broker"
	"github.com/georgemunganga/restaurant-pos/internal/platform/cache"
)

const EventSaleCompleted = "SaleCompleted"

// SaleEvent is published by external terminals for sales that did not go
// through the order workflow of this service.
type SaleEvent struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   SalePayload `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type SalePayload struct {
	Reference string     `json:"reference"`
	Items     []SaleLine `json:"items"`
}

type SaleLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

// SaleListener deducts ingredients for sale events read from Kafka. Each
// event_id is claimed once so redelivered messages do not deduct twice.
type SaleListener struct {
	consumer broker.Reader
	service  Service
	idem     cache.IdempotencyStore
	logger   *zap.Logger
	backoff  time.Duration
}

func NewSaleListener(consumer broker.Reader, service Service, idem cache.IdempotencyStore, logger *zap.Logger) *SaleListener {
	return &SaleListener{
		consumer: consumer,
		service:  service,
		idem:     idem,
		logger:   logger,
		backoff:  time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (l *SaleListener) Start(ctx context.Context) {
	l.logger.Info("starting sale event listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping sale event listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *SaleListener) processMessage(ctx context.Context, value []byte) {
	var event SaleEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal sale event", zap.Error(err))
		return
	}
	if event.EventType != EventSaleCompleted {
		return
	}
	if event.EventID == "" {
		l.logger.Warn("sale event without event_id dropped", zap.String("reference", event.Payload.Reference))
		return
	}

	claimed, err := l.idem.Claim(ctx, "sale-event:"+event.EventID, 7*24*time.Hour)
	if err != nil {
		l.logger.Error("failed to claim sale event", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	if !claimed {
		l.logger.Info("duplicate sale event skipped", zap.String("event_id", event.EventID))
		return
	}

	for _, line := range event.Payload.Items {
		results, err := l.service.DeductForSale(ctx, line.MenuItemID, line.Quantity)
		if err != nil {
			l.logger.Error("failed to deduct ingredients for sale line",
				zap.String("event_id", event.EventID),
				zap.String("menu_item_id", line.MenuItemID),
				zap.Error(err))
			continue
		}
		for _, short := range Shortfalls(results) {
			l.logger.Warn("ingredient shortfall on sale",
				zap.String("event_id", event.EventID),
				zap.String("menu_item_id", line.MenuItemID),
				zap.String("inventory_item", short.InventoryItemName),
				zap.String("error", short.Error))
		}
	}
}
