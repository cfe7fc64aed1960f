package inventory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/restaurant-pos/internal/platform/broker"
	"github.com/georgemunganga/restaurant-pos/internal/platform/cache"
)

// chanReader feeds queued messages and blocks until ctx ends once drained.
type chanReader struct{ ch chan broker.Message }

func (r *chanReader) ReadMessage(ctx context.Context) (broker.Message, error) {
	select {
	case m := <-r.ch:
		return m, nil
	case <-ctx.Done():
		return broker.Message{}, ctx.Err()
	}
}

func (r *chanReader) Close() error { return nil }

func saleMessage(t *testing.T, eventID string, menuItem uuid.UUID, qty int) broker.Message {
	t.Helper()
	value, err := json.Marshal(SaleEvent{
		EventID:   eventID,
		EventType: EventSaleCompleted,
		Payload:   SalePayload{Reference: "till-3", Items: []SaleLine{{MenuItemID: menuItem.String(), Quantity: qty}}},
		Timestamp: t0,
	})
	require.NoError(t, err)
	return broker.Message{Key: []byte(eventID), Value: value}
}

func TestSaleListener_DeductsOncePerEvent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	menuItem := uuid.New()
	rice, err := svc.CreateItem(ctx, CreateItemRequest{Name: "Rice", CurrentStock: dec("10")})
	require.NoError(t, err)
	_, err = svc.LinkIngredient(ctx, menuItem.String(), LinkIngredientRequest{InventoryItemID: rice.ID.String(), QuantityUsed: dec("0.5")})
	require.NoError(t, err)

	reader := &chanReader{ch: make(chan broker.Message, 4)}
	reader.ch <- saleMessage(t, "evt-1", menuItem, 2)
	reader.ch <- saleMessage(t, "evt-1", menuItem, 2) // redelivery
	reader.ch <- broker.Message{Value: []byte(`{"event_type":"OrderCreated","event_id":"x"}`)}
	reader.ch <- saleMessage(t, "evt-2", menuItem, 4)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	listener := NewSaleListener(reader, svc, cache.NewMemoryStore(), zaptest.NewLogger(t))
	go func() {
		listener.Start(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(reader.ch) == 0 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		got, _ := repo.GetItem(ctx, rice.ID)
		return got.CurrentStock.Equal(dec("7"))
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	outs, err := repo.ListMovements(ctx, rice.ID, MovementFilter{Type: MovementOut})
	require.NoError(t, err)
	assert.Len(t, outs, 2, "evt-1 applied once, evt-2 once")
}

func TestSaleListener_IgnoresMalformedPayload(t *testing.T) {
	svc, _ := newTestService(t)
	listener := NewSaleListener(&chanReader{}, svc, cache.NewMemoryStore(), zaptest.NewLogger(t))
	assert.NotPanics(t, func() {
		listener.processMessage(context.Background(), []byte("not json"))
		listener.processMessage(context.Background(), []byte(`{"event_type":"SaleCompleted"}`))
	})
}
