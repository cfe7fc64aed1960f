package pos

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

// declinedGateway leaves every collection pending.
type declinedGateway struct{}

func (declinedGateway) Collect(context.Context, Collection) (*ProviderResponse, error) {
	return &ProviderResponse{ProviderRef: "MTN-X", ProviderStatus: "PENDING"}, nil
}

func (declinedGateway) Refund(context.Context, string, decimal.Decimal) (*ProviderResponse, error) {
	return nil, errors.New("not collected")
}

func (declinedGateway) Normalise(string) CollectionStatus { return CollectionPending }

// countingGateway completes every collection and records refund references.
type countingGateway struct {
	refunds []string
}

func (g *countingGateway) Collect(_ context.Context, c Collection) (*ProviderResponse, error) {
	return &ProviderResponse{ProviderRef: "MTN-" + c.OrderNumber, ProviderStatus: "SUCCESSFUL"}, nil
}

func (g *countingGateway) Refund(_ context.Context, ref string, _ decimal.Decimal) (*ProviderResponse, error) {
	g.refunds = append(g.refunds, ref)
	return &ProviderResponse{ProviderRef: ref + "-R", ProviderStatus: "SUCCESSFUL"}, nil
}

func (g *countingGateway) Normalise(string) CollectionStatus { return CollectionCompleted }

func newGatewayService(t *testing.T, gateways GatewayRegistry) (Service, *fakeOrders) {
	orders := &fakeOrders{orders: map[string]*order.Order{}}
	return NewService(NewMemoryRepository(orders), orders, zaptest.NewLogger(t), WithGateways(gateways)), orders
}

func TestNormalise(t *testing.T) {
	mtn := NewMTNMomoGateway(GatewayConfig{Env: "sandbox"})
	airtel := NewAirtelMoneyGateway(GatewayConfig{Env: "sandbox"})
	tests := []struct {
		gw     Gateway
		status string
		want   CollectionStatus
	}{
		{mtn, "SUCCESSFUL", CollectionCompleted},
		{mtn, "failed", CollectionFailed},
		{mtn, "PENDING", CollectionPending},
		{airtel, "TS", CollectionCompleted},
		{airtel, "TF", CollectionFailed},
		{airtel, "DP", CollectionPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.gw.Normalise(tt.status), tt.status)
	}
}

func TestRecordPayment_MobileMoneyThroughGateway(t *testing.T) {
	svc, orders := newGatewayService(t, GatewayRegistry{
		ProviderMTNMomo: NewMTNMomoGateway(GatewayConfig{Env: "sandbox"}),
		ProviderAirtel:  NewAirtelMoneyGateway(GatewayConfig{Env: "sandbox"}),
	})
	ctx := context.Background()
	o := orders.add("42.50", order.StatusReady)

	tx, err := svc.RecordPayment(ctx, PaymentRequest{
		OrderID:       o.ID.String(),
		Amount:        decimal.RequireFromString("42.50"),
		PaymentMethod: order.PaymentMobileMoney,
		Provider:      "AIRTEL_MONEY",
		PhoneNumber:   "+260971234567",
	})
	require.NoError(t, err)
	assert.Equal(t, string(ProviderAirtel), tx.Provider)
	assert.True(t, strings.HasPrefix(tx.Reference, "ATL-"), tx.Reference)
	assert.Equal(t, order.PaymentPaid, orders.orders[o.ID.String()].PaymentStatus)

	refunded, err := svc.RefundTransaction(ctx, tx.ID.String(), RefundRequest{Reason: "wrong table"})
	require.NoError(t, err)
	assert.Equal(t, TxRefunded, refunded.Status)
}

func TestRecordPayment_MobileMoneyRejections(t *testing.T) {
	svc, orders := newGatewayService(t, GatewayRegistry{ProviderMTNMomo: declinedGateway{}})
	ctx := context.Background()

	tests := []struct {
		name  string
		req   func(id string) PaymentRequest
		field string
	}{
		{"unknown provider", func(id string) PaymentRequest {
			return PaymentRequest{OrderID: id, Amount: decimal.NewFromInt(10), PaymentMethod: order.PaymentMobileMoney, Provider: "zamtel", PhoneNumber: "0950000000"}
		}, "provider"},
		{"provider on cash", func(id string) PaymentRequest {
			return PaymentRequest{OrderID: id, Amount: decimal.NewFromInt(10), PaymentMethod: order.PaymentCash, Provider: ProviderMTNMomo}
		}, "provider"},
		{"missing phone", func(id string) PaymentRequest {
			return PaymentRequest{OrderID: id, Amount: decimal.NewFromInt(10), PaymentMethod: order.PaymentMobileMoney, Provider: ProviderMTNMomo}
		}, "phone_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := orders.add("10", order.StatusReady)
			_, err := svc.RecordPayment(ctx, tt.req(o.ID.String()))
			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	o := orders.add("10", order.StatusReady)
	_, err := svc.RecordPayment(ctx, PaymentRequest{
		OrderID:       o.ID.String(),
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: order.PaymentMobileMoney,
		Provider:      ProviderMTNMomo,
		PhoneNumber:   "0961111111",
	})
	assert.True(t, errors.Is(err, apperr.ErrConflict), "got %v", err)
	assert.Equal(t, order.PaymentUnpaid, orders.orders[o.ID.String()].PaymentStatus)
}

func TestRecordPayment_SettlementFailureReversesCollection(t *testing.T) {
	gw := &countingGateway{}
	svc, orders := newGatewayService(t, GatewayRegistry{ProviderMTNMomo: gw})
	ctx := context.Background()
	o := orders.add("30", order.StatusReady)
	req := PaymentRequest{
		OrderID:       o.ID.String(),
		Amount:        decimal.NewFromInt(30),
		PaymentMethod: order.PaymentMobileMoney,
		Provider:      ProviderMTNMomo,
		PhoneNumber:   "0961111111",
	}

	orders.paymentErr = errors.New("connection reset")
	_, err := svc.RecordPayment(ctx, req)
	require.Error(t, err)
	assert.Equal(t, []string{"MTN-" + o.OrderNumber}, gw.refunds, "wallet charge is reversed")
	assert.Equal(t, order.PaymentUnpaid, orders.orders[o.ID.String()].PaymentStatus)

	orders.paymentErr = nil
	tx, err := svc.RecordPayment(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "MTN-"+o.OrderNumber, tx.Reference)
	assert.Len(t, gw.refunds, 1)
}
