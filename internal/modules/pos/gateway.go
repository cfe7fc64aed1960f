package pos

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provider names a mobile money operator.
type Provider string

const (
	ProviderMTNMomo Provider = "mtn_momo"
	ProviderAirtel  Provider = "airtel_money"
)

// CollectionStatus is a provider status folded into our own vocabulary.
type CollectionStatus string

const (
	CollectionPending   CollectionStatus = "pending"
	CollectionCompleted CollectionStatus = "completed"
	CollectionFailed    CollectionStatus = "failed"
)

// Collection asks a customer's wallet to pay an order total.
type Collection struct {
	OrderNumber string
	PhoneNumber string
	Amount      decimal.Decimal
	Currency    string
}

// ProviderResponse is what an operator returns for a collection or refund.
type ProviderResponse struct {
	ProviderRef    string `json:"provider_ref"`
	ProviderStatus string `json:"provider_status"`
	Message        string `json:"message,omitempty"`
}

// Gateway is implemented once per mobile money operator.
type Gateway interface {
	Collect(ctx context.Context, c Collection) (*ProviderResponse, error)
	Refund(ctx context.Context, providerRef string, amount decimal.Decimal) (*ProviderResponse, error)
	// Normalise maps the operator's status string to a CollectionStatus.
	Normalise(providerStatus string) CollectionStatus
}

// GatewayRegistry maps providers to their gateways.
type GatewayRegistry map[Provider]Gateway

func (r GatewayRegistry) lookup(p Provider) (Gateway, bool) {
	g, ok := r[Provider(strings.ToLower(string(p)))]
	return g, ok
}

// GatewayConfig holds operator credentials. Env selects sandbox or production.
type GatewayConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Env       string
}

// MTN MoMo collections. The sandbox accepts every request immediately.
type mtnMomoGateway struct {
	cfg GatewayConfig
	now func() time.Time
}

func NewMTNMomoGateway(cfg GatewayConfig) Gateway {
	return &mtnMomoGateway{cfg: cfg, now: time.Now}
}

func (g *mtnMomoGateway) Collect(ctx context.Context, c Collection) (*ProviderResponse, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	// requesttopay is asynchronous in production; the sandbox settles at once.
	return &ProviderResponse{
		ProviderRef:    fmt.Sprintf("MTN-%s-%04d", g.now().Format("20060102150405"), rand.Intn(10000)),
		ProviderStatus: "SUCCESSFUL",
		Message:        fmt.Sprintf("%s %s collected from %s", c.Amount.StringFixed(2), c.Currency, c.PhoneNumber),
	}, nil
}

func (g *mtnMomoGateway) Refund(ctx context.Context, providerRef string, amount decimal.Decimal) (*ProviderResponse, error) {
	return &ProviderResponse{
		ProviderRef:    fmt.Sprintf("MTN-REF-%s-%04d", g.now().Format("20060102"), rand.Intn(10000)),
		ProviderStatus: "SUCCESSFUL",
		Message:        fmt.Sprintf("refund of %s %s initiated for %s", amount.StringFixed(2), Currency, providerRef),
	}, nil
}

func (g *mtnMomoGateway) Normalise(status string) CollectionStatus {
	switch strings.ToUpper(status) {
	case "SUCCESSFUL":
		return CollectionCompleted
	case "FAILED", "REJECTED":
		return CollectionFailed
	default:
		return CollectionPending
	}
}

// Airtel Money collections. Statuses: TS successful, TF failed, DP debit pending.
type airtelMoneyGateway struct {
	cfg GatewayConfig
	now func() time.Time
}

func NewAirtelMoneyGateway(cfg GatewayConfig) Gateway {
	return &airtelMoneyGateway{cfg: cfg, now: time.Now}
}

func (g *airtelMoneyGateway) Collect(ctx context.Context, c Collection) (*ProviderResponse, error) {
	if err := checkCollection(c); err != nil {
		return nil, err
	}
	return &ProviderResponse{
		ProviderRef:    fmt.Sprintf("ATL-%s-%04d", g.now().Format("20060102150405"), rand.Intn(10000)),
		ProviderStatus: "TS",
		Message:        fmt.Sprintf("%s %s collected from %s", c.Amount.StringFixed(2), c.Currency, c.PhoneNumber),
	}, nil
}

func (g *airtelMoneyGateway) Refund(ctx context.Context, providerRef string, amount decimal.Decimal) (*ProviderResponse, error) {
	return &ProviderResponse{
		ProviderRef:    fmt.Sprintf("ATL-REF-%s-%04d", g.now().Format("20060102"), rand.Intn(10000)),
		ProviderStatus: "TS",
		Message:        fmt.Sprintf("refund of %s %s initiated for %s", amount.StringFixed(2), Currency, providerRef),
	}, nil
}

func (g *airtelMoneyGateway) Normalise(status string) CollectionStatus {
	switch strings.ToUpper(status) {
	case "TS":
		return CollectionCompleted
	case "TF":
		return CollectionFailed
	default:
		return CollectionPending
	}
}

func checkCollection(c Collection) error {
	if c.PhoneNumber == "" {
		return fmt.Errorf("phone_number is required for mobile money")
	}
	if !c.Amount.IsPositive() {
		return fmt.Errorf("amount must be greater than 0")
	}
	return nil
}
