package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
)

// TxStatus represents the state of a POS transaction.
type TxStatus string

const (
	TxCompleted TxStatus = "completed"
	TxRefunded  TxStatus = "refunded"
)

const Currency = "ZMW"

// Transaction records a payment taken at the counter for one order.
type Transaction struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	OrderID       uuid.UUID           `db:"order_id" json:"order_id"`
	CashierID     *uuid.UUID          `db:"cashier_id" json:"cashier_id,omitempty"`
	Amount        decimal.Decimal     `db:"amount" json:"amount"`
	OrderTotal    decimal.Decimal     `db:"order_total" json:"order_total"`
	ChangeGiven   decimal.Decimal     `db:"change_given" json:"change_given"`
	Currency      string              `db:"currency" json:"currency"`
	PaymentMethod order.PaymentMethod `db:"payment_method" json:"payment_method"`
	Provider      string              `db:"provider" json:"provider,omitempty"`
	Reference     string              `db:"reference" json:"reference,omitempty"`
	Status        TxStatus            `db:"status" json:"status"`
	Notes         string              `db:"notes" json:"notes,omitempty"`
	RefundReason  string              `db:"refund_reason" json:"refund_reason,omitempty"`
	TransactedAt  time.Time           `db:"transacted_at" json:"transacted_at"`
	RefundedAt    *time.Time          `db:"refunded_at" json:"refunded_at,omitempty"`
	CreatedAt     time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time           `db:"updated_at" json:"updated_at"`
}

// PaymentRequest is the payload for recording a payment against an order.
type PaymentRequest struct {
	OrderID       string              `json:"order_id"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	// Provider and PhoneNumber route a mobile money payment through a
	// gateway. Without a provider the caller's Reference is recorded as is.
	Provider    Provider `json:"provider,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// RefundRequest is the payload for refunding a POS transaction.
type RefundRequest struct {
	Reason string `json:"reason"`
}
