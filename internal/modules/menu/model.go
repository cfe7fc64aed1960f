package menu

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Item is a dish or drink that can be ordered.
type Item struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     string          `db:"description" json:"description,omitempty"`
	Category        string          `db:"category" json:"category"`
	Price           decimal.Decimal `db:"price" json:"price"`
	CostPrice       decimal.Decimal `db:"cost_price" json:"cost_price"`
	IsAvailable     bool            `db:"is_available" json:"is_available"`
	PreparationTime int             `db:"preparation_time" json:"preparation_time"`
	Allergens       pq.StringArray  `db:"allergens" json:"allergens"`
	IsCombo         bool            `db:"is_combo" json:"is_combo"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Margin is the gross profit per portion.
func (i *Item) Margin() decimal.Decimal {
	return i.Price.Sub(i.CostPrice)
}

type Filter struct {
	Category      string
	AvailableOnly bool
	Search        string
}
