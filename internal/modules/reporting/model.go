package reporting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
)

// LowStockItem is one row of the low stock report.
type LowStockItem struct {
	ID                uuid.UUID             `json:"id"`
	Name              string                `json:"name"`
	CurrentStock      decimal.Decimal       `json:"current_stock"`
	MinimumStock      decimal.Decimal       `json:"minimum_stock"`
	UnitOfMeasure     string                `json:"unit_of_measure"`
	Status            inventory.StockStatus `json:"stock_status"`
	DaysUntilStockout int                   `json:"days_until_stockout"`
}

// InventoryStats summarises the whole active inventory.
type InventoryStats struct {
	TotalItems          int             `json:"total_items"`
	LowStockCount       int             `json:"low_stock_count"`
	OutOfStockCount     int             `json:"out_of_stock_count"`
	TotalValue          decimal.Decimal `json:"total_value"`
	AvgStockLevelPct    decimal.Decimal `json:"avg_stock_level_pct"`
	AutoDeductItemCount int             `json:"auto_deduct_item_count"`
	SupplierCount       int             `json:"supplier_count"`
}

// PeriodStat compares one window with the previous window of the same kind.
type PeriodStat struct {
	Start           time.Time       `json:"start"`
	End             time.Time       `json:"end"`
	Revenue         decimal.Decimal `json:"revenue"`
	Orders          int             `json:"orders"`
	PreviousRevenue decimal.Decimal `json:"previous_revenue"`
	PreviousOrders  int             `json:"previous_orders"`
	RevenueGrowth   decimal.Decimal `json:"revenue_growth_pct"`
	OrderGrowth     decimal.Decimal `json:"order_growth_pct"`
}

type PeriodSales struct {
	Today     PeriodStat `json:"today"`
	ThisWeek  PeriodStat `json:"this_week"`
	ThisMonth PeriodStat `json:"this_month"`
}

// StockSummaryLine reconciles one item's ledger over a period. Count
// corrections are booked as in or out movements, so they land in Received and
// Used; Wasted is what remains.
type StockSummaryLine struct {
	ItemID        uuid.UUID       `json:"item_id"`
	Name          string          `json:"name"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	Opening       decimal.Decimal `json:"opening"`
	Received      decimal.Decimal `json:"received"`
	Used          decimal.Decimal `json:"used"`
	Wasted        decimal.Decimal `json:"wasted"`
	Closing       decimal.Decimal `json:"closing"`
}

type StockSummary struct {
	Start time.Time          `json:"start"`
	End   time.Time          `json:"end"`
	Lines []StockSummaryLine `json:"lines"`
}

type TopSellers struct {
	Start time.Time         `json:"start"`
	End   time.Time         `json:"end"`
	Items []order.TopSeller `json:"items"`
}
