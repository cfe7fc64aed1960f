package reporting

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
	"github.com/georgemunganga/restaurant-pos/internal/modules/order"
	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

const defaultTopSellers = 10

// Items lists inventory items.
type Items interface {
	ListItems(ctx context.Context, f inventory.ItemFilter) ([]*inventory.Item, error)
}

// Ledger answers period questions from the stock movement history.
type Ledger interface {
	OpeningStock(ctx context.Context, itemID uuid.UUID, asOf time.Time) (decimal.Decimal, error)
	PeriodReceived(ctx context.Context, itemID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
	PeriodUsed(ctx context.Context, itemID uuid.UUID, start, end time.Time) (decimal.Decimal, error)
}

type Recipes interface {
	CountLinkedItems(ctx context.Context) (int, error)
}

type Suppliers interface {
	CountSuppliers(ctx context.Context, activeOnly bool) (int, error)
}

// Sales aggregates orders over [start, end), cancelled orders excluded.
type Sales interface {
	Sales(ctx context.Context, start, end time.Time) (order.SalesSummary, error)
	TopSellers(ctx context.Context, start, end time.Time, limit int) ([]order.TopSeller, error)
}

// Service computes read-only statistics; it never mutates any entity.
type Service interface {
	LowStock(ctx context.Context, limit int) ([]LowStockItem, error)
	InventoryStats(ctx context.Context) (*InventoryStats, error)
	PeriodSales(ctx context.Context) (*PeriodSales, error)
	TopSellers(ctx context.Context, start, end time.Time, limit int) (*TopSellers, error)
	StockPeriodSummary(ctx context.Context, start, end time.Time) (*StockSummary, error)
	StockReportPDF(ctx context.Context, start, end time.Time) ([]byte, error)
}

type Sources struct {
	Items     Items
	Ledger    Ledger
	Recipes   Recipes
	Suppliers Suppliers
	Sales     Sales
}

type service struct {
	src Sources
	log *zap.Logger
	now func() time.Time
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func NewService(src Sources, log *zap.Logger, opts ...Option) Service {
	s := &service{src: src, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) LowStock(ctx context.Context, limit int) ([]LowStockItem, error) {
	items, err := s.src.Items.ListItems(ctx, inventory.ItemFilter{ActiveOnly: true, LowStock: true})
	if err != nil {
		return nil, err
	}
	out := make([]LowStockItem, 0, len(items))
	for _, it := range items {
		days, _ := DaysUntilStockout(it.CurrentStock, it.MinimumStock)
		out = append(out, LowStockItem{
			ID:                it.ID,
			Name:              it.Name,
			CurrentStock:      it.CurrentStock,
			MinimumStock:      it.MinimumStock,
			UnitOfMeasure:     it.UnitOfMeasure,
			Status:            it.Status(),
			DaysUntilStockout: days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CurrentStock.Equal(out[j].CurrentStock) {
			return out[i].CurrentStock.LessThan(out[j].CurrentStock)
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *service) InventoryStats(ctx context.Context) (*InventoryStats, error) {
	items, err := s.src.Items.ListItems(ctx, inventory.ItemFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	stats := &InventoryStats{TotalItems: len(items), TotalValue: decimal.Zero}
	for _, it := range items {
		switch it.Status() {
		case inventory.StatusOutOfStock:
			stats.OutOfStockCount++
		case inventory.StatusLowStock:
			stats.LowStockCount++
		}
		stats.TotalValue = stats.TotalValue.Add(it.StockValue())
	}
	stats.TotalValue = stats.TotalValue.Round(2)
	stats.AvgStockLevelPct = AvgStockLevelPct(items)

	if stats.AutoDeductItemCount, err = s.src.Recipes.CountLinkedItems(ctx); err != nil {
		return nil, err
	}
	if stats.SupplierCount, err = s.src.Suppliers.CountSuppliers(ctx, true); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *service) PeriodSales(ctx context.Context) (*PeriodSales, error) {
	now := s.now()
	day := dayWindow(now)
	week := weekWindow(now)
	month := monthWindow(now)

	var out PeriodSales
	var err error
	if out.Today, err = s.periodStat(ctx, day, day.previous()); err != nil {
		return nil, err
	}
	if out.ThisWeek, err = s.periodStat(ctx, week, week.previous()); err != nil {
		return nil, err
	}
	if out.ThisMonth, err = s.periodStat(ctx, month, previousMonth(month)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *service) periodStat(ctx context.Context, cur, prev window) (PeriodStat, error) {
	c, err := s.src.Sales.Sales(ctx, cur.start, cur.end)
	if err != nil {
		return PeriodStat{}, err
	}
	p, err := s.src.Sales.Sales(ctx, prev.start, prev.end)
	if err != nil {
		return PeriodStat{}, err
	}
	return PeriodStat{
		Start:           cur.start,
		End:             cur.end,
		Revenue:         c.Revenue,
		Orders:          c.Orders,
		PreviousRevenue: p.Revenue,
		PreviousOrders:  p.Orders,
		RevenueGrowth:   Growth(c.Revenue, p.Revenue),
		OrderGrowth:     Growth(decimal.NewFromInt(int64(c.Orders)), decimal.NewFromInt(int64(p.Orders))),
	}, nil
}

func (s *service) TopSellers(ctx context.Context, start, end time.Time, limit int) (*TopSellers, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultTopSellers
	}
	items, err := s.src.Sales.TopSellers(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	return &TopSellers{Start: start, End: end, Items: items}, nil
}

// StockPeriodSummary recomputes every active item's opening, receipts, usage
// and closing stock from the ledger. Closing is the stock after the last
// movement at or before end.
func (s *service) StockPeriodSummary(ctx context.Context, start, end time.Time) (*StockSummary, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}
	items, err := s.src.Items.ListItems(ctx, inventory.ItemFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	summary := &StockSummary{Start: start, End: end, Lines: make([]StockSummaryLine, 0, len(items))}
	for _, it := range items {
		line := StockSummaryLine{ItemID: it.ID, Name: it.Name, UnitOfMeasure: it.UnitOfMeasure}
		if line.Opening, err = s.src.Ledger.OpeningStock(ctx, it.ID, start); err != nil {
			return nil, err
		}
		if line.Received, err = s.src.Ledger.PeriodReceived(ctx, it.ID, start, end); err != nil {
			return nil, err
		}
		if line.Used, err = s.src.Ledger.PeriodUsed(ctx, it.ID, start, end); err != nil {
			return nil, err
		}
		if line.Closing, err = s.src.Ledger.OpeningStock(ctx, it.ID, end.Add(time.Microsecond)); err != nil {
			return nil, err
		}
		line.Wasted = line.Opening.Add(line.Received).Sub(line.Used).Sub(line.Closing)
		summary.Lines = append(summary.Lines, line)
	}
	s.log.Debug("stock period summary computed",
		zap.Time("start", start), zap.Time("end", end), zap.Int("items", len(summary.Lines)))
	return summary, nil
}

func (s *service) StockReportPDF(ctx context.Context, start, end time.Time) ([]byte, error) {
	summary, err := s.StockPeriodSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return RenderStockSummaryPDF(summary)
}

func checkRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Invalid("start", "and end are required")
	}
	if !start.Before(end) {
		return apperr.Invalid("start", "must be before end")
	}
	return nil
}
