package reporting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/georgemunganga/restaurant-pos/internal/modules/inventory"
)

const stockoutHorizonDays = 14

var hundred = decimal.NewFromInt(100)

// DaysUntilStockout is a coarse projection of max(1, round(current/minimum * 14)).
// ok is false when the item has no positive minimum.
func DaysUntilStockout(current, minimum decimal.Decimal) (days int, ok bool) {
	if !minimum.IsPositive() {
		return 0, false
	}
	d := current.Div(minimum).Mul(decimal.NewFromInt(stockoutHorizonDays)).Round(0).IntPart()
	if d < 1 {
		d = 1
	}
	return int(d), true
}

// Growth is (current - previous) / previous * 100, rounded to two places,
// and 0 when previous is 0.
func Growth(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred).Round(2)
}

// AvgStockLevelPct averages current/maximum over items that define a
// positive maximum. Items without one are left out rather than counted as 0%.
func AvgStockLevelPct(items []*inventory.Item) decimal.Decimal {
	sum := decimal.Zero
	n := int64(0)
	for _, it := range items {
		if pct, ok := it.StockLevelPct(); ok {
			sum = sum.Add(pct)
			n++
		}
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2)
}

// window is a half-open [start, end) interval.
type window struct{ start, end time.Time }

func (w window) previous() window {
	return window{start: w.start.Add(-w.end.Sub(w.start)), end: w.start}
}

func dayWindow(now time.Time) window {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return window{start: start, end: start.AddDate(0, 0, 1)}
}

// weekWindow starts on Monday.
func weekWindow(now time.Time) window {
	day := dayWindow(now).start
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return window{start: start, end: start.AddDate(0, 0, 7)}
}

// monthWindow's previous window is the whole previous calendar month.
func monthWindow(now time.Time) window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return window{start: start, end: start.AddDate(0, 1, 0)}
}

func previousMonth(w window) window {
	return window{start: w.start.AddDate(0, -1, 0), end: w.start}
}
