package order

import "github.com/shopspring/decimal"

// TaxRate is the fixed VAT applied to the subtotal.
var TaxRate = decimal.RequireFromString("0.16")

// Totals holds the money fields derived from an order's lines.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals recomputes every line total and the order totals:
// tax is TaxRate of the subtotal and total = subtotal + tax - discount.
func ComputeTotals(items []*Item, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		it.ItemTotal = round2(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
		subtotal = subtotal.Add(it.ItemTotal)
	}
	tax := round2(subtotal.Mul(TaxRate))
	discount = round2(discount)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax).Sub(discount),
	}
}

func (o *Order) applyTotals(t Totals) {
	o.Subtotal = t.Subtotal
	o.Tax = t.Tax
	o.Discount = t.Discount
	o.Total = t.Total
}

func round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
