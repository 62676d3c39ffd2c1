// Package pricing derives subtotal, tax and total from line items.
//
// Every amount is exact decimal arithmetic rounded to cents, half away from
// zero. The tax rate is always an argument so that a placed order can be
// priced with the rate it captured rather than the current one.
package pricing

import "github.com/shopspring/decimal"

const places = 2

// Line is the minimum a line item needs to be priced.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(places)
}

// LineTotal is round2(unitPrice * quantity).
func LineTotal(l Line) decimal.Decimal {
	return Round(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

func ComputeTotals(lines []Line, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineTotal(l))
	}
	subtotal = Round(subtotal)
	tax := Round(subtotal.Mul(taxRate))
	return Totals{
		Subtotal: subtotal,
		TaxRate:  taxRate,
		Tax:      tax,
		Total:    Round(subtotal.Add(tax)),
	}
}

// LinesOf adapts any item slice into priceable lines.
func LinesOf[T any](items []T, unitPriceOf func(T) decimal.Decimal, quantityOf func(T) int) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		out = append(out, Line{UnitPrice: unitPriceOf(it), Quantity: quantityOf(it)})
	}
	return out
}
