// Package tax computes GST totals for a list of line items.
package tax

import (
	"sort"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Calculate returns the tax breakdown of items. Inter-state bills accumulate
// IGST; intra-state bills split each item's tax evenly into CGST and SGST.
// It is pure and must be re-run on every item mutation.
func Calculate(items []entity.LineItem, isOtherState bool) entity.TaxBreakdown {
	var b entity.TaxBreakdown

	totalTax := decimal.Zero
	for _, item := range items {
		itemTotal := item.LineTotal()
		itemTax := ItemTax(item)

		b.TaxableAmount = b.TaxableAmount.Add(itemTotal)
		totalTax = totalTax.Add(itemTax)

		if isOtherState {
			b.IGSTTotal = b.IGSTTotal.Add(itemTax)
			continue
		}
		half := itemTax.Div(two)
		b.CGSTTotal = b.CGSTTotal.Add(half)
		b.SGSTTotal = b.SGSTTotal.Add(half)
	}

	b.GrandTotal = b.TaxableAmount.Add(totalTax)
	b.RoundedTotal = RoundHalfUp(b.GrandTotal)
	b.RoundOff = b.RoundedTotal.Sub(b.GrandTotal)

	return b
}

// ItemTax returns lineTotal × rate / 100 for one item
func ItemTax(item entity.LineItem) decimal.Decimal {
	return item.LineTotal().Mul(item.EffectiveTaxRate()).Div(hundred)
}

// RoundHalfUp rounds to the nearest integer, halves away from zero.
// Totals are never negative, so this equals half-up rounding.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// SummarizeByRate groups taxable value and tax per rate, ordered by rate
func SummarizeByRate(items []entity.LineItem) []entity.RateSummary {
	byRate := make(map[string]*entity.RateSummary)
	for _, item := range items {
		rate := item.EffectiveTaxRate()
		key := rate.String()
		s, ok := byRate[key]
		if !ok {
			s = &entity.RateSummary{RatePercent: rate}
			byRate[key] = s
		}
		s.TaxableAmount = s.TaxableAmount.Add(item.LineTotal())
		s.TaxAmount = s.TaxAmount.Add(ItemTax(item))
	}

	out := make([]entity.RateSummary, 0, len(byRate))
	for _, s := range byRate {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RatePercent.LessThan(out[j].RatePercent)
	})
	return out
}
