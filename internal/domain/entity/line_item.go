package entity

import "github.com/shopspring/decimal"

// LineItem is one billed row
type LineItem struct {
	Code           string              `json:"code"`
	Name           string              `json:"name"`
	HSNCode        string              `json:"hsnCode"`
	Quantity       int                 `json:"quantity" validate:"gte=1"`
	UnitRate       decimal.Decimal     `json:"unitRate" validate:"decimal_gte0"`
	TaxRatePercent decimal.NullDecimal `json:"taxRatePercent" validate:"nulldecimal_gte0"`
}

// LineTotal returns quantity × unit rate
func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitRate.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// EffectiveTaxRate returns the item's tax rate, defaulting to 18%
func (l LineItem) EffectiveTaxRate() decimal.Decimal {
	if !l.TaxRatePercent.Valid {
		return decimal.NewFromInt(DefaultTaxRatePercent)
	}
	return l.TaxRatePercent.Decimal
}

// NewLineItem builds an item with an explicit tax rate
func NewLineItem(name string, quantity int, unitRate, taxRatePercent decimal.Decimal) LineItem {
	return LineItem{
		Name:           name,
		Quantity:       quantity,
		UnitRate:       unitRate,
		TaxRatePercent: decimal.NewNullDecimal(taxRatePercent),
	}
}
