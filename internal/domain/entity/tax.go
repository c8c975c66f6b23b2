package entity

import "github.com/shopspring/decimal"

// TaxBreakdown holds the computed totals of a bill.
// Exactly one of CGST+SGST or IGST is non-zero for a non-empty taxed bill.
type TaxBreakdown struct {
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	CGSTTotal     decimal.Decimal `json:"cgstTotal"`
	SGSTTotal     decimal.Decimal `json:"sgstTotal"`
	IGSTTotal     decimal.Decimal `json:"igstTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	RoundOff      decimal.Decimal `json:"roundOff"`
	RoundedTotal  decimal.Decimal `json:"roundedTotal"`
}

// TotalTax returns the sum of all tax components
func (t TaxBreakdown) TotalTax() decimal.Decimal {
	return t.CGSTTotal.Add(t.SGSTTotal).Add(t.IGSTTotal)
}

// RateSummary groups taxable value and tax by rate for the HSN-wise summary
type RateSummary struct {
	RatePercent   decimal.Decimal `json:"ratePercent"`
	TaxableAmount decimal.Decimal `json:"taxableAmount"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
}
