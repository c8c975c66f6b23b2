package document

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	smallNumbers = []string{
		"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensNames = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// AmountInWords spells an amount in the Indian numbering system,
// e.g. 236 -> "Rupees Two Hundred Thirty Six Only"
func AmountInWords(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	amount = amount.Abs().Round(2)

	rupees := amount.Truncate(0).IntPart()
	paise := amount.Sub(amount.Truncate(0)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	var b strings.Builder
	if negative {
		b.WriteString("Minus ")
	}
	b.WriteString("Rupees ")
	b.WriteString(indianWords(rupees))
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(indianWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

// indianWords groups as crore, lakh, thousand, hundred
func indianWords(n int64) string {
	if n == 0 {
		return smallNumbers[0]
	}

	var parts []string
	if crore := n / 10000000; crore > 0 {
		parts = append(parts, indianWords(crore), "Crore")
		n %= 10000000
	}
	if lakh := n / 100000; lakh > 0 {
		parts = append(parts, belowHundred(lakh), "Lakh")
		n %= 100000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, belowHundred(thousand), "Thousand")
		n %= 1000
	}
	if hundred := n / 100; hundred > 0 {
		parts = append(parts, smallNumbers[hundred], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n int64) string {
	if n < 20 {
		return smallNumbers[n]
	}
	if n%10 == 0 {
		return tensNames[n/10]
	}
	return tensNames[n/10] + " " + smallNumbers[n%10]
}
