package document

import (
	"net/url"
	"strings"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PaymentSource says which company detail the QR payload was built from
type PaymentSource string

const (
	PaymentSourceNone    PaymentSource = ""
	PaymentSourceUPI     PaymentSource = "upi"
	PaymentSourceAccount PaymentSource = "account"
	PaymentSourceName    PaymentSource = "name"
)

// QRPayload builds the UPI payment URI encoded in the document's QR code.
// Priority: the company's UPI id, then an address synthesised from account
// number and IFSC, then a payee-name-only URI. Returns "" with no company name.
func QRPayload(company entity.CompanySnapshot, amount decimal.Decimal, note string) (string, PaymentSource) {
	name := strings.TrimSpace(company.Name)
	bank := company.Bank

	var address string
	source := PaymentSourceName
	switch {
	case strings.TrimSpace(bank.UPIID) != "":
		address = strings.TrimSpace(bank.UPIID)
		source = PaymentSourceUPI
	case strings.TrimSpace(bank.AccountNumber) != "" && strings.TrimSpace(bank.IFSC) != "":
		address = strings.TrimSpace(bank.AccountNumber) + "@" + strings.ToLower(strings.TrimSpace(bank.IFSC)) + ".ifsc.npci"
		source = PaymentSourceAccount
	case name == "":
		return "", PaymentSourceNone
	}

	var params []string
	if address != "" {
		params = append(params, "pa="+address)
	}
	if name != "" {
		params = append(params, "pn="+url.PathEscape(name))
	}
	params = append(params,
		"am="+amount.StringFixed(2),
		"cu=INR",
	)
	if note = strings.TrimSpace(note); note != "" {
		params = append(params, "tn="+url.PathEscape(note))
	}

	return "upi://pay?" + strings.Join(params, "&"), source
}
