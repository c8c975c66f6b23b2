package document

import (
	"testing"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQRPayload(t *testing.T) {
	amount := decimal.NewFromInt(236)

	tests := []struct {
		name       string
		company    entity.CompanySnapshot
		wantURI    string
		wantSource PaymentSource
	}{
		{
			name: "upi id wins over bank account",
			company: entity.CompanySnapshot{
				Name: "Wonderful Foods",
				Bank: entity.BankDetails{UPIID: "wonderful@okhdfc", AccountNumber: "50100012345678", IFSC: "HDFC0001234"},
			},
			wantURI:    "upi://pay?pa=wonderful@okhdfc&pn=Wonderful%20Foods&am=236.00&cu=INR&tn=Cash%20Bill%20WNF-8",
			wantSource: PaymentSourceUPI,
		},
		{
			name: "account and ifsc synthesise an address",
			company: entity.CompanySnapshot{
				Name: "Wonderful Foods",
				Bank: entity.BankDetails{AccountNumber: "50100012345678", IFSC: "HDFC0001234"},
			},
			wantURI:    "upi://pay?pa=50100012345678@hdfc0001234.ifsc.npci&pn=Wonderful%20Foods&am=236.00&cu=INR&tn=Cash%20Bill%20WNF-8",
			wantSource: PaymentSourceAccount,
		},
		{
			name: "account without ifsc falls back to name",
			company: entity.CompanySnapshot{
				Name: "Wonderful Foods",
				Bank: entity.BankDetails{AccountNumber: "50100012345678"},
			},
			wantURI:    "upi://pay?pn=Wonderful%20Foods&am=236.00&cu=INR&tn=Cash%20Bill%20WNF-8",
			wantSource: PaymentSourceName,
		},
		{
			name:       "nothing to pay to",
			company:    entity.CompanySnapshot{},
			wantURI:    "",
			wantSource: PaymentSourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uri, source := QRPayload(tt.company, amount, "Cash Bill WNF-8")
			assert.Equal(t, tt.wantURI, uri)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		kind   entity.DocumentKind
		number string
		want   string
	}{
		{entity.KindCashBill, "WNF-8", "CashBill_WNF_8.pdf"},
		{entity.KindCreditNote, "CN/2026/07", "CreditNote_CN_2026_07.pdf"},
		{entity.KindQuotation, "", "Quotation_DRAFT.pdf"},
		{entity.DocumentKind("bogus"), "X 1", "Invoice_X_1.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.kind, tt.number))
	}
	assert.Equal(t, "Receipt_R_3.xlsx", WorkbookFileName(entity.KindReceipt, "R-3"))
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "Rupees Zero Only"},
		{"236", "Rupees Two Hundred Thirty Six Only"},
		{"117", "Rupees One Hundred Seventeen Only"},
		{"1000", "Rupees One Thousand Only"},
		{"1234567", "Rupees Twelve Lakh Thirty Four Thousand Five Hundred Sixty Seven Only"},
		{"25000000", "Rupees Two Crore Fifty Lakh Only"},
		{"0.50", "Rupees Zero and Fifty Paise Only"},
		{"-0.41", "Minus Rupees Zero and Forty One Paise Only"},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountInWords(decimal.RequireFromString(tt.amount)))
		})
	}
}
