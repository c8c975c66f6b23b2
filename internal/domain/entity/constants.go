package entity

// DocumentKind selects the title and numbering series of a composed bill
type DocumentKind string

const (
	KindCashBill   DocumentKind = "CASH_BILL"
	KindCreditBill DocumentKind = "CREDIT_BILL"
	KindCreditNote DocumentKind = "CREDIT_NOTE"
	KindDebitNote  DocumentKind = "DEBIT_NOTE"
	KindReceipt    DocumentKind = "RECEIPT"
	KindQuotation  DocumentKind = "QUOTATION"
)

var documentTitles = map[DocumentKind]string{
	KindCashBill:   "Cash Bill",
	KindCreditBill: "Credit Bill",
	KindCreditNote: "Credit Note",
	KindDebitNote:  "Debit Note",
	KindReceipt:    "Receipt",
	KindQuotation:  "Quotation",
}

var documentFileStems = map[DocumentKind]string{
	KindCashBill:   "CashBill",
	KindCreditBill: "CreditBill",
	KindCreditNote: "CreditNote",
	KindDebitNote:  "DebitNote",
	KindReceipt:    "Receipt",
	KindQuotation:  "Quotation",
}

// IsValid reports whether k is a known document kind
func (k DocumentKind) IsValid() bool {
	_, ok := documentTitles[k]
	return ok
}

// Title returns the heading printed on the document
func (k DocumentKind) Title() string {
	if t, ok := documentTitles[k]; ok {
		return t
	}
	return "Invoice"
}

// FileStem returns the document type segment used in generated file names
func (k DocumentKind) FileStem() string {
	if s, ok := documentFileStems[k]; ok {
		return s
	}
	return "Invoice"
}

// Payment modes accepted on a bill
const (
	PaymentModeCash   = "CASH"
	PaymentModeCard   = "CARD"
	PaymentModeUPI    = "UPI"
	PaymentModeBank   = "BANK_TRANSFER"
	PaymentModeCredit = "CREDIT"
)

// Notification kinds kept in the local history
const (
	NotificationBillSaved         = "BILL_SAVED"
	NotificationBillCancelled     = "BILL_CANCELLED"
	NotificationEmailSent         = "EMAIL_SENT"
	NotificationNumberFallback    = "NUMBER_FALLBACK"
	NotificationPermissionRequest = "PERMISSION_REQUEST"
)

// DefaultTaxRatePercent applies to line items that carry no explicit rate
const DefaultTaxRatePercent = 18
