package entity

import (
	"time"

	"github.com/garyjia/billing-workflow/internal/domain/workflow"
)

// Bill is an invoice-like document (cash bill, credit note, ...).
// It owns its items and company snapshot and references the customer by id.
type Bill struct {
	StoredID      string          `json:"storedId,omitempty"`
	Kind          DocumentKind    `json:"kind" validate:"required,documentkind"`
	InvoiceNumber string          `json:"invoiceNumber"`
	Date          time.Time       `json:"date"`
	CustomerID    string          `json:"customerId,omitempty"`
	CustomerName  string          `json:"customerName" validate:"notblank"`
	Contact       Contact         `json:"contact"`
	Items         []LineItem      `json:"items" validate:"required,min=1,dive"`
	IsOtherState  bool            `json:"isOtherState"`
	Tax           TaxBreakdown    `json:"taxBreakdown"`
	PaymentMode   string          `json:"paymentMode"`
	Remarks       string          `json:"remarks"`
	IsCancelled   bool            `json:"isCancelled"`
	Company       CompanySnapshot `json:"company"`
	State         workflow.State  `json:"state"`
}

// Clone returns a deep copy so a snapshot cannot observe later edits
func (b *Bill) Clone() *Bill {
	if b == nil {
		return nil
	}
	c := *b
	c.Items = append([]LineItem(nil), b.Items...)
	return &c
}

// SaveResult is what the backend returns for a stored bill
type SaveResult struct {
	StoredID      string `json:"storedId"`
	InvoiceNumber string `json:"invoiceNumber"`
}
