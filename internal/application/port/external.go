package port

import (
	"context"

	"github.com/garyjia/billing-workflow/internal/domain/entity"
)

// InvoiceCounter reads the latest issued number of a company+prefix series.
// It returns ErrNotFound (wrapped) when the series has no number yet.
type InvoiceCounter interface {
	LatestInvoiceNumber(ctx context.Context, companyName, prefix string) (string, error)
}

// CustomerDirectory searches and creates customers on the backend
type CustomerDirectory interface {
	SearchCustomers(ctx context.Context, query string) ([]entity.Customer, error)
	CreateCustomer(ctx context.Context, customer entity.Customer) (*entity.Customer, error)
}

// BillStore persists bills. Save fails with *DuplicateNumberError on a 409 and
// *ValidationError on a 400.
type BillStore interface {
	SaveBill(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error)
	GetBill(ctx context.Context, storedID string) (*entity.Bill, error)
	CancelBill(ctx context.Context, storedID string) error
}

// EmailRequest is the payload of the backend's send-email endpoint
type EmailRequest struct {
	BillData  *entity.Bill `json:"billData"`
	PDFBase64 string       `json:"pdfBase64"`
	EmailTo   string       `json:"emailTo"`
	Subject   string       `json:"subject"`
	Body      string       `json:"body"`
}

// MailGateway transmits a composed document as an email attachment
type MailGateway interface {
	SendBillEmail(ctx context.Context, req *EmailRequest) error
}

// BankDirectory looks up a company's bank details
type BankDirectory interface {
	BankDetails(ctx context.Context, companyName string) (*entity.BankDetails, error)
}

// ChatNotifier posts short text messages to the finance chat
type ChatNotifier interface {
	Notify(ctx context.Context, text string) error
}
