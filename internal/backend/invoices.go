package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
)

type latestNumberResponse struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

type saveBillResponse struct {
	StoredID      string `json:"storedId"`
	InvoiceNumber string `json:"invoiceNumber"`
}

type sendEmailResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// LatestInvoiceNumber implements port.InvoiceCounter
func (c *Client) LatestInvoiceNumber(ctx context.Context, companyName, prefix string) (string, error) {
	const op = "latest invoice number"

	var out latestNumberResponse
	resp, err := c.request(ctx).
		SetQueryParams(map[string]string{"company": companyName, "prefix": prefix}).
		SetResult(&out).
		Get("/invoices/latest-number")
	if err != nil {
		return "", transportError(op, err)
	}
	if resp.IsError() {
		return "", statusError(op, resp)
	}
	return out.InvoiceNumber, nil
}

// SaveBill implements port.BillStore
func (c *Client) SaveBill(ctx context.Context, bill *entity.Bill) (*entity.SaveResult, error) {
	const op = "save bill"

	var out saveBillResponse
	resp, err := c.request(ctx).
		SetBody(bill).
		SetResult(&out).
		Post("/bills")
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.StatusCode() == http.StatusConflict {
		return nil, &port.DuplicateNumberError{InvoiceNumber: bill.InvoiceNumber}
	}
	if resp.IsError() {
		return nil, statusError(op, resp)
	}
	if out.StoredID == "" {
		return nil, &port.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("backend returned no stored id")}
	}

	number := out.InvoiceNumber
	if number == "" {
		number = bill.InvoiceNumber
	}
	return &entity.SaveResult{StoredID: out.StoredID, InvoiceNumber: number}, nil
}

// GetBill implements port.BillStore
func (c *Client) GetBill(ctx context.Context, storedID string) (*entity.Bill, error) {
	const op = "get bill"

	var out entity.Bill
	resp, err := c.request(ctx).
		SetResult(&out).
		Get("/bills/" + url.PathEscape(storedID))
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.IsError() {
		return nil, statusError(op, resp)
	}
	if out.StoredID == "" {
		out.StoredID = storedID
	}
	return &out, nil
}

// CancelBill implements port.BillStore
func (c *Client) CancelBill(ctx context.Context, storedID string) error {
	const op = "cancel bill"

	resp, err := c.request(ctx).
		Post("/bills/" + url.PathEscape(storedID) + "/cancel")
	if err != nil {
		return transportError(op, err)
	}
	if resp.IsError() {
		return statusError(op, resp)
	}
	return nil
}

// SendBillEmail implements port.MailGateway
func (c *Client) SendBillEmail(ctx context.Context, req *port.EmailRequest) error {
	const op = "send bill email"

	var out sendEmailResponse
	resp, err := c.request(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/bills/send-email")
	if err != nil {
		return transportError(op, err)
	}
	if resp.IsError() {
		return statusError(op, resp)
	}
	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "backend reported failure"
		}
		return &port.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("%s", msg)}
	}
	return nil
}

// BankDetails implements port.BankDirectory
func (c *Client) BankDetails(ctx context.Context, companyName string) (*entity.BankDetails, error) {
	const op = "bank details"

	var out entity.BankDetails
	resp, err := c.request(ctx).
		SetQueryParam("company", companyName).
		SetResult(&out).
		Get("/bank-details")
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.IsError() {
		return nil, statusError(op, resp)
	}
	return &out, nil
}
