package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/garyjia/billing-workflow/internal/application/port"
	"github.com/garyjia/billing-workflow/internal/domain/entity"
)

// SearchCustomers implements port.CustomerDirectory
func (c *Client) SearchCustomers(ctx context.Context, query string) ([]entity.Customer, error) {
	const op = "search customers"

	var out []entity.Customer
	resp, err := c.request(ctx).
		SetQueryParam("q", query).
		SetResult(&out).
		Get("/customers/search")
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, statusError(op, resp)
	}
	return out, nil
}

// CreateCustomer implements port.CustomerDirectory
func (c *Client) CreateCustomer(ctx context.Context, customer entity.Customer) (*entity.Customer, error) {
	const op = "create customer"

	var out entity.Customer
	resp, err := c.request(ctx).
		SetBody(customer).
		SetResult(&out).
		Post("/customers")
	if err != nil {
		return nil, transportError(op, err)
	}
	if resp.IsError() {
		return nil, statusError(op, resp)
	}
	if out.ID == "" {
		return nil, &port.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("backend returned no customer id")}
	}
	if out.Name == "" {
		out.Name = customer.Name
	}
	return &out, nil
}

var (
	_ port.InvoiceCounter    = (*Client)(nil)
	_ port.CustomerDirectory = (*Client)(nil)
	_ port.BillStore         = (*Client)(nil)
	_ port.MailGateway       = (*Client)(nil)
	_ port.BankDirectory     = (*Client)(nil)
)
