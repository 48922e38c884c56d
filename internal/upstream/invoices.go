package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/wolfman30/clinicdesk/internal/billing"
)

// Invoices implements billing.Backend.
type Invoices struct{ c *Client }

// Invoices returns the clinic-invoice endpoints.
func (c *Client) Invoices() *Invoices { return &Invoices{c: c} }

// Create saves a new invoice.
func (i *Invoices) Create(ctx context.Context, inv *billing.Invoice) (*billing.Invoice, error) {
	var out billing.Invoice
	if err := i.c.do(ctx, call{op: "create_invoice", method: http.MethodPost, path: "/clinic-invoice/invoices", body: inv}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an invoice, line items included.
func (i *Invoices) Update(ctx context.Context, id int64, inv *billing.Invoice) (*billing.Invoice, error) {
	var out billing.Invoice
	if err := i.c.do(ctx, call{op: "update_invoice", method: http.MethodPut,
		path: fmt.Sprintf("/clinic-invoice/invoices/%d", id), body: inv}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one invoice.
func (i *Invoices) Get(ctx context.Context, id int64) (*billing.Invoice, error) {
	var out billing.Invoice
	if err := i.c.do(ctx, call{op: "get_invoice", method: http.MethodGet,
		path: fmt.Sprintf("/clinic-invoice/invoices/%d", id)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMine returns the signed-in doctor's invoices across clinics.
func (i *Invoices) ListMine(ctx context.Context) ([]billing.Invoice, error) {
	var out []billing.Invoice
	err := i.c.do(ctx, call{op: "list_my_invoices", method: http.MethodGet, path: "/doctor/my-invoices"}, &out)
	return out, err
}

// ListClinic returns a clinic's invoices.
func (i *Invoices) ListClinic(ctx context.Context, clinicID int64) ([]billing.Invoice, error) {
	var out []billing.Invoice
	err := i.c.do(ctx, call{op: "list_clinic_invoices", method: http.MethodGet, path: "/clinic-invoice/invoices",
		query: map[string]string{"clinic_id": itoa(clinicID)}}, &out)
	return out, err
}
