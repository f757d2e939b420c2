package domain

import (
	"context"
	"errors"
)

type Service interface {
	// EnsureCustomer creates the Stripe customer for a tenant if missing and
	// stores its id on the tenant row. Idempotent.
	EnsureCustomer(ctx context.Context, tenantID string) (string, error)
	CreateInvoice(ctx context.Context, tenantID string, req CreateInvoiceRequest) (*Invoice, error)
	ListInvoices(ctx context.Context, tenantID string) ([]Invoice, error)
}

type CreateInvoiceRequest struct {
	Lines []LineRequest `json:"lines"`
}

type LineRequest struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Quantity    int64  `json:"quantity"`
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidLines  = errors.New("invalid_lines")
	ErrGateway       = errors.New("gateway_error")
)
