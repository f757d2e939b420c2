package domain

import (
	"context"
	"errors"
	"io"
)

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, filter ListRequest) ([]Invoice, error)

	// Issue assigns the sequential number, stamps the issue date and the
	// 30-day due date, and freezes the invoice.
	Issue(ctx context.Context, id string) (*Invoice, error)
	Settle(ctx context.Context, id string) (*Invoice, error)
	Cancel(ctx context.Context, id string) (*Invoice, error)

	RenderPDF(ctx context.Context, id string) (io.Reader, error)
}

type CreateInvoiceRequest struct {
	TenantID      string        `json:"tenant_id"`
	EngagementRef string        `json:"engagement_ref"`
	Lines         []LineRequest `json:"lines"`
}

type LineRequest struct {
	Description     string `json:"description"`
	Quantity        int64  `json:"quantity"`
	UnitAmountCents int64  `json:"unit_amount_cents"`
}

type ListRequest struct {
	TenantID string
	Status   string
}

var (
	ErrInvalidInvoice    = errors.New("invalid_invoice")
	ErrInvalidTenant     = errors.New("invalid_tenant")
	ErrInvalidLines      = errors.New("invalid_lines")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvoiceNotFound   = errors.New("invoice_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvoiceImmutable  = errors.New("invoice_immutable")
	ErrNotIssued         = errors.New("invoice_not_issued")
)
