// Package pdf renders mandate invoice documents.
package pdf

import (
	"context"
	"io"
)

// MandateData is the fully formatted content of one mandate invoice PDF.
// Amounts arrive pre-formatted; the renderer does no arithmetic.
type MandateData struct {
	IssuerName    string
	IssuerAddress string
	IssuerEmail   string

	Number        string
	EngagementRef string
	IssueDate     string
	DueDate       string

	BillToName  string
	BillToEmail string

	Items []MandateItem

	Subtotal string
	VAT      string
	Total    string
}

// MandateItem is one formatted invoice line.
type MandateItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type Provider interface {
	GenerateMandate(ctx context.Context, data MandateData) (io.Reader, error)
}

// NoOpProvider satisfies Provider without producing output; used in tests.
type NoOpProvider struct{}

func (p *NoOpProvider) GenerateMandate(ctx context.Context, data MandateData) (io.Reader, error) {
	return nil, nil
}
