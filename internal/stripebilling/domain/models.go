// Package domain contains the Stripe invoicing mirror and ports. Tenants
// paying by card are invoiced through Stripe; a local mirror row per invoice
// keeps listings cheap and survives Stripe outages.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Invoice is the local mirror of one Stripe invoice.
type Invoice struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID         snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	StripeInvoiceID  string       `gorm:"type:text;not null;uniqueIndex:ux_stripe_invoices_sid" json:"stripe_invoice_id"`
	Status           string       `gorm:"type:text;not null" json:"status"`
	AmountDueCents   int64        `gorm:"not null;default:0" json:"amount_due_cents"`
	Currency         string       `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	HostedInvoiceURL string       `gorm:"type:text" json:"hosted_invoice_url,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "stripe_invoices" }

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, invoice Invoice) error
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Invoice, error)
}

// CustomerParams carries the fields pushed to the processor when creating
// a customer.
type CustomerParams struct {
	Name  string
	Email string
}

// GatewayLine is one invoice item sent to the processor.
type GatewayLine struct {
	Description string
	AmountCents int64
	Quantity    int64
}

// GatewayInvoice is the processor's view of a finalized invoice.
type GatewayInvoice struct {
	ID               string
	Status           string
	AmountDueCents   int64
	HostedInvoiceURL string
}

// Gateway is the narrow port to the card processor. The production
// implementation talks to Stripe; tests substitute a fake.
type Gateway interface {
	CreateCustomer(ctx context.Context, params CustomerParams) (string, error)
	CreateInvoice(ctx context.Context, customerID, currency string, lines []GatewayLine, daysUntilDue int64) (*GatewayInvoice, error)
}
