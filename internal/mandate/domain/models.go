// Package domain contains the administrative mandate invoice models and
// ports. Mandate invoices are settled by bank transfer against a bon de
// commande, outside any card processor.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Status is the mandate invoice lifecycle. Draft invoices are mutable;
// issuing freezes the content and assigns the sequential number; settled
// invoices are immutable.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusIssued    Status = "ISSUED"
	StatusSettled   Status = "SETTLED"
	StatusCancelled Status = "CANCELLED"
)

// VATRatePercent is the single French VAT rate applied to mandate invoices.
const VATRatePercent = 20

// Invoice is one mandate invoice.
type Invoice struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Number        *string      `gorm:"type:text;uniqueIndex:ux_mandate_invoices_number" json:"number,omitempty"`
	Status        Status       `gorm:"type:text;not null;index" json:"status"`
	EngagementRef string       `gorm:"type:text" json:"engagement_ref,omitempty"`
	SubtotalCents int64        `gorm:"not null;default:0" json:"subtotal_cents"`
	VATCents      int64        `gorm:"not null;default:0" json:"vat_cents"`
	TotalCents    int64        `gorm:"not null;default:0" json:"total_cents"`
	Currency      string       `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	IssuedAt      *time.Time   `json:"issued_at,omitempty"`
	DueAt         *time.Time   `json:"due_at,omitempty"`
	SettledAt     *time.Time   `json:"settled_at,omitempty"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Lines []Line `gorm:"-" json:"lines,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "mandate_invoices" }

// Line is one invoice line. AmountCents is quantity times unit amount,
// before VAT.
type Line struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description     string       `gorm:"type:text;not null" json:"description"`
	Quantity        int64        `gorm:"not null;default:1" json:"quantity"`
	UnitAmountCents int64        `gorm:"not null;default:0" json:"unit_amount_cents"`
	AmountCents     int64        `gorm:"not null;default:0" json:"amount_cents"`
	Position        int          `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Line) TableName() string { return "mandate_lines" }

// Sequence holds the per-year invoice number counter.
type Sequence struct {
	Year      int   `gorm:"primaryKey" json:"year"`
	LastValue int64 `gorm:"not null;default:0" json:"last_value"`
}

// TableName sets the database table name.
func (Sequence) TableName() string { return "mandate_sequences" }

// ListFilter narrows mandate listings.
type ListFilter struct {
	TenantID *snowflake.ID
	Status   Status
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice Invoice, lines []Line) error
	Update(ctx context.Context, invoice Invoice) error
	GetByID(ctx context.Context, id snowflake.ID) (*Invoice, error)
	ListLines(ctx context.Context, invoiceID snowflake.ID) ([]Line, error)
	List(ctx context.Context, filter ListFilter) ([]Invoice, error)

	// NextSequence increments and returns the counter for the year. Must be
	// called inside the issuing transaction so numbers stay gapless under
	// concurrency.
	NextSequence(ctx context.Context, year int) (int64, error)
}
