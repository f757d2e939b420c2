// Package domain contains the tenant-facing billing summary read model.
package domain

import (
	"context"
	"errors"
	"time"

	addondomain "github.com/citadia/citadia/internal/addon/domain"
	mandatedomain "github.com/citadia/citadia/internal/mandate/domain"
	stripedomain "github.com/citadia/citadia/internal/stripebilling/domain"
)

// Summary is everything the self-service billing page shows for a tenant.
type Summary struct {
	TenantID      string `json:"tenant_id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	PlanLabel     string `json:"plan_label"`
	BillingStatus string `json:"billing_status"`
	// Inherited is true when the billing state is displayed from a parent.
	Inherited          bool       `json:"inherited"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	TrialDaysRemaining *int       `json:"trial_days_remaining,omitempty"`

	Addons          []addondomain.TenantAddonView `json:"addons"`
	MandateInvoices []mandatedomain.Invoice       `json:"mandate_invoices"`
	StripeInvoices  []stripedomain.Invoice        `json:"stripe_invoices"`
}

type Service interface {
	Summary(ctx context.Context, slug string, now time.Time) (*Summary, error)
}

var ErrInvalidSlug = errors.New("invalid_slug")
