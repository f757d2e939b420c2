// Package domain contains the superadmin dashboard read models.
package domain

import (
	"context"
	"time"
)

// Overview is the aggregate block rendered on the superadmin home.
type Overview struct {
	TenantCounts   map[string]int64 `json:"tenant_counts"`
	TotalTenants   int64            `json:"total_tenants"`
	ExpiringTrials []ExpiringTrial  `json:"expiring_trials"`
	MRRCents       int64            `json:"mrr_cents"`
	ARRCents       int64            `json:"arr_cents"`
	Revenue        RevenueSplit     `json:"revenue"`
}

// ExpiringTrial is one tenant whose trial ends within the lookahead window.
type ExpiringTrial struct {
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	TrialEndsAt time.Time `json:"trial_ends_at"`
	DaysLeft    int       `json:"days_left"`
}

// RevenueSplit contrasts the two invoicing channels.
type RevenueSplit struct {
	MandateCents int64 `json:"mandate_cents"`
	StripeCents  int64 `json:"stripe_cents"`
}

// StatusCount is one row of the billing status breakdown.
type StatusCount struct {
	BillingStatus string `json:"billing_status"`
	Count         int64  `json:"count"`
}

type Repository interface {
	CountTenantsByBillingStatus(ctx context.Context) ([]StatusCount, error)
	// SumMandateRevenueCents totals issued and settled mandate invoices.
	SumMandateRevenueCents(ctx context.Context) (int64, error)
	// SumStripeRevenueCents totals mirrored Stripe invoice amounts.
	SumStripeRevenueCents(ctx context.Context) (int64, error)
}

type Service interface {
	Overview(ctx context.Context, now time.Time) (*Overview, error)
}
