package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	addondomain "github.com/citadia/citadia/internal/addon/domain"
	"github.com/citadia/citadia/internal/billingportal/domain"
	"github.com/citadia/citadia/internal/hierarchy"
	mandatedomain "github.com/citadia/citadia/internal/mandate/domain"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	stripedomain "github.com/citadia/citadia/internal/stripebilling/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// recentInvoiceLimit bounds the invoice lists on the portal page.
const recentInvoiceLimit = 10

type Params struct {
	fx.In

	Log         *zap.Logger
	TenantRepo  tenantdomain.Repository
	PlanRepo    plandomain.Repository
	Addons      addondomain.Service
	MandateRepo mandatedomain.Repository
	StripeRepo  stripedomain.Repository
}

type service struct {
	log         *zap.Logger
	tenantRepo  tenantdomain.Repository
	planRepo    plandomain.Repository
	addons      addondomain.Service
	mandateRepo mandatedomain.Repository
	stripeRepo  stripedomain.Repository
}

func NewService(p Params) domain.Service {
	return &service{
		log:         p.Log.Named("billingportal.service"),
		tenantRepo:  p.TenantRepo,
		planRepo:    p.PlanRepo,
		addons:      p.Addons,
		mandateRepo: p.MandateRepo,
		stripeRepo:  p.StripeRepo,
	}
}

func (s *service) Summary(ctx context.Context, rawSlug string, now time.Time) (*domain.Summary, error) {
	slug := strings.TrimSpace(rawSlug)
	if slug == "" {
		return nil, domain.ErrInvalidSlug
	}

	tenant, err := s.tenantRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	effective, planLabel, err := s.resolveDisplayed(ctx, tenant)
	if err != nil {
		return nil, err
	}

	summary := &domain.Summary{
		TenantID:      tenant.ID.String(),
		Name:          tenant.Name,
		Slug:          tenant.Slug,
		PlanLabel:     planLabel,
		BillingStatus: string(effective.Status),
		Inherited:     effective.Inherited,
		TrialEndsAt:   effective.TrialEndsAt,
	}
	if effective.Status == hierarchy.BillingStatusTrial {
		summary.TrialDaysRemaining = hierarchy.TrialDaysRemaining(effective.TrialEndsAt, now)
	}

	addons, err := s.addons.ListByTenant(ctx, tenant.ID.String())
	if err != nil {
		return nil, err
	}
	summary.Addons = addons

	mandates, err := s.mandateRepo.List(ctx, mandatedomain.ListFilter{TenantID: &tenant.ID})
	if err != nil {
		return nil, err
	}
	if len(mandates) > recentInvoiceLimit {
		mandates = mandates[:recentInvoiceLimit]
	}
	summary.MandateInvoices = mandates

	stripeInvoices, err := s.stripeRepo.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	if len(stripeInvoices) > recentInvoiceLimit {
		stripeInvoices = stripeInvoices[:recentInvoiceLimit]
	}
	summary.StripeInvoices = stripeInvoices

	return summary, nil
}

// resolveDisplayed flattens the current tenant snapshot and resolves the
// inherited billing state and plan label for one tenant.
func (s *service) resolveDisplayed(ctx context.Context, tenant *tenantdomain.Tenant) (hierarchy.EffectiveStatus, string, error) {
	tenants, err := s.tenantRepo.List(ctx, tenantdomain.ListFilter{})
	if err != nil {
		return hierarchy.EffectiveStatus{}, "", err
	}

	records := make([]hierarchy.TenantRecord, 0, len(tenants))
	for _, t := range tenants {
		records = append(records, t.HierarchyRecord())
	}
	rows, _ := hierarchy.Build(records, nil)
	statuses := hierarchy.ResolveAll(rows, hierarchy.TenantsByID(records))

	plans, err := s.planRepo.List(ctx, plandomain.ListFilter{IncludeArchived: true})
	if err != nil {
		return hierarchy.EffectiveStatus{}, "", err
	}
	plansByID := make(map[snowflake.ID]hierarchy.SubscriptionPlanRef, len(plans))
	for _, plan := range plans {
		plansByID[plan.ID] = hierarchy.SubscriptionPlanRef{ID: plan.ID, Name: plan.Name}
	}

	for i, row := range rows {
		if row.Kind == hierarchy.RowTenant && row.Tenant.ID == tenant.ID {
			return statuses[i], hierarchy.PlanLabel(row, plansByID), nil
		}
	}

	// Tenant absent from the flattened snapshot (unknown type); fall back
	// to its own stored values.
	record := tenant.HierarchyRecord()
	return hierarchy.EffectiveStatus{
			Status:      record.BillingStatus,
			TrialEndsAt: record.TrialEndsAt,
		}, hierarchy.PlanLabel(hierarchy.Row{
			Kind:   hierarchy.RowTenant,
			Tenant: &record,
		}, plansByID), nil
}
