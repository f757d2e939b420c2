package service

import (
	"context"
	"time"

	addondomain "github.com/citadia/citadia/internal/addon/domain"
	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/dashboard/domain"
	"github.com/citadia/citadia/internal/hierarchy"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Config     config.Config
	Repo       domain.Repository
	TenantRepo tenantdomain.Repository
	PlanRepo   plandomain.Repository
	AddonRepo  addondomain.Repository
}

type service struct {
	log        *zap.Logger
	cfg        config.Config
	repo       domain.Repository
	tenantRepo tenantdomain.Repository
	planRepo   plandomain.Repository
	addonRepo  addondomain.Repository
}

func NewService(p Params) domain.Service {
	return &service{
		log:        p.Log.Named("dashboard.service"),
		cfg:        p.Config,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		planRepo:   p.PlanRepo,
		addonRepo:  p.AddonRepo,
	}
}

func (s *service) Overview(ctx context.Context, now time.Time) (*domain.Overview, error) {
	counts, err := s.repo.CountTenantsByBillingStatus(ctx)
	if err != nil {
		return nil, err
	}

	overview := &domain.Overview{
		TenantCounts: make(map[string]int64, len(counts)),
	}
	for _, row := range counts {
		overview.TenantCounts[row.BillingStatus] = row.Count
		overview.TotalTenants += row.Count
	}

	tenants, err := s.tenantRepo.List(ctx, tenantdomain.ListFilter{})
	if err != nil {
		return nil, err
	}

	overview.ExpiringTrials = s.expiringTrials(tenants, now)

	mrr, err := s.monthlyRecurringCents(ctx, tenants)
	if err != nil {
		return nil, err
	}
	overview.MRRCents = mrr
	overview.ARRCents = mrr * 12

	mandateTotal, err := s.repo.SumMandateRevenueCents(ctx)
	if err != nil {
		return nil, err
	}
	stripeTotal, err := s.repo.SumStripeRevenueCents(ctx)
	if err != nil {
		return nil, err
	}
	overview.Revenue = domain.RevenueSplit{
		MandateCents: mandateTotal,
		StripeCents:  stripeTotal,
	}

	return overview, nil
}

func (s *service) expiringTrials(tenants []tenantdomain.Tenant, now time.Time) []domain.ExpiringTrial {
	lookahead := s.cfg.DashboardTrialDay
	if lookahead <= 0 {
		lookahead = 7
	}
	horizon := now.AddDate(0, 0, lookahead)

	expiring := make([]domain.ExpiringTrial, 0)
	for _, tenant := range tenants {
		if tenant.BillingStatus != hierarchy.BillingStatusTrial || tenant.TrialEndsAt == nil {
			continue
		}
		if tenant.TrialEndsAt.Before(now) || tenant.TrialEndsAt.After(horizon) {
			continue
		}
		days := hierarchy.TrialDaysRemaining(tenant.TrialEndsAt, now)
		expiring = append(expiring, domain.ExpiringTrial{
			TenantID:    tenant.ID.String(),
			Name:        tenant.Name,
			TrialEndsAt: *tenant.TrialEndsAt,
			DaysLeft:    *days,
		})
	}
	return expiring
}

// monthlyRecurringCents sums plan and addon amounts over root, paying,
// ACTIVE tenants. Children bill through their parent and are not counted.
func (s *service) monthlyRecurringCents(ctx context.Context, tenants []tenantdomain.Tenant) (int64, error) {
	records := make([]hierarchy.TenantRecord, 0, len(tenants))
	for _, tenant := range tenants {
		records = append(records, tenant.HierarchyRecord())
	}
	rows, _ := hierarchy.Build(records, nil)

	plans, err := s.planRepo.List(ctx, plandomain.ListFilter{IncludeArchived: true})
	if err != nil {
		return 0, err
	}
	planAmounts := make(map[string]int64, len(plans))
	for _, plan := range plans {
		planAmounts[plan.ID.String()] = plan.MonthlyAmountCents
	}

	var total int64
	for _, row := range rows {
		if row.Kind != hierarchy.RowTenant || row.Depth > 0 {
			continue
		}
		t := row.Tenant
		if t.IsFree || t.BillingStatus != hierarchy.BillingStatusActive {
			continue
		}
		if t.LifecycleStatus == hierarchy.LifecycleStatusArchived {
			continue
		}

		if t.SubscriptionPlanID != nil {
			total += planAmounts[t.SubscriptionPlanID.String()]
		}

		states, stateErr := s.addonRepo.ListTenantAddons(ctx, t.ID)
		if stateErr != nil {
			return 0, stateErr
		}
		for _, state := range states {
			tiers, tierErr := s.addonRepo.ListTiers(ctx, state.AddonID)
			if tierErr != nil {
				return 0, tierErr
			}
			total += addondomain.TieredAmountCents(tiers, state.Quantity)
		}
	}
	return total, nil
}
