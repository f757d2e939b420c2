package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"

	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/hierarchy"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	"github.com/citadia/citadia/internal/tenant/domain"
	"github.com/citadia/citadia/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	GenID    *snowflake.Node
	Repo     domain.Repository
	PlanRepo plandomain.Repository
	Audit    auditdomain.Service
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      config.Config
	genID    *snowflake.Node
	repo     domain.Repository
	planRepo plandomain.Repository
	audit    auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("tenant.service"),
		cfg:      p.Config,
		genID:    p.GenID,
		repo:     p.Repo,
		planRepo: p.PlanRepo,
		audit:    p.Audit,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateTenantRequest) (*domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	tenantType := hierarchy.TenantType(strings.ToUpper(strings.TrimSpace(req.Type)))
	switch tenantType {
	case hierarchy.TenantTypeEpci, hierarchy.TenantTypeMairie, hierarchy.TenantTypeAssociation:
	default:
		return nil, domain.ErrInvalidType
	}

	parentEpciID, parentTenantID, err := s.resolveParents(ctx, tenantType, req.ParentEpciID, req.ParentTenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, s.cfg.TrialDays)

	tenant := domain.Tenant{
		ID:              s.genID.Generate(),
		Name:            name,
		Slug:            slug.Make(name),
		Type:            tenantType,
		ParentEpciID:    parentEpciID,
		ParentTenantID:  parentTenantID,
		BillingStatus:   hierarchy.BillingStatusTrial,
		LifecycleStatus: hierarchy.LifecycleStatusActive,
		TrialEndsAt:     &trialEnd,
		IsFree:          req.IsFree,
		ContactEmail:    strings.TrimSpace(req.ContactEmail),
		ContactName:     strings.TrimSpace(req.ContactName),
		Metadata:        datatypes.JSONMap{domain.MetadataPortalToken: newPortalToken()},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if planRaw := strings.TrimSpace(req.PlanID); planRaw != "" {
		planID, parseErr := snowflake.ParseString(planRaw)
		if parseErr != nil {
			return nil, plandomain.ErrInvalidPlan
		}
		plan, planErr := s.planRepo.GetByID(ctx, planID)
		if planErr != nil {
			return nil, planErr
		}
		tenant.SubscriptionPlanID = &plan.ID
		tenant.SubscriptionPlan = plan.Code
	}

	if err := s.repo.Create(ctx, tenant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, "tenant.created", map[string]any{
		"name": tenant.Name,
		"type": string(tenant.Type),
	})
	return &tenant, nil
}

func (s *service) Update(ctx context.Context, id string, req domain.UpdateTenantRequest) (*domain.Tenant, error) {
	tenant, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		tenant.Name = name
		tenant.Slug = slug.Make(name)
	}
	if req.ContactEmail != nil {
		tenant.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if req.ContactName != nil {
		tenant.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.IsFree != nil {
		tenant.IsFree = *req.IsFree
	}

	if req.ParentEpciID != nil || req.ParentTenantID != nil {
		epciRaw := ""
		tenantRaw := ""
		if req.ParentEpciID != nil {
			epciRaw = *req.ParentEpciID
		}
		if req.ParentTenantID != nil {
			tenantRaw = *req.ParentTenantID
		}
		parentEpciID, parentTenantID, parentErr := s.resolveParents(ctx, tenant.Type, epciRaw, tenantRaw)
		if parentErr != nil {
			return nil, parentErr
		}
		tenant.ParentEpciID = parentEpciID
		tenant.ParentTenantID = parentTenantID
	}

	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, "tenant.updated", nil)
	return tenant, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	tenantID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID)
}

func (s *service) GetBySlug(ctx context.Context, raw string) (*domain.Tenant, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, domain.ErrInvalidTenant
	}
	return s.repo.GetBySlug(ctx, trimmed)
}

func (s *service) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Suspend(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.transitionLifecycle(ctx, id, hierarchy.LifecycleStatusSuspended, "tenant.suspended")
}

func (s *service) Reactivate(ctx context.Context, id string) (*domain.Tenant, error) {
	return s.transitionLifecycle(ctx, id, hierarchy.LifecycleStatusActive, "tenant.reactivated")
}

func (s *service) Archive(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.LifecycleStatus == hierarchy.LifecycleStatusArchived {
		return tenant, nil
	}

	tenant.LifecycleStatus = hierarchy.LifecycleStatusArchived
	tenant.BillingStatus = hierarchy.BillingStatusCancelled
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, "tenant.archived", nil)
	return tenant, nil
}

func (s *service) SetBillingStatus(ctx context.Context, id string, status string) (*domain.Tenant, error) {
	billingStatus := hierarchy.BillingStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch billingStatus {
	case hierarchy.BillingStatusTrial, hierarchy.BillingStatusActive,
		hierarchy.BillingStatusSuspended, hierarchy.BillingStatusCancelled:
	default:
		return nil, domain.ErrInvalidStatus
	}

	tenant, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := tenant.BillingStatus
	tenant.BillingStatus = billingStatus
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, "tenant.billing_status_changed", map[string]any{
		"from": string(previous),
		"to":   string(billingStatus),
	})
	return tenant, nil
}

func (s *service) ExtendTrial(ctx context.Context, id string, until time.Time) (*domain.Tenant, error) {
	if until.Before(time.Now().UTC()) {
		return nil, domain.ErrInvalidTrialEnd
	}

	tenant, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	trialEnd := until.UTC()
	tenant.TrialEndsAt = &trialEnd
	tenant.BillingStatus = hierarchy.BillingStatusTrial
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, "tenant.trial_extended", map[string]any{
		"trial_ends_at": trialEnd.Format(time.RFC3339),
	})
	return tenant, nil
}

func (s *service) AssignPlan(ctx context.Context, id string, planID string) (*domain.Tenant, error) {
	planRaw := strings.TrimSpace(planID)
	if planRaw == "" {
		return nil, plandomain.ErrInvalidPlan
	}
	parsedPlanID, err := snowflake.ParseString(planRaw)
	if err != nil {
		return nil, plandomain.ErrInvalidPlan
	}
	plan, err := s.planRepo.GetByID(ctx, parsedPlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, plandomain.ErrPlanArchived
	}

	tenant, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	tenant.SubscriptionPlanID = &plan.ID
	tenant.SubscriptionPlan = plan.Code
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, "tenant.plan_assigned", map[string]any{
		"plan_id":   plan.ID.String(),
		"plan_code": plan.Code,
	})
	return tenant, nil
}

func (s *service) transitionLifecycle(ctx context.Context, id string, target hierarchy.LifecycleStatus, action string) (*domain.Tenant, error) {
	tenant, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.LifecycleStatus == target {
		return tenant, nil
	}

	tenant.LifecycleStatus = target
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *tenant); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, action, nil)
	return tenant, nil
}

// getMutable loads a tenant and rejects mutations on archived rows.
func (s *service) getMutable(ctx context.Context, id string) (*domain.Tenant, error) {
	tenant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant.LifecycleStatus == hierarchy.LifecycleStatusArchived {
		return nil, domain.ErrTenantArchived
	}
	return tenant, nil
}

// resolveParents validates the parent references for a tenant type. Only
// mairies may hang under a parent, the referenced tenant must exist, and an
// EPCI reference must point at an EPCI.
func (s *service) resolveParents(ctx context.Context, tenantType hierarchy.TenantType, epciRaw, tenantRaw string) (*snowflake.ID, *snowflake.ID, error) {
	epciRaw = strings.TrimSpace(epciRaw)
	tenantRaw = strings.TrimSpace(tenantRaw)

	if epciRaw == "" && tenantRaw == "" {
		return nil, nil, nil
	}
	if epciRaw != "" && tenantRaw != "" {
		return nil, nil, domain.ErrDualParent
	}
	if tenantType != hierarchy.TenantTypeMairie {
		return nil, nil, domain.ErrParentTypeMismatch
	}

	raw := epciRaw
	if raw == "" {
		raw = tenantRaw
	}
	parentID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, nil, domain.ErrInvalidParent
	}

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		if err == domain.ErrTenantNotFound {
			return nil, nil, domain.ErrParentNotFound
		}
		return nil, nil, err
	}
	if parent.Type != hierarchy.TenantTypeEpci {
		return nil, nil, domain.ErrParentTypeMismatch
	}

	if epciRaw != "" {
		return &parentID, nil, nil
	}
	return nil, &parentID, nil
}

func (s *service) recordAudit(ctx context.Context, tenantID snowflake.ID, action string, metadata map[string]any) {
	target := tenantID.String()
	if err := s.audit.Record(ctx, &tenantID, action, "tenant", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// newPortalToken mints the secret a tenant presents on its self-service
// billing page.
func newPortalToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

func parseID(id string) (snowflake.ID, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return 0, domain.ErrInvalidTenant
	}
	parsed, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, domain.ErrInvalidTenant
	}
	return parsed, nil
}
