package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/plan/domain"
	"github.com/citadia/citadia/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Audit auditdomain.Service
}

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	audit auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		repo:  p.Repo,
		audit: p.Audit,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreatePlanRequest) (*domain.Plan, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.MonthlyAmountCents < 0 || req.YearlyAmountCents < 0 {
		return nil, domain.ErrInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	if len(currency) != 3 {
		return nil, domain.ErrInvalidCurrency
	}

	now := time.Now().UTC()
	plan := domain.Plan{
		ID:                 s.genID.Generate(),
		Code:               code,
		Name:               name,
		Description:        strings.TrimSpace(req.Description),
		MonthlyAmountCents: req.MonthlyAmountCents,
		YearlyAmountCents:  req.YearlyAmountCents,
		Currency:           currency,
		IsActive:           true,
		Position:           req.Position,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}

	s.recordAudit(ctx, "plan.created", plan.ID, map[string]any{"code": code, "name": name})
	return &plan, nil
}

func (s *service) Update(ctx context.Context, id string, req domain.UpdatePlanRequest) (*domain.Plan, error) {
	plan, err := s.getByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, domain.ErrPlanArchived
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		plan.Name = name
	}
	if req.Description != nil {
		plan.Description = strings.TrimSpace(*req.Description)
	}
	if req.MonthlyAmountCents != nil {
		if *req.MonthlyAmountCents < 0 {
			return nil, domain.ErrInvalidAmount
		}
		plan.MonthlyAmountCents = *req.MonthlyAmountCents
	}
	if req.YearlyAmountCents != nil {
		if *req.YearlyAmountCents < 0 {
			return nil, domain.ErrInvalidAmount
		}
		plan.YearlyAmountCents = *req.YearlyAmountCents
	}
	if req.Position != nil {
		plan.Position = *req.Position
	}
	plan.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, *plan); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "plan.updated", plan.ID, map[string]any{"code": plan.Code})
	return plan, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.Plan, error) {
	return s.getByRawID(ctx, id)
}

func (s *service) List(ctx context.Context, includeArchived bool) ([]domain.Plan, error) {
	return s.repo.List(ctx, domain.ListFilter{IncludeArchived: includeArchived})
}

func (s *service) Archive(ctx context.Context, id string) error {
	plan, err := s.getByRawID(ctx, id)
	if err != nil {
		return err
	}
	if !plan.IsActive {
		return nil
	}

	plan.IsActive = false
	plan.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *plan); err != nil {
		return err
	}

	s.recordAudit(ctx, "plan.archived", plan.ID, map[string]any{"code": plan.Code})
	return nil
}

func (s *service) ListRefs(ctx context.Context) ([]domain.PlanRef, error) {
	plans, err := s.repo.List(ctx, domain.ListFilter{})
	if err != nil {
		return nil, err
	}

	refs := make([]domain.PlanRef, 0, len(plans))
	for _, plan := range plans {
		refs = append(refs, domain.PlanRef{ID: plan.ID.String(), Name: plan.Name})
	}
	return refs, nil
}

func (s *service) getByRawID(ctx context.Context, id string) (*domain.Plan, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidPlan
	}
	planID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidPlan
	}
	return s.repo.GetByID(ctx, planID)
}

func (s *service) recordAudit(ctx context.Context, action string, planID snowflake.ID, metadata map[string]any) {
	target := planID.String()
	if err := s.audit.Record(ctx, nil, action, "plan", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
