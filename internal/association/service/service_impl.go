package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"

	"github.com/citadia/citadia/internal/association/domain"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
	"github.com/citadia/citadia/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	TenantRepo tenantdomain.Repository
	Audit      auditdomain.Service
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	tenantRepo tenantdomain.Repository
	audit      auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("association.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		audit:      p.Audit,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateAssociationRequest) (*domain.Association, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	tenantRaw := strings.TrimSpace(req.TenantID)
	if tenantRaw == "" {
		return nil, domain.ErrInvalidTenant
	}
	tenantID, err := snowflake.ParseString(tenantRaw)
	if err != nil {
		return nil, domain.ErrInvalidTenant
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	assoc := domain.Association{
		ID:           s.genID.Generate(),
		TenantID:     tenant.ID,
		Name:         name,
		Slug:         slug.Make(name),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, assoc); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.recordAudit(ctx, tenant.ID, assoc.ID, "association.created", map[string]any{"name": name})
	return &assoc, nil
}

func (s *service) Update(ctx context.Context, id string, req domain.UpdateAssociationRequest) (*domain.Association, error) {
	assoc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		assoc.Name = name
		assoc.Slug = slug.Make(name)
	}
	if req.ContactEmail != nil {
		assoc.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	assoc.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, *assoc); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.recordAudit(ctx, assoc.TenantID, assoc.ID, "association.updated", nil)
	return assoc, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.Association, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidAssociation
	}
	assocID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidAssociation
	}
	return s.repo.GetByID(ctx, assocID)
}

func (s *service) List(ctx context.Context) ([]domain.Association, error) {
	return s.repo.List(ctx)
}

func (s *service) ListByTenant(ctx context.Context, tenantID string) ([]domain.Association, error) {
	raw := strings.TrimSpace(tenantID)
	if raw == "" {
		return nil, domain.ErrInvalidTenant
	}
	parsed, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidTenant
	}
	return s.repo.ListByTenant(ctx, parsed)
}

func (s *service) Deactivate(ctx context.Context, id string) (*domain.Association, error) {
	assoc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !assoc.IsActive {
		return assoc, nil
	}

	assoc.IsActive = false
	assoc.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *assoc); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, assoc.TenantID, assoc.ID, "association.deactivated", nil)
	return assoc, nil
}

func (s *service) recordAudit(ctx context.Context, tenantID, assocID snowflake.ID, action string, metadata map[string]any) {
	target := assocID.String()
	if err := s.audit.Record(ctx, &tenantID, action, "association", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
