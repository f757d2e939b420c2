package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/addon/domain"
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
		log:        p.Log.Named("addon.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		audit:      p.Audit,
	}
}

func (s *service) CreateAddon(ctx context.Context, req domain.CreateAddonRequest) (*domain.Addon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if err := validateTiers(req.Tiers); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}

	now := time.Now().UTC()
	addon := domain.Addon{
		ID:          s.genID.Generate(),
		Code:        code,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Unit:        strings.TrimSpace(req.Unit),
		Currency:    currency,
		IsActive:    true,
		Position:    req.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tiers := s.buildTiers(addon.ID, req.Tiers, now)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateAddon(ctx, addon); err != nil {
			return err
		}
		return repo.ReplaceTiers(ctx, addon.ID, tiers)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrCodeTaken
		}
		return nil, err
	}

	addon.Tiers = tiers
	s.recordAudit(ctx, nil, addon.ID, "addon.created", map[string]any{"code": code})
	return &addon, nil
}

func (s *service) UpdateAddon(ctx context.Context, id string, req domain.UpdateAddonRequest) (*domain.Addon, error) {
	addon, err := s.getAddonByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !addon.IsActive {
		return nil, domain.ErrAddonArchived
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		addon.Name = name
	}
	if req.Description != nil {
		addon.Description = strings.TrimSpace(*req.Description)
	}
	if req.Position != nil {
		addon.Position = *req.Position
	}
	addon.UpdatedAt = time.Now().UTC()

	var tiers []domain.AddonTier
	if req.Tiers != nil {
		if err := validateTiers(req.Tiers); err != nil {
			return nil, err
		}
		tiers = s.buildTiers(addon.ID, req.Tiers, addon.UpdatedAt)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateAddon(ctx, *addon); err != nil {
			return err
		}
		if tiers != nil {
			return repo.ReplaceTiers(ctx, addon.ID, tiers)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tiers == nil {
		tiers, err = s.repo.ListTiers(ctx, addon.ID)
		if err != nil {
			return nil, err
		}
	}
	addon.Tiers = tiers
	s.recordAudit(ctx, nil, addon.ID, "addon.updated", nil)
	return addon, nil
}

func (s *service) GetAddon(ctx context.Context, id string) (*domain.Addon, error) {
	addon, err := s.getAddonByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	tiers, err := s.repo.ListTiers(ctx, addon.ID)
	if err != nil {
		return nil, err
	}
	addon.Tiers = tiers
	return addon, nil
}

func (s *service) ListAddons(ctx context.Context, includeArchived bool) ([]domain.Addon, error) {
	addons, err := s.repo.ListAddons(ctx, includeArchived)
	if err != nil {
		return nil, err
	}
	for i := range addons {
		tiers, tierErr := s.repo.ListTiers(ctx, addons[i].ID)
		if tierErr != nil {
			return nil, tierErr
		}
		addons[i].Tiers = tiers
	}
	return addons, nil
}

func (s *service) ArchiveAddon(ctx context.Context, id string) error {
	addon, err := s.getAddonByRawID(ctx, id)
	if err != nil {
		return err
	}
	if !addon.IsActive {
		return nil
	}

	addon.IsActive = false
	addon.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateAddon(ctx, *addon); err != nil {
		return err
	}

	s.recordAudit(ctx, nil, addon.ID, "addon.archived", map[string]any{"code": addon.Code})
	return nil
}

func (s *service) Attach(ctx context.Context, tenantID, addonID string, quantity int64) (*domain.TenantAddon, error) {
	if quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	addon, err := s.getAddonByRawID(ctx, addonID)
	if err != nil {
		return nil, err
	}
	if !addon.IsActive {
		return nil, domain.ErrAddonArchived
	}

	if _, err := s.repo.GetTenantAddon(ctx, tenant.ID, addon.ID); err == nil {
		return nil, domain.ErrAlreadyAttached
	} else if err != domain.ErrNotAttached {
		return nil, err
	}

	now := time.Now().UTC()
	state := domain.TenantAddon{
		ID:        s.genID.Generate(),
		TenantID:  tenant.ID,
		AddonID:   addon.ID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.UpsertTenantAddon(ctx, state); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &tenant.ID, addon.ID, "addon.attached", map[string]any{"quantity": quantity})
	return &state, nil
}

func (s *service) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantAddonView, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	states, err := s.repo.ListTenantAddons(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}

	views := make([]domain.TenantAddonView, 0, len(states))
	for _, state := range states {
		addon, addonErr := s.repo.GetAddonByID(ctx, state.AddonID)
		if addonErr != nil {
			return nil, addonErr
		}
		tiers, tierErr := s.repo.ListTiers(ctx, addon.ID)
		if tierErr != nil {
			return nil, tierErr
		}
		addon.Tiers = tiers
		views = append(views, domain.TenantAddonView{
			TenantAddon:        state,
			Addon:              *addon,
			MonthlyAmountCents: domain.TieredAmountCents(tiers, state.Quantity),
		})
	}
	return views, nil
}

func (s *service) PreviewQuantityChange(ctx context.Context, tenantID, addonID string, newQuantity int64, now time.Time) (*domain.QuantityChangePreview, error) {
	if newQuantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	state, tiers, err := s.loadAttachment(ctx, tenantID, addonID)
	if err != nil {
		return nil, err
	}

	preview := computePreview(tiers, state.Quantity, newQuantity, now)
	return &preview, nil
}

func (s *service) ApplyQuantityChange(ctx context.Context, tenantID, addonID string, newQuantity int64, now time.Time) (*domain.TenantAddon, error) {
	if newQuantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	state, tiers, err := s.loadAttachment(ctx, tenantID, addonID)
	if err != nil {
		return nil, err
	}

	preview := computePreview(tiers, state.Quantity, newQuantity, now)
	if preview.Scheduled {
		state.ScheduledQuantity = &newQuantity
		scheduledAt := preview.EffectiveAt
		state.ScheduledAt = &scheduledAt
	} else {
		state.Quantity = newQuantity
		state.ScheduledQuantity = nil
		state.ScheduledAt = nil
	}
	state.UpdatedAt = now.UTC()

	if err := s.repo.UpsertTenantAddon(ctx, *state); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, &state.TenantID, state.AddonID, "addon.quantity_changed", map[string]any{
		"old_quantity": preview.OldQuantity,
		"new_quantity": newQuantity,
		"scheduled":    preview.Scheduled,
	})
	return state, nil
}

func (s *service) loadAttachment(ctx context.Context, tenantID, addonID string) (*domain.TenantAddon, []domain.AddonTier, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	addon, err := s.getAddonByRawID(ctx, addonID)
	if err != nil {
		return nil, nil, err
	}

	state, err := s.repo.GetTenantAddon(ctx, tenant.ID, addon.ID)
	if err != nil {
		return nil, nil, err
	}
	tiers, err := s.repo.ListTiers(ctx, addon.ID)
	if err != nil {
		return nil, nil, err
	}
	return state, tiers, nil
}

func (s *service) getTenant(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidTenant
	}
	tenantID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidTenant
	}
	return s.tenantRepo.GetByID(ctx, tenantID)
}

func (s *service) getAddonByRawID(ctx context.Context, id string) (*domain.Addon, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidAddon
	}
	addonID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidAddon
	}
	return s.repo.GetAddonByID(ctx, addonID)
}

func (s *service) buildTiers(addonID snowflake.ID, reqs []domain.TierRequest, now time.Time) []domain.AddonTier {
	tiers := make([]domain.AddonTier, 0, len(reqs))
	for i, req := range reqs {
		tiers = append(tiers, domain.AddonTier{
			ID:              s.genID.Generate(),
			AddonID:         addonID,
			UpTo:            req.UpTo,
			UnitAmountCents: req.UnitAmountCents,
			FlatAmountCents: req.FlatAmountCents,
			Position:        i,
			CreatedAt:       now,
		})
	}
	return tiers
}

// validateTiers requires strictly increasing bounds with at most one
// unbounded band, which must come last.
func validateTiers(reqs []domain.TierRequest) error {
	if len(reqs) == 0 {
		return domain.ErrInvalidTiers
	}

	var lower int64
	for i, req := range reqs {
		if req.UnitAmountCents < 0 || req.FlatAmountCents < 0 {
			return domain.ErrInvalidTiers
		}
		if req.UpTo == nil {
			if i != len(reqs)-1 {
				return domain.ErrInvalidTiers
			}
			continue
		}
		if *req.UpTo <= lower {
			return domain.ErrInvalidTiers
		}
		lower = *req.UpTo
	}
	return nil
}

func (s *service) recordAudit(ctx context.Context, tenantID *snowflake.ID, addonID snowflake.ID, action string, metadata map[string]any) {
	target := addonID.String()
	if err := s.audit.Record(ctx, tenantID, action, "addon", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
