package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/addon/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateAddon(ctx context.Context, addon domain.Addon) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO addons (id, code, name, description, unit, currency, is_active, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		addon.ID,
		addon.Code,
		addon.Name,
		addon.Description,
		addon.Unit,
		addon.Currency,
		addon.IsActive,
		addon.Position,
		addon.CreatedAt,
		addon.UpdatedAt,
	).Error
}

func (r *repository) UpdateAddon(ctx context.Context, addon domain.Addon) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE addons
		 SET name = ?, description = ?, unit = ?, is_active = ?, position = ?, updated_at = ?
		 WHERE id = ?`,
		addon.Name,
		addon.Description,
		addon.Unit,
		addon.IsActive,
		addon.Position,
		addon.UpdatedAt,
		addon.ID,
	).Error
}

func (r *repository) GetAddonByID(ctx context.Context, id snowflake.ID) (*domain.Addon, error) {
	var addon domain.Addon
	if err := r.db.WithContext(ctx).First(&addon, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAddonNotFound
		}
		return nil, err
	}
	return &addon, nil
}

func (r *repository) ListAddons(ctx context.Context, includeArchived bool) ([]domain.Addon, error) {
	var addons []domain.Addon
	stmt := r.db.WithContext(ctx).Model(&domain.Addon{})
	if !includeArchived {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("position asc, created_at asc").Find(&addons).Error; err != nil {
		return nil, err
	}
	return addons, nil
}

func (r *repository) ReplaceTiers(ctx context.Context, addonID snowflake.ID, tiers []domain.AddonTier) error {
	if err := r.db.WithContext(ctx).Exec(`DELETE FROM addon_tiers WHERE addon_id = ?`, addonID).Error; err != nil {
		return err
	}
	for _, tier := range tiers {
		if err := r.db.WithContext(ctx).Exec(
			`INSERT INTO addon_tiers (id, addon_id, up_to, unit_amount_cents, flat_amount_cents, position, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tier.ID,
			tier.AddonID,
			tier.UpTo,
			tier.UnitAmountCents,
			tier.FlatAmountCents,
			tier.Position,
			tier.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) ListTiers(ctx context.Context, addonID snowflake.ID) ([]domain.AddonTier, error) {
	var tiers []domain.AddonTier
	if err := r.db.WithContext(ctx).
		Where("addon_id = ?", addonID).
		Order("position asc").
		Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repository) UpsertTenantAddon(ctx context.Context, state domain.TenantAddon) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO tenant_addons (id, tenant_id, addon_id, quantity, scheduled_quantity, scheduled_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, addon_id) DO UPDATE SET
			quantity = excluded.quantity,
			scheduled_quantity = excluded.scheduled_quantity,
			scheduled_at = excluded.scheduled_at,
			updated_at = excluded.updated_at`,
		state.ID,
		state.TenantID,
		state.AddonID,
		state.Quantity,
		state.ScheduledQuantity,
		state.ScheduledAt,
		state.CreatedAt,
		state.UpdatedAt,
	).Error
}

func (r *repository) GetTenantAddon(ctx context.Context, tenantID, addonID snowflake.ID) (*domain.TenantAddon, error) {
	var state domain.TenantAddon
	if err := r.db.WithContext(ctx).
		First(&state, "tenant_id = ? AND addon_id = ?", tenantID, addonID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotAttached
		}
		return nil, err
	}
	return &state, nil
}

func (r *repository) ListTenantAddons(ctx context.Context, tenantID snowflake.ID) ([]domain.TenantAddon, error) {
	var states []domain.TenantAddon
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at asc").
		Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}
