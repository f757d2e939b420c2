package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/tenant/domain"
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

func (r *repository) Create(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO tenants (
			id, name, slug, type, parent_epci_id, parent_tenant_id,
			billing_status, lifecycle_status, trial_ends_at, is_free,
			subscription_plan, subscription_plan_id, stripe_customer_id,
			contact_email, contact_name, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID,
		tenant.Name,
		tenant.Slug,
		tenant.Type,
		tenant.ParentEpciID,
		tenant.ParentTenantID,
		tenant.BillingStatus,
		tenant.LifecycleStatus,
		tenant.TrialEndsAt,
		tenant.IsFree,
		tenant.SubscriptionPlan,
		tenant.SubscriptionPlanID,
		tenant.StripeCustomerID,
		tenant.ContactEmail,
		tenant.ContactName,
		tenant.Metadata,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, tenant domain.Tenant) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE tenants SET
			name = ?, slug = ?, parent_epci_id = ?, parent_tenant_id = ?,
			billing_status = ?, lifecycle_status = ?, trial_ends_at = ?,
			is_free = ?, subscription_plan = ?, subscription_plan_id = ?,
			stripe_customer_id = ?, contact_email = ?, contact_name = ?,
			metadata = ?, updated_at = ?
		 WHERE id = ?`,
		tenant.Name,
		tenant.Slug,
		tenant.ParentEpciID,
		tenant.ParentTenantID,
		tenant.BillingStatus,
		tenant.LifecycleStatus,
		tenant.TrialEndsAt,
		tenant.IsFree,
		tenant.SubscriptionPlan,
		tenant.SubscriptionPlanID,
		tenant.StripeCustomerID,
		tenant.ContactEmail,
		tenant.ContactName,
		tenant.Metadata,
		tenant.UpdatedAt,
		tenant.ID,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	stmt := r.db.WithContext(ctx).Model(&domain.Tenant{})
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.BillingStatus != "" {
		stmt = stmt.Where("billing_status = ?", filter.BillingStatus)
	}
	if filter.LifecycleStatus != "" {
		stmt = stmt.Where("lifecycle_status = ?", filter.LifecycleStatus)
	}

	// The hierarchy builder preserves input order, so the listing order is
	// the display order inside each sibling group.
	if err := stmt.Order("created_at asc, id asc").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}
