// Package domain contains the tenant models and ports.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/hierarchy"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant represents one billable local body: an EPCI, a mairie, or an
// association billed directly.
//
// ParentEpciID and ParentTenantID both remain on the schema; legacy rows may
// carry either. Writes reject setting both, reads tolerate it.
type Tenant struct {
	ID                 snowflake.ID              `gorm:"primaryKey" json:"id"`
	Name               string                    `gorm:"type:text;not null" json:"name"`
	Slug               string                    `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	Type               hierarchy.TenantType      `gorm:"type:text;not null;index" json:"type"`
	ParentEpciID       *snowflake.ID             `gorm:"index" json:"parent_epci_id,omitempty"`
	ParentTenantID     *snowflake.ID             `gorm:"index" json:"parent_tenant_id,omitempty"`
	BillingStatus      hierarchy.BillingStatus   `gorm:"type:text;not null;index" json:"billing_status"`
	LifecycleStatus    hierarchy.LifecycleStatus `gorm:"type:text;not null;default:'ACTIVE'" json:"lifecycle_status"`
	TrialEndsAt        *time.Time                `json:"trial_ends_at,omitempty"`
	IsFree             bool                      `gorm:"not null;default:false" json:"is_free"`
	SubscriptionPlan   string                    `gorm:"type:text" json:"subscription_plan,omitempty"`
	SubscriptionPlanID *snowflake.ID             `gorm:"index" json:"subscription_plan_id,omitempty"`
	StripeCustomerID   *string                   `gorm:"type:text" json:"stripe_customer_id,omitempty"`
	ContactEmail       string                    `gorm:"type:text" json:"contact_email,omitempty"`
	ContactName        string                    `gorm:"type:text" json:"contact_name,omitempty"`
	Metadata           datatypes.JSONMap         `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt          time.Time                 `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time                 `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }

// MetadataPortalToken is the metadata key holding the secret checked by the
// tenant billing portal.
const MetadataPortalToken = "portal_token"

// PortalToken returns the tenant's portal secret, empty when never minted.
func (t Tenant) PortalToken() string {
	raw, _ := t.Metadata[MetadataPortalToken].(string)
	return raw
}

// HierarchyRecord projects the tenant into the snapshot consumed by the
// hierarchy builder.
func (t Tenant) HierarchyRecord() hierarchy.TenantRecord {
	return hierarchy.TenantRecord{
		ID:                 t.ID,
		Name:               t.Name,
		Slug:               t.Slug,
		Type:               t.Type,
		ParentEpciID:       t.ParentEpciID,
		ParentTenantID:     t.ParentTenantID,
		BillingStatus:      t.BillingStatus,
		LifecycleStatus:    t.LifecycleStatus,
		TrialEndsAt:        t.TrialEndsAt,
		IsFree:             t.IsFree,
		SubscriptionPlan:   t.SubscriptionPlan,
		SubscriptionPlanID: t.SubscriptionPlanID,
		ContactEmail:       t.ContactEmail,
		ContactName:        t.ContactName,
		CreatedAt:          t.CreatedAt,
	}
}

// ListFilter narrows tenant listings. Zero values mean no filter.
type ListFilter struct {
	Type            hierarchy.TenantType
	BillingStatus   hierarchy.BillingStatus
	LifecycleStatus hierarchy.LifecycleStatus
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, tenant Tenant) error
	Update(ctx context.Context, tenant Tenant) error
	GetByID(ctx context.Context, id snowflake.ID) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)
}
