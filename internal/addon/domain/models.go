// Package domain contains the add-on catalog and per-tenant addon state.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Addon is one catalog entry billed on top of a subscription plan.
type Addon struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"type:text;not null;uniqueIndex:ux_addons_code" json:"code"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Unit        string       `gorm:"type:text;not null" json:"unit"`
	Currency    string       `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	IsActive    bool         `gorm:"not null;default:true" json:"is_active"`
	Position    int          `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Tiers []AddonTier `gorm:"-" json:"tiers,omitempty"`
}

// TableName sets the database table name.
func (Addon) TableName() string { return "addons" }

// AddonTier is one graduated pricing band. A nil UpTo marks the unbounded
// last band. Bands are ordered by Position and priced cumulatively: each
// band charges its unit amount for the quantity falling inside it, plus its
// flat amount once the band is entered.
type AddonTier struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	AddonID         snowflake.ID `gorm:"not null;index" json:"addon_id"`
	UpTo            *int64       `json:"up_to,omitempty"`
	UnitAmountCents int64        `gorm:"not null;default:0" json:"unit_amount_cents"`
	FlatAmountCents int64        `gorm:"not null;default:0" json:"flat_amount_cents"`
	Position        int          `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AddonTier) TableName() string { return "addon_tiers" }

// TenantAddon is the per-tenant attachment state: the quantity billed now
// and, for pending decreases, the quantity scheduled at period end.
type TenantAddon struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID `gorm:"not null;index;uniqueIndex:ux_tenant_addon,priority:1" json:"tenant_id"`
	AddonID           snowflake.ID `gorm:"not null;index;uniqueIndex:ux_tenant_addon,priority:2" json:"addon_id"`
	Quantity          int64        `gorm:"not null;default:0" json:"quantity"`
	ScheduledQuantity *int64       `json:"scheduled_quantity,omitempty"`
	ScheduledAt       *time.Time   `json:"scheduled_at,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (TenantAddon) TableName() string { return "tenant_addons" }

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateAddon(ctx context.Context, addon Addon) error
	UpdateAddon(ctx context.Context, addon Addon) error
	GetAddonByID(ctx context.Context, id snowflake.ID) (*Addon, error)
	ListAddons(ctx context.Context, includeArchived bool) ([]Addon, error)

	ReplaceTiers(ctx context.Context, addonID snowflake.ID, tiers []AddonTier) error
	ListTiers(ctx context.Context, addonID snowflake.ID) ([]AddonTier, error)

	UpsertTenantAddon(ctx context.Context, state TenantAddon) error
	GetTenantAddon(ctx context.Context, tenantID, addonID snowflake.ID) (*TenantAddon, error)
	ListTenantAddons(ctx context.Context, tenantID snowflake.ID) ([]TenantAddon, error)
}
