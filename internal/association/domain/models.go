// Package domain contains the association models and ports.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/citadia/citadia/internal/hierarchy"
	"gorm.io/gorm"
)

// Association is a sub-entity hosted by exactly one tenant. Associations
// never bill on their own; their displayed billing state comes from the
// owner.
type Association struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID     snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Slug         string       `gorm:"type:text;not null;uniqueIndex:ux_associations_slug" json:"slug"`
	ContactEmail string       `gorm:"type:text" json:"contact_email,omitempty"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Association) TableName() string { return "associations" }

// HierarchyRecord projects the association into the snapshot consumed by
// the hierarchy builder.
func (a Association) HierarchyRecord() hierarchy.AssociationRecord {
	return hierarchy.AssociationRecord{
		ID:           a.ID,
		TenantID:     a.TenantID,
		Name:         a.Name,
		Slug:         a.Slug,
		ContactEmail: a.ContactEmail,
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
	}
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assoc Association) error
	Update(ctx context.Context, assoc Association) error
	GetByID(ctx context.Context, id snowflake.ID) (*Association, error)
	List(ctx context.Context) ([]Association, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Association, error)
}
