// Package domain contains the subscription plan catalog models and ports.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Built-in plan codes. Tenants migrated from the legacy flat field may
// still carry these as raw strings.
const (
	CodeFreeTrial = "FREE_TRIAL"
	CodeStandard  = "STANDARD"
	CodePremium   = "PREMIUM"
)

// Plan is one subscription plan of the catalog.
type Plan struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Code               string       `gorm:"type:text;not null;uniqueIndex:ux_plans_code" json:"code"`
	Name               string       `gorm:"type:text;not null" json:"name"`
	Description        string       `gorm:"type:text" json:"description"`
	MonthlyAmountCents int64        `gorm:"not null;default:0" json:"monthly_amount_cents"`
	YearlyAmountCents  int64        `gorm:"not null;default:0" json:"yearly_amount_cents"`
	Currency           string       `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	IsActive           bool         `gorm:"not null;default:true" json:"is_active"`
	Position           int          `gorm:"not null;default:0" json:"position"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// ListFilter narrows the catalog listing.
type ListFilter struct {
	IncludeArchived bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, plan Plan) error
	Update(ctx context.Context, plan Plan) error
	GetByID(ctx context.Context, id snowflake.ID) (*Plan, error)
	GetByCode(ctx context.Context, code string) (*Plan, error)
	List(ctx context.Context, filter ListFilter) ([]Plan, error)
}
