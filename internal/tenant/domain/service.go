package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (*Tenant, error)
	Update(ctx context.Context, id string, req UpdateTenantRequest) (*Tenant, error)
	Get(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context, filter ListFilter) ([]Tenant, error)

	Suspend(ctx context.Context, id string) (*Tenant, error)
	Reactivate(ctx context.Context, id string) (*Tenant, error)
	Archive(ctx context.Context, id string) (*Tenant, error)

	SetBillingStatus(ctx context.Context, id string, status string) (*Tenant, error)
	ExtendTrial(ctx context.Context, id string, until time.Time) (*Tenant, error)
	AssignPlan(ctx context.Context, id string, planID string) (*Tenant, error)
}

type CreateTenantRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	ParentEpciID   string `json:"parent_epci_id"`
	ParentTenantID string `json:"parent_tenant_id"`
	ContactEmail   string `json:"contact_email"`
	ContactName    string `json:"contact_name"`
	IsFree         bool   `json:"is_free"`
	PlanID         string `json:"plan_id"`
}

type UpdateTenantRequest struct {
	Name           *string `json:"name"`
	ContactEmail   *string `json:"contact_email"`
	ContactName    *string `json:"contact_name"`
	IsFree         *bool   `json:"is_free"`
	ParentEpciID   *string `json:"parent_epci_id"`
	ParentTenantID *string `json:"parent_tenant_id"`
}

var (
	ErrInvalidTenant      = errors.New("invalid_tenant")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidType        = errors.New("invalid_type")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidTrialEnd    = errors.New("invalid_trial_end")
	ErrInvalidParent      = errors.New("invalid_parent")
	ErrParentNotFound     = errors.New("parent_not_found")
	ErrParentTypeMismatch = errors.New("parent_type_mismatch")
	ErrDualParent         = errors.New("dual_parent")
	ErrTenantNotFound     = errors.New("tenant_not_found")
	ErrSlugTaken          = errors.New("slug_taken")
	ErrTenantArchived     = errors.New("tenant_archived")
)
