package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreateAssociationRequest) (*Association, error)
	Update(ctx context.Context, id string, req UpdateAssociationRequest) (*Association, error)
	Get(ctx context.Context, id string) (*Association, error)
	List(ctx context.Context) ([]Association, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Association, error)
	Deactivate(ctx context.Context, id string) (*Association, error)
}

type CreateAssociationRequest struct {
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

type UpdateAssociationRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
}

var (
	ErrInvalidAssociation  = errors.New("invalid_association")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidTenant       = errors.New("invalid_tenant")
	ErrAssociationNotFound = errors.New("association_not_found")
	ErrSlugTaken           = errors.New("slug_taken")
)
