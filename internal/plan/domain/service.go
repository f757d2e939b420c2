package domain

import (
	"context"
	"errors"
)

type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	Update(ctx context.Context, id string, req UpdatePlanRequest) (*Plan, error)
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context, includeArchived bool) ([]Plan, error)
	Archive(ctx context.Context, id string) error

	// ListRefs returns the id and name projection consumed by selector
	// widgets.
	ListRefs(ctx context.Context) ([]PlanRef, error)
}

type CreatePlanRequest struct {
	Code               string `json:"code"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	MonthlyAmountCents int64  `json:"monthly_amount_cents"`
	YearlyAmountCents  int64  `json:"yearly_amount_cents"`
	Currency           string `json:"currency"`
	Position           int    `json:"position"`
}

type UpdatePlanRequest struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	MonthlyAmountCents *int64  `json:"monthly_amount_cents"`
	YearlyAmountCents  *int64  `json:"yearly_amount_cents"`
	Position           *int    `json:"position"`
}

// PlanRef is the minimal projection exposed by the plans-list endpoint.
type PlanRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var (
	ErrInvalidPlan     = errors.New("invalid_plan")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrPlanNotFound    = errors.New("plan_not_found")
	ErrCodeTaken       = errors.New("code_taken")
	ErrPlanArchived    = errors.New("plan_archived")
)
