package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	CreateAddon(ctx context.Context, req CreateAddonRequest) (*Addon, error)
	UpdateAddon(ctx context.Context, id string, req UpdateAddonRequest) (*Addon, error)
	GetAddon(ctx context.Context, id string) (*Addon, error)
	ListAddons(ctx context.Context, includeArchived bool) ([]Addon, error)
	ArchiveAddon(ctx context.Context, id string) error

	Attach(ctx context.Context, tenantID, addonID string, quantity int64) (*TenantAddon, error)
	ListByTenant(ctx context.Context, tenantID string) ([]TenantAddonView, error)

	// PreviewQuantityChange computes the billing impact of moving a tenant's
	// addon quantity, without persisting anything. now is injected for
	// deterministic proration.
	PreviewQuantityChange(ctx context.Context, tenantID, addonID string, newQuantity int64, now time.Time) (*QuantityChangePreview, error)
	// ApplyQuantityChange persists the change previewed above: immediately
	// for increases, scheduled at period end for decreases.
	ApplyQuantityChange(ctx context.Context, tenantID, addonID string, newQuantity int64, now time.Time) (*TenantAddon, error)
}

type CreateAddonRequest struct {
	Code        string             `json:"code"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Unit        string             `json:"unit"`
	Currency    string             `json:"currency"`
	Position    int                `json:"position"`
	Tiers       []TierRequest      `json:"tiers"`
}

type UpdateAddonRequest struct {
	Name        *string       `json:"name"`
	Description *string       `json:"description"`
	Position    *int          `json:"position"`
	Tiers       []TierRequest `json:"tiers"`
}

type TierRequest struct {
	UpTo            *int64 `json:"up_to"`
	UnitAmountCents int64  `json:"unit_amount_cents"`
	FlatAmountCents int64  `json:"flat_amount_cents"`
}

// TenantAddonView joins the attachment state with its catalog entry and the
// monthly amount at the current quantity.
type TenantAddonView struct {
	TenantAddon
	Addon              Addon `json:"addon"`
	MonthlyAmountCents int64 `json:"monthly_amount_cents"`
}

// QuantityChangePreview is the server-side computation behind the quantity
// change dialog.
type QuantityChangePreview struct {
	OldQuantity          int64     `json:"old_quantity"`
	NewQuantity          int64     `json:"new_quantity"`
	OldAmountCents       int64     `json:"old_amount_cents"`
	NewAmountCents       int64     `json:"new_amount_cents"`
	MonthlyDeltaCents    int64     `json:"monthly_delta_cents"`
	ImmediateChargeCents int64     `json:"immediate_charge_cents"`
	Scheduled            bool      `json:"scheduled"`
	EffectiveAt          time.Time `json:"effective_at"`
	PeriodStart          time.Time `json:"period_start"`
	PeriodEnd            time.Time `json:"period_end"`
	RemainingDays        int       `json:"remaining_days"`
	PeriodDays           int       `json:"period_days"`
}

var (
	ErrInvalidAddon     = errors.New("invalid_addon")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidTiers     = errors.New("invalid_tiers")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidTenant    = errors.New("invalid_tenant")
	ErrAddonNotFound    = errors.New("addon_not_found")
	ErrAddonArchived    = errors.New("addon_archived")
	ErrCodeTaken        = errors.New("code_taken")
	ErrNotAttached      = errors.New("addon_not_attached")
	ErrAlreadyAttached  = errors.New("addon_already_attached")
)
