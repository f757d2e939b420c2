package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/observability/metrics"
	"github.com/citadia/citadia/internal/stripebilling/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Config     config.Config
	GenID      *snowflake.Node
	Repo       domain.Repository
	TenantRepo tenantdomain.Repository
	Gateway    domain.Gateway
	Audit      auditdomain.Service
	Metrics    *metrics.Metrics `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	genID      *snowflake.Node
	repo       domain.Repository
	tenantRepo tenantdomain.Repository
	gateway    domain.Gateway
	audit      auditdomain.Service
	metrics    *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("stripebilling.service"),
		cfg:        p.Config,
		genID:      p.GenID,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		gateway:    p.Gateway,
		audit:      p.Audit,
		metrics:    p.Metrics,
	}
}

func (s *service) EnsureCustomer(ctx context.Context, tenantID string) (string, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if tenant.StripeCustomerID != nil && *tenant.StripeCustomerID != "" {
		return *tenant.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, domain.CustomerParams{
		Name:  tenant.Name,
		Email: tenant.ContactEmail,
	})
	if err != nil {
		s.log.Error("stripe customer creation failed",
			zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
		return "", err
	}

	tenant.StripeCustomerID = &customerID
	tenant.UpdatedAt = time.Now().UTC()
	if err := s.tenantRepo.Update(ctx, *tenant); err != nil {
		return "", err
	}

	if s.metrics != nil {
		s.metrics.RecordStripeSync(ctx, "customer_created")
	}
	s.recordAudit(ctx, tenant.ID, "stripe.customer_created", map[string]any{
		"stripe_customer_id": customerID,
	})
	return customerID, nil
}

func (s *service) CreateInvoice(ctx context.Context, tenantID string, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, domain.ErrInvalidLines
	}
	lines := make([]domain.GatewayLine, 0, len(req.Lines))
	for _, line := range req.Lines {
		description := strings.TrimSpace(line.Description)
		if description == "" || line.AmountCents < 0 {
			return nil, domain.ErrInvalidLines
		}
		lines = append(lines, domain.GatewayLine{
			Description: description,
			AmountCents: line.AmountCents,
			Quantity:    line.Quantity,
		})
	}

	customerID, err := s.EnsureCustomer(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	gatewayInvoice, err := s.gateway.CreateInvoice(ctx, customerID, "EUR", lines, int64(s.cfg.MandateDueDays))
	if err != nil {
		s.log.Error("stripe invoice creation failed",
			zap.String("tenant_id", tenant.ID.String()), zap.Error(err))
		return nil, err
	}

	now := time.Now().UTC()
	mirror := domain.Invoice{
		ID:               s.genID.Generate(),
		TenantID:         tenant.ID,
		StripeInvoiceID:  gatewayInvoice.ID,
		Status:           gatewayInvoice.Status,
		AmountDueCents:   gatewayInvoice.AmountDueCents,
		Currency:         "EUR",
		HostedInvoiceURL: gatewayInvoice.HostedInvoiceURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Upsert(ctx, mirror); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordInvoiceIssued(ctx, "stripe")
	}
	s.recordAudit(ctx, tenant.ID, "stripe.invoice_created", map[string]any{
		"stripe_invoice_id": gatewayInvoice.ID,
		"amount_due_cents":  gatewayInvoice.AmountDueCents,
	})
	return &mirror, nil
}

func (s *service) ListInvoices(ctx context.Context, tenantID string) ([]domain.Invoice, error) {
	tenant, err := s.getTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByTenant(ctx, tenant.ID)
}

func (s *service) getTenant(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidTenant
	}
	tenantID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidTenant
	}
	return s.tenantRepo.GetByID(ctx, tenantID)
}

func (s *service) recordAudit(ctx context.Context, tenantID snowflake.ID, action string, metadata map[string]any) {
	target := tenantID.String()
	if err := s.audit.Record(ctx, &tenantID, action, "tenant", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}
