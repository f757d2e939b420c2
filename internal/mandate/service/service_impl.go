package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/mandate/domain"
	"github.com/citadia/citadia/internal/mandate/format"
	"github.com/citadia/citadia/internal/observability/metrics"
	"github.com/citadia/citadia/internal/providers/pdf"
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
	Audit      auditdomain.Service
	PDF        pdf.Provider
	Metrics    *metrics.Metrics `optional:"true"`
}

type service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	genID      *snowflake.Node
	repo       domain.Repository
	tenantRepo tenantdomain.Repository
	audit      auditdomain.Service
	pdf        pdf.Provider
	metrics    *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:         p.DB,
		log:        p.Log.Named("mandate.service"),
		cfg:        p.Config,
		genID:      p.GenID,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		audit:      p.Audit,
		pdf:        p.PDF,
		metrics:    p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.Invoice, error) {
	tenantRaw := strings.TrimSpace(req.TenantID)
	if tenantRaw == "" {
		return nil, domain.ErrInvalidTenant
	}
	tenantID, err := snowflake.ParseString(tenantRaw)
	if err != nil {
		return nil, domain.ErrInvalidTenant
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if len(req.Lines) == 0 {
		return nil, domain.ErrInvalidLines
	}

	now := time.Now().UTC()
	invoiceID := s.genID.Generate()

	var subtotal int64
	lines := make([]domain.Line, 0, len(req.Lines))
	for i, lineReq := range req.Lines {
		description := strings.TrimSpace(lineReq.Description)
		quantity := lineReq.Quantity
		if quantity == 0 {
			quantity = 1
		}
		if description == "" || quantity < 0 || lineReq.UnitAmountCents < 0 {
			return nil, domain.ErrInvalidLines
		}

		amount := quantity * lineReq.UnitAmountCents
		subtotal += amount
		lines = append(lines, domain.Line{
			ID:              s.genID.Generate(),
			InvoiceID:       invoiceID,
			Description:     description,
			Quantity:        quantity,
			UnitAmountCents: lineReq.UnitAmountCents,
			AmountCents:     amount,
			Position:        i,
			CreatedAt:       now,
		})
	}

	vat := vatCents(subtotal)
	invoice := domain.Invoice{
		ID:            invoiceID,
		TenantID:      tenant.ID,
		Status:        domain.StatusDraft,
		EngagementRef: strings.TrimSpace(req.EngagementRef),
		SubtotalCents: subtotal,
		VATCents:      vat,
		TotalCents:    subtotal + vat,
		Currency:      "EUR",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, invoice, lines)
	})
	if err != nil {
		return nil, err
	}

	invoice.Lines = lines
	s.recordAudit(ctx, invoice, "mandate.created", map[string]any{
		"total_cents": invoice.TotalCents,
	})
	return &invoice, nil
}

func (s *service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.getByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.ListLines(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Lines = lines
	return invoice, nil
}

func (s *service) List(ctx context.Context, req domain.ListRequest) ([]domain.Invoice, error) {
	filter := domain.ListFilter{}
	if raw := strings.TrimSpace(req.TenantID); raw != "" {
		tenantID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidTenant
		}
		filter.TenantID = &tenantID
	}
	if raw := strings.ToUpper(strings.TrimSpace(req.Status)); raw != "" {
		status := domain.Status(raw)
		switch status {
		case domain.StatusDraft, domain.StatusIssued, domain.StatusSettled, domain.StatusCancelled:
			filter.Status = status
		default:
			return nil, domain.ErrInvalidStatus
		}
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Issue(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.getByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.StatusDraft {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	dueAt := now.AddDate(0, 0, s.cfg.MandateDueDays)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seq, seqErr := repo.NextSequence(ctx, now.Year())
		if seqErr != nil {
			return seqErr
		}
		number, fmtErr := format.FormatNumber(s.numberTemplate(), now, seq)
		if fmtErr != nil {
			return fmtErr
		}

		invoice.Number = &number
		invoice.Status = domain.StatusIssued
		invoice.IssuedAt = &now
		invoice.DueAt = &dueAt
		invoice.UpdatedAt = now
		return repo.Update(ctx, *invoice)
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordInvoiceIssued(ctx, "mandate")
	}
	s.recordAudit(ctx, *invoice, "mandate.issued", map[string]any{
		"number": *invoice.Number,
	})
	return invoice, nil
}

func (s *service) Settle(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.getByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != domain.StatusIssued {
		return nil, domain.ErrInvalidTransition
	}

	now := time.Now().UTC()
	invoice.Status = domain.StatusSettled
	invoice.SettledAt = &now
	invoice.UpdatedAt = now
	if err := s.repo.Update(ctx, *invoice); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, *invoice, "mandate.settled", nil)
	return invoice, nil
}

func (s *service) Cancel(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := s.getByRawID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case domain.StatusDraft, domain.StatusIssued:
	case domain.StatusSettled:
		return nil, domain.ErrInvoiceImmutable
	default:
		return nil, domain.ErrInvalidTransition
	}

	invoice.Status = domain.StatusCancelled
	invoice.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *invoice); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, *invoice, "mandate.cancelled", nil)
	return invoice, nil
}

func (s *service) RenderPDF(ctx context.Context, id string) (io.Reader, error) {
	invoice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.StatusDraft || invoice.Number == nil {
		return nil, domain.ErrNotIssued
	}

	tenant, err := s.tenantRepo.GetByID(ctx, invoice.TenantID)
	if err != nil {
		return nil, err
	}

	items := make([]pdf.MandateItem, 0, len(invoice.Lines))
	for _, line := range invoice.Lines {
		items = append(items, pdf.MandateItem{
			Description: line.Description,
			Qty:         line.Quantity,
			UnitPrice:   formatEuro(line.UnitAmountCents),
			Amount:      formatEuro(line.AmountCents),
		})
	}

	data := pdf.MandateData{
		IssuerName:    s.cfg.AppName,
		Number:        *invoice.Number,
		EngagementRef: invoice.EngagementRef,
		IssueDate:     formatDate(invoice.IssuedAt),
		DueDate:       formatDate(invoice.DueAt),
		BillToName:    tenant.Name,
		BillToEmail:   tenant.ContactEmail,
		Items:         items,
		Subtotal:      formatEuro(invoice.SubtotalCents),
		VAT:           formatEuro(invoice.VATCents),
		Total:         formatEuro(invoice.TotalCents),
	}
	return s.pdf.GenerateMandate(ctx, data)
}

func (s *service) getByRawID(ctx context.Context, id string) (*domain.Invoice, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidInvoice
	}
	invoiceID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidInvoice
	}
	return s.repo.GetByID(ctx, invoiceID)
}

func (s *service) numberTemplate() string {
	prefix := strings.TrimSpace(s.cfg.MandateNumPrefix)
	if prefix == "" {
		return format.DefaultNumberTemplate
	}
	return prefix + "-{YYYY}-{SEQ6}"
}

func (s *service) recordAudit(ctx context.Context, invoice domain.Invoice, action string, metadata map[string]any) {
	target := invoice.ID.String()
	if err := s.audit.Record(ctx, &invoice.TenantID, action, "mandate_invoice", &target, metadata); err != nil {
		s.log.Warn("audit write failed", zap.String("action", action), zap.Error(err))
	}
}

// vatCents applies the single VAT rate, rounding half away from zero.
func vatCents(subtotal int64) int64 {
	return (subtotal*domain.VATRatePercent + 50) / 100
}

func formatEuro(cents int64) string {
	return fmt.Sprintf("%.2f EUR", float64(cents)/100)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}
