package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	"github.com/citadia/citadia/internal/config"
	"github.com/citadia/citadia/internal/hierarchy"
	"github.com/citadia/citadia/internal/mandate/domain"
	"github.com/citadia/citadia/internal/mandate/repository"
	"github.com/citadia/citadia/internal/providers/pdf"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
	tenantrepository "github.com/citadia/citadia/internal/tenant/repository"
)

type auditStub struct {
	actions []string
}

func (a *auditStub) Record(ctx context.Context, tenantID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error {
	a.actions = append(a.actions, action)
	return nil
}

func (a *auditStub) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type pdfStub struct {
	last pdf.MandateData
}

func (p *pdfStub) GenerateMandate(ctx context.Context, data pdf.MandateData) (io.Reader, error) {
	p.last = data
	return strings.NewReader("%PDF-1.7"), nil
}

func setupMandateService(t *testing.T) (domain.Service, tenantdomain.Tenant, *pdfStub) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&tenantdomain.Tenant{},
		&domain.Invoice{},
		&domain.Line{},
		&domain.Sequence{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	now := time.Now().UTC()
	tenant := tenantdomain.Tenant{
		ID:              node.Generate(),
		Name:            "CC du Val de Loire",
		Slug:            "cc-du-val-de-loire",
		Type:            hierarchy.TenantTypeEpci,
		BillingStatus:   hierarchy.BillingStatusActive,
		LifecycleStatus: hierarchy.LifecycleStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, db.Create(&tenant).Error)

	renderer := &pdfStub{}
	svc := NewService(Params{
		DB:         db,
		Log:        zap.NewNop(),
		Config:     config.Config{AppName: "citadia", MandateDueDays: 30, MandateNumPrefix: "MD"},
		GenID:      node,
		Repo:       repository.NewRepository(db),
		TenantRepo: tenantrepository.NewRepository(db),
		Audit:      &auditStub{},
		PDF:        renderer,
	})
	return svc, tenant, renderer
}

func createDraft(t *testing.T, svc domain.Service, tenantID string) *domain.Invoice {
	t.Helper()
	invoice, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		TenantID:      tenantID,
		EngagementRef: "ENG-2026-17",
		Lines: []domain.LineRequest{
			{Description: "Abonnement annuel", Quantity: 1, UnitAmountCents: 49000},
			{Description: "Module associations", Quantity: 3, UnitAmountCents: 1500},
		},
	})
	require.NoError(t, err)
	return invoice
}

func TestCreate_ComputesTotals(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)

	invoice := createDraft(t, svc, tenant.ID.String())

	require.Equal(t, domain.StatusDraft, invoice.Status)
	require.Nil(t, invoice.Number)
	require.Equal(t, int64(53500), invoice.SubtotalCents)
	require.Equal(t, int64(10700), invoice.VATCents)
	require.Equal(t, int64(64200), invoice.TotalCents)
	require.Equal(t, "EUR", invoice.Currency)
	require.Len(t, invoice.Lines, 2)
	require.Equal(t, int64(4500), invoice.Lines[1].AmountCents)
}

func TestCreate_RejectsEmptyLines(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)

	_, err := svc.Create(context.Background(), domain.CreateInvoiceRequest{
		TenantID: tenant.ID.String(),
	})
	require.ErrorIs(t, err, domain.ErrInvalidLines)
}

func TestIssue_AssignsSequentialNumbers(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)
	ctx := context.Background()

	first := createDraft(t, svc, tenant.ID.String())
	second := createDraft(t, svc, tenant.ID.String())

	issued, err := svc.Issue(ctx, first.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.StatusIssued, issued.Status)
	require.NotNil(t, issued.IssuedAt)
	require.NotNil(t, issued.DueAt)
	require.WithinDuration(t, issued.IssuedAt.AddDate(0, 0, 30), *issued.DueAt, time.Second)

	year := time.Now().UTC().Year()
	require.NotNil(t, issued.Number)
	require.Equal(t, fmt.Sprintf("MD-%d-000001", year), *issued.Number)

	issued2, err := svc.Issue(ctx, second.ID.String())
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("MD-%d-000002", year), *issued2.Number)
}

func TestIssue_RejectsNonDraft(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)
	ctx := context.Background()

	invoice := createDraft(t, svc, tenant.ID.String())
	_, err := svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	_, err = svc.Issue(ctx, invoice.ID.String())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSettle_RequiresIssued(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)
	ctx := context.Background()

	invoice := createDraft(t, svc, tenant.ID.String())
	_, err := svc.Settle(ctx, invoice.ID.String())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	settled, err := svc.Settle(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.StatusSettled, settled.Status)
	require.NotNil(t, settled.SettledAt)
}

func TestCancel_SettledIsImmutable(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)
	ctx := context.Background()

	invoice := createDraft(t, svc, tenant.ID.String())
	_, err := svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)
	_, err = svc.Settle(ctx, invoice.ID.String())
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, invoice.ID.String())
	require.ErrorIs(t, err, domain.ErrInvoiceImmutable)
}

func TestCancel_Draft(t *testing.T) {
	svc, tenant, _ := setupMandateService(t)

	invoice := createDraft(t, svc, tenant.ID.String())
	cancelled, err := svc.Cancel(context.Background(), invoice.ID.String())
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestRenderPDF_RequiresIssuedNumber(t *testing.T) {
	svc, tenant, renderer := setupMandateService(t)
	ctx := context.Background()

	invoice := createDraft(t, svc, tenant.ID.String())
	_, err := svc.RenderPDF(ctx, invoice.ID.String())
	require.ErrorIs(t, err, domain.ErrNotIssued)

	issued, err := svc.Issue(ctx, invoice.ID.String())
	require.NoError(t, err)

	reader, err := svc.RenderPDF(ctx, invoice.ID.String())
	require.NoError(t, err)
	require.NotNil(t, reader)
	require.Equal(t, *issued.Number, renderer.last.Number)
	require.Equal(t, tenant.Name, renderer.last.BillToName)
	require.Equal(t, "642.00 EUR", renderer.last.Total)
	require.Len(t, renderer.last.Items, 2)
}

func TestGet_UnknownInvoice(t *testing.T) {
	svc, _, _ := setupMandateService(t)

	_, err := svc.Get(context.Background(), "123456789")
	require.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}
