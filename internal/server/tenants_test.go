package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	addondomain "github.com/citadia/citadia/internal/addon/domain"
	associationdomain "github.com/citadia/citadia/internal/association/domain"
	auditdomain "github.com/citadia/citadia/internal/audit/domain"
	billingportaldomain "github.com/citadia/citadia/internal/billingportal/domain"
	"github.com/citadia/citadia/internal/config"
	dashboarddomain "github.com/citadia/citadia/internal/dashboard/domain"
	"github.com/citadia/citadia/internal/hierarchy"
	mandatedomain "github.com/citadia/citadia/internal/mandate/domain"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	stripebillingdomain "github.com/citadia/citadia/internal/stripebilling/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
)

const testOperatorToken = "operator-secret"

type fakeTenantService struct {
	tenants []tenantdomain.Tenant
}

func (f *fakeTenantService) Create(ctx context.Context, req tenantdomain.CreateTenantRequest) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) Update(ctx context.Context, id string, req tenantdomain.UpdateTenantRequest) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) Get(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	return nil, tenantdomain.ErrTenantNotFound
}
func (f *fakeTenantService) GetBySlug(ctx context.Context, slug string) (*tenantdomain.Tenant, error) {
	return nil, tenantdomain.ErrTenantNotFound
}
func (f *fakeTenantService) List(ctx context.Context, filter tenantdomain.ListFilter) ([]tenantdomain.Tenant, error) {
	return f.tenants, nil
}
func (f *fakeTenantService) Suspend(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) Reactivate(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) Archive(ctx context.Context, id string) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) SetBillingStatus(ctx context.Context, id string, status string) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) ExtendTrial(ctx context.Context, id string, until time.Time) (*tenantdomain.Tenant, error) {
	return nil, nil
}
func (f *fakeTenantService) AssignPlan(ctx context.Context, id string, planID string) (*tenantdomain.Tenant, error) {
	return nil, nil
}

type fakeTenantRepo struct {
	bySlug map[string]*tenantdomain.Tenant
}

func (f *fakeTenantRepo) WithTx(tx *gorm.DB) tenantdomain.Repository { return f }
func (f *fakeTenantRepo) Create(ctx context.Context, tenant tenantdomain.Tenant) error {
	return nil
}
func (f *fakeTenantRepo) Update(ctx context.Context, tenant tenantdomain.Tenant) error {
	return nil
}
func (f *fakeTenantRepo) GetByID(ctx context.Context, id snowflake.ID) (*tenantdomain.Tenant, error) {
	return nil, tenantdomain.ErrTenantNotFound
}
func (f *fakeTenantRepo) GetBySlug(ctx context.Context, slug string) (*tenantdomain.Tenant, error) {
	if tenant, ok := f.bySlug[slug]; ok {
		return tenant, nil
	}
	return nil, tenantdomain.ErrTenantNotFound
}
func (f *fakeTenantRepo) List(ctx context.Context, filter tenantdomain.ListFilter) ([]tenantdomain.Tenant, error) {
	return nil, nil
}

type fakeAssociationService struct {
	associations []associationdomain.Association
}

func (f *fakeAssociationService) Create(ctx context.Context, req associationdomain.CreateAssociationRequest) (*associationdomain.Association, error) {
	return nil, nil
}
func (f *fakeAssociationService) Update(ctx context.Context, id string, req associationdomain.UpdateAssociationRequest) (*associationdomain.Association, error) {
	return nil, nil
}
func (f *fakeAssociationService) Get(ctx context.Context, id string) (*associationdomain.Association, error) {
	return nil, associationdomain.ErrAssociationNotFound
}
func (f *fakeAssociationService) List(ctx context.Context) ([]associationdomain.Association, error) {
	return f.associations, nil
}
func (f *fakeAssociationService) ListByTenant(ctx context.Context, tenantID string) ([]associationdomain.Association, error) {
	return nil, nil
}
func (f *fakeAssociationService) Deactivate(ctx context.Context, id string) (*associationdomain.Association, error) {
	return nil, nil
}

type fakePlanService struct {
	plans []plandomain.Plan
}

func (f *fakePlanService) Create(ctx context.Context, req plandomain.CreatePlanRequest) (*plandomain.Plan, error) {
	return nil, nil
}
func (f *fakePlanService) Update(ctx context.Context, id string, req plandomain.UpdatePlanRequest) (*plandomain.Plan, error) {
	return nil, nil
}
func (f *fakePlanService) Get(ctx context.Context, id string) (*plandomain.Plan, error) {
	return nil, plandomain.ErrPlanNotFound
}
func (f *fakePlanService) List(ctx context.Context, includeArchived bool) ([]plandomain.Plan, error) {
	return f.plans, nil
}
func (f *fakePlanService) Archive(ctx context.Context, id string) error { return nil }
func (f *fakePlanService) ListRefs(ctx context.Context) ([]plandomain.PlanRef, error) {
	refs := make([]plandomain.PlanRef, 0, len(f.plans))
	for _, plan := range f.plans {
		refs = append(refs, plandomain.PlanRef{ID: plan.ID.String(), Name: plan.Name})
	}
	return refs, nil
}

type fakeAddonService struct{}

func (f *fakeAddonService) CreateAddon(ctx context.Context, req addondomain.CreateAddonRequest) (*addondomain.Addon, error) {
	return nil, nil
}
func (f *fakeAddonService) UpdateAddon(ctx context.Context, id string, req addondomain.UpdateAddonRequest) (*addondomain.Addon, error) {
	return nil, nil
}
func (f *fakeAddonService) GetAddon(ctx context.Context, id string) (*addondomain.Addon, error) {
	return nil, addondomain.ErrAddonNotFound
}
func (f *fakeAddonService) ListAddons(ctx context.Context, includeArchived bool) ([]addondomain.Addon, error) {
	return nil, nil
}
func (f *fakeAddonService) ArchiveAddon(ctx context.Context, id string) error { return nil }
func (f *fakeAddonService) Attach(ctx context.Context, tenantID, addonID string, quantity int64) (*addondomain.TenantAddon, error) {
	return nil, nil
}
func (f *fakeAddonService) ListByTenant(ctx context.Context, tenantID string) ([]addondomain.TenantAddonView, error) {
	return nil, nil
}
func (f *fakeAddonService) PreviewQuantityChange(ctx context.Context, tenantID, addonID string, newQuantity int64, now time.Time) (*addondomain.QuantityChangePreview, error) {
	return nil, nil
}
func (f *fakeAddonService) ApplyQuantityChange(ctx context.Context, tenantID, addonID string, newQuantity int64, now time.Time) (*addondomain.TenantAddon, error) {
	return nil, nil
}

type fakeMandateService struct{}

func (f *fakeMandateService) Create(ctx context.Context, req mandatedomain.CreateInvoiceRequest) (*mandatedomain.Invoice, error) {
	return nil, nil
}
func (f *fakeMandateService) Get(ctx context.Context, id string) (*mandatedomain.Invoice, error) {
	return nil, mandatedomain.ErrInvoiceNotFound
}
func (f *fakeMandateService) List(ctx context.Context, filter mandatedomain.ListRequest) ([]mandatedomain.Invoice, error) {
	return nil, nil
}
func (f *fakeMandateService) Issue(ctx context.Context, id string) (*mandatedomain.Invoice, error) {
	return nil, nil
}
func (f *fakeMandateService) Settle(ctx context.Context, id string) (*mandatedomain.Invoice, error) {
	return nil, nil
}
func (f *fakeMandateService) Cancel(ctx context.Context, id string) (*mandatedomain.Invoice, error) {
	return nil, nil
}
func (f *fakeMandateService) RenderPDF(ctx context.Context, id string) (io.Reader, error) {
	return nil, mandatedomain.ErrNotIssued
}

type fakeStripeService struct{}

func (f *fakeStripeService) EnsureCustomer(ctx context.Context, tenantID string) (string, error) {
	return "", nil
}
func (f *fakeStripeService) CreateInvoice(ctx context.Context, tenantID string, req stripebillingdomain.CreateInvoiceRequest) (*stripebillingdomain.Invoice, error) {
	return nil, nil
}
func (f *fakeStripeService) ListInvoices(ctx context.Context, tenantID string) ([]stripebillingdomain.Invoice, error) {
	return nil, nil
}

type fakeAuditService struct{}

func (f *fakeAuditService) Record(ctx context.Context, tenantID *snowflake.ID, action string, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}
func (f *fakeAuditService) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type fakeDashboardService struct{}

func (f *fakeDashboardService) Overview(ctx context.Context, now time.Time) (*dashboarddomain.Overview, error) {
	return &dashboarddomain.Overview{}, nil
}

type fakePortalService struct {
	summary *billingportaldomain.Summary
}

func (f *fakePortalService) Summary(ctx context.Context, slug string, now time.Time) (*billingportaldomain.Summary, error) {
	if f.summary == nil {
		return nil, tenantdomain.ErrTenantNotFound
	}
	return f.summary, nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func newTestServer(t *testing.T, mutate func(*ServerParams)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())

	params := ServerParams{
		Gin:            engine,
		Cfg:            config.Config{SuperadminToken: testOperatorToken},
		Log:            zap.NewNop(),
		GenID:          mustNode(t),
		AuditSvc:       &fakeAuditService{},
		TenantSvc:      &fakeTenantService{},
		TenantRepo:     &fakeTenantRepo{},
		AssociationSvc: &fakeAssociationService{},
		PlanSvc:        &fakePlanService{},
		AddonSvc:       &fakeAddonService{},
		MandateSvc:     &fakeMandateService{},
		StripeSvc:      &fakeStripeService{},
		DashboardSvc:   &fakeDashboardService{},
		PortalSvc:      &fakePortalService{},
	}
	if mutate != nil {
		mutate(&params)
	}
	return NewServer(params)
}

func TestSuperadminRequired_RejectsMissingToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/superadmin/tenants-list", nil)
	srv.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSuperadminRequired_RejectsWrongToken(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/superadmin/tenants-list", nil)
	req.Header.Set(HeaderSuperadminToken, "wrong")
	srv.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantsList_ComposesHierarchy(t *testing.T) {
	node := mustNode(t)
	epciID := node.Generate()
	mairieID := node.Generate()
	assocID := node.Generate()
	planID := node.Generate()

	srv := newTestServer(t, func(p *ServerParams) {
		p.TenantSvc = &fakeTenantService{tenants: []tenantdomain.Tenant{
			{
				ID:                 epciID,
				Name:               "Agglo Nord",
				Type:               hierarchy.TenantTypeEpci,
				BillingStatus:      hierarchy.BillingStatusSuspended,
				LifecycleStatus:    hierarchy.LifecycleStatusActive,
				SubscriptionPlanID: &planID,
			},
			{
				ID:              mairieID,
				Name:            "Mairie de Vertou",
				Type:            hierarchy.TenantTypeMairie,
				ParentEpciID:    &epciID,
				BillingStatus:   hierarchy.BillingStatusActive,
				LifecycleStatus: hierarchy.LifecycleStatusActive,
			},
		}}
		p.AssociationSvc = &fakeAssociationService{associations: []associationdomain.Association{
			{ID: assocID, TenantID: mairieID, Name: "Club de foot", IsActive: true},
		}}
		p.PlanSvc = &fakePlanService{plans: []plandomain.Plan{
			{ID: planID, Code: plandomain.CodeStandard, Name: "Standard"},
		}}
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/superadmin/tenants-list", nil)
	req.Header.Set(HeaderSuperadminToken, testOperatorToken)
	srv.engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Tenants      []json.RawMessage `json:"tenants"`
		Associations []json.RawMessage `json:"associations"`
		Rows         []hierarchyRow    `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Tenants, 2)
	require.Len(t, body.Associations, 1)
	require.Len(t, body.Rows, 3)

	require.Equal(t, epciID.String(), body.Rows[0].ID)
	require.Equal(t, 0, body.Rows[0].Depth)
	require.Equal(t, "SUSPENDED", body.Rows[0].BillingStatus)
	require.False(t, body.Rows[0].Inherited)
	require.Equal(t, "Standard", body.Rows[0].PlanLabel)

	require.Equal(t, mairieID.String(), body.Rows[1].ID)
	require.Equal(t, 1, body.Rows[1].Depth)
	require.Equal(t, "SUSPENDED", body.Rows[1].BillingStatus)
	require.True(t, body.Rows[1].Inherited)
	require.Equal(t, "Via parent", body.Rows[1].PlanLabel)

	require.Equal(t, assocID.String(), body.Rows[2].ID)
	require.Equal(t, 2, body.Rows[2].Depth)
	require.True(t, body.Rows[2].Inherited)
	require.Equal(t, "Via parent", body.Rows[2].PlanLabel)
}

func TestPortalBillingSummary_TokenAuth(t *testing.T) {
	node := mustNode(t)
	tenantID := node.Generate()

	tenant := &tenantdomain.Tenant{
		ID:       tenantID,
		Name:     "Mairie de Cholet",
		Slug:     "mairie-de-cholet",
		Metadata: datatypes.JSONMap{tenantdomain.MetadataPortalToken: "portal-secret"},
	}
	srv := newTestServer(t, func(p *ServerParams) {
		p.TenantRepo = &fakeTenantRepo{bySlug: map[string]*tenantdomain.Tenant{tenant.Slug: tenant}}
		p.PortalSvc = &fakePortalService{summary: &billingportaldomain.Summary{
			TenantID: tenantID.String(),
			Name:     tenant.Name,
			Slug:     tenant.Slug,
		}}
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/portal/mairie-de-cholet/billing", nil)
	req.Header.Set(HeaderPortalToken, "wrong")
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/portal/mairie-de-cholet/billing", nil)
	req.Header.Set(HeaderPortalToken, "portal-secret")
	srv.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary billingportaldomain.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Equal(t, tenant.Slug, summary.Slug)
}
