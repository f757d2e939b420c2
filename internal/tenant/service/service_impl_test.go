package service

import (
	"context"
	"fmt"
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
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	planrepository "github.com/citadia/citadia/internal/plan/repository"
	"github.com/citadia/citadia/internal/tenant/domain"
	"github.com/citadia/citadia/internal/tenant/repository"
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

func setupTenantService(t *testing.T) (domain.Service, *gorm.DB, *auditStub) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Tenant{}, &plandomain.Plan{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	audit := &auditStub{}
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		Config:   config.Config{TrialDays: 14},
		GenID:    node,
		Repo:     repository.NewRepository(db),
		PlanRepo: planrepository.NewRepository(db),
		Audit:    audit,
	})
	return svc, db, audit
}

func TestCreate_StartsTrial(t *testing.T) {
	svc, _, audit := setupTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{
		Name: "CC du Val de Loire",
		Type: "epci",
	})
	require.NoError(t, err)

	require.Equal(t, hierarchy.TenantTypeEpci, tenant.Type)
	require.Equal(t, hierarchy.BillingStatusTrial, tenant.BillingStatus)
	require.Equal(t, hierarchy.LifecycleStatusActive, tenant.LifecycleStatus)
	require.Equal(t, "cc-du-val-de-loire", tenant.Slug)
	require.NotNil(t, tenant.TrialEndsAt)

	expected := time.Now().UTC().AddDate(0, 0, 14)
	require.WithinDuration(t, expected, *tenant.TrialEndsAt, time.Minute)

	require.NotEmpty(t, tenant.PortalToken())
	require.Contains(t, audit.actions, "tenant.created")
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	svc, _, _ := setupTenantService(t)

	_, err := svc.Create(context.Background(), domain.CreateTenantRequest{
		Name: "Syndicat des eaux",
		Type: "SYNDICAT",
	})
	require.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestCreate_RejectsDualParent(t *testing.T) {
	svc, _, _ := setupTenantService(t)
	ctx := context.Background()

	epci, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Agglo Nord", Type: "EPCI"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateTenantRequest{
		Name:           "Mairie de Vertou",
		Type:           "MAIRIE",
		ParentEpciID:   epci.ID.String(),
		ParentTenantID: epci.ID.String(),
	})
	require.ErrorIs(t, err, domain.ErrDualParent)
}

func TestCreate_ParentMustBeEpci(t *testing.T) {
	svc, _, _ := setupTenantService(t)
	ctx := context.Background()

	mairie, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Mairie de Cholet", Type: "MAIRIE"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, domain.CreateTenantRequest{
		Name:         "Mairie de Sevre",
		Type:         "MAIRIE",
		ParentEpciID: mairie.ID.String(),
	})
	require.ErrorIs(t, err, domain.ErrParentTypeMismatch)
}

func TestCreate_ParentNotFound(t *testing.T) {
	svc, _, _ := setupTenantService(t)

	_, err := svc.Create(context.Background(), domain.CreateTenantRequest{
		Name:         "Mairie de Clisson",
		Type:         "MAIRIE",
		ParentEpciID: "123456789",
	})
	require.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestExtendTrial(t *testing.T) {
	svc, _, _ := setupTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Agglo Sud", Type: "EPCI"})
	require.NoError(t, err)

	_, err = svc.SetBillingStatus(ctx, tenant.ID.String(), "SUSPENDED")
	require.NoError(t, err)

	until := time.Now().UTC().AddDate(0, 1, 0)
	updated, err := svc.ExtendTrial(ctx, tenant.ID.String(), until)
	require.NoError(t, err)
	require.Equal(t, hierarchy.BillingStatusTrial, updated.BillingStatus)
	require.WithinDuration(t, until, *updated.TrialEndsAt, time.Second)
}

func TestExtendTrial_RejectsPastDate(t *testing.T) {
	svc, _, _ := setupTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Agglo Est", Type: "EPCI"})
	require.NoError(t, err)

	_, err = svc.ExtendTrial(ctx, tenant.ID.String(), time.Now().UTC().AddDate(0, 0, -1))
	require.ErrorIs(t, err, domain.ErrInvalidTrialEnd)
}

func TestSetBillingStatus_RejectsUnknown(t *testing.T) {
	svc, _, _ := setupTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "Agglo Ouest", Type: "EPCI"})
	require.NoError(t, err)

	_, err = svc.SetBillingStatus(ctx, tenant.ID.String(), "PAUSED")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestArchive_FreezesTenant(t *testing.T) {
	svc, _, _ := setupTenantService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "CC des Coteaux", Type: "EPCI"})
	require.NoError(t, err)

	archived, err := svc.Archive(ctx, tenant.ID.String())
	require.NoError(t, err)
	require.Equal(t, hierarchy.LifecycleStatusArchived, archived.LifecycleStatus)
	require.Equal(t, hierarchy.BillingStatusCancelled, archived.BillingStatus)

	name := "Renamed"
	_, err = svc.Update(ctx, tenant.ID.String(), domain.UpdateTenantRequest{Name: &name})
	require.ErrorIs(t, err, domain.ErrTenantArchived)
}

func TestAssignPlan(t *testing.T) {
	svc, db, _ := setupTenantService(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	plan := plandomain.Plan{
		ID:                 node.Generate(),
		Code:               plandomain.CodeStandard,
		Name:               "Standard",
		MonthlyAmountCents: 4900,
		Currency:           "EUR",
		IsActive:           true,
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	require.NoError(t, db.Create(&plan).Error)

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "CC du Bocage", Type: "EPCI"})
	require.NoError(t, err)

	updated, err := svc.AssignPlan(ctx, tenant.ID.String(), plan.ID.String())
	require.NoError(t, err)
	require.NotNil(t, updated.SubscriptionPlanID)
	require.Equal(t, plan.ID, *updated.SubscriptionPlanID)
	require.Equal(t, plandomain.CodeStandard, updated.SubscriptionPlan)
}

func TestAssignPlan_RejectsArchivedPlan(t *testing.T) {
	svc, db, _ := setupTenantService(t)
	ctx := context.Background()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)
	plan := plandomain.Plan{
		ID:        node.Generate(),
		Code:      "LEGACY",
		Name:      "Legacy",
		Currency:  "EUR",
		IsActive:  false,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&plan).Error)

	tenant, err := svc.Create(ctx, domain.CreateTenantRequest{Name: "CC des Landes", Type: "EPCI"})
	require.NoError(t, err)

	_, err = svc.AssignPlan(ctx, tenant.ID.String(), plan.ID.String())
	require.ErrorIs(t, err, plandomain.ErrPlanArchived)
}
