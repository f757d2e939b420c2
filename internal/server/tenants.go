package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/citadia/citadia/internal/hierarchy"
	plandomain "github.com/citadia/citadia/internal/plan/domain"
	tenantdomain "github.com/citadia/citadia/internal/tenant/domain"
)

func (s *Server) CreateTenant(c *gin.Context) {
	var req tenantdomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ListTenants(c *gin.Context) {
	filter := tenantdomain.ListFilter{
		Type:            hierarchy.TenantType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		BillingStatus:   hierarchy.BillingStatus(strings.ToUpper(strings.TrimSpace(c.Query("billing_status")))),
		LifecycleStatus: hierarchy.LifecycleStatus(strings.ToUpper(strings.TrimSpace(c.Query("lifecycle_status")))),
	}

	items, err := s.tenantSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) GetTenant(c *gin.Context) {
	resp, err := s.tenantSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) UpdateTenant(c *gin.Context) {
	var req tenantdomain.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) SuspendTenant(c *gin.Context) {
	resp, err := s.tenantSvc.Suspend(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ReactivateTenant(c *gin.Context) {
	resp, err := s.tenantSvc.Reactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ArchiveTenant(c *gin.Context) {
	resp, err := s.tenantSvc.Archive(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type setBillingStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetTenantBillingStatus(c *gin.Context) {
	var req setBillingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.SetBillingStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type extendTrialRequest struct {
	Until time.Time `json:"until"`
}

func (s *Server) ExtendTenantTrial(c *gin.Context) {
	var req extendTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.ExtendTrial(c.Request.Context(), c.Param("id"), req.Until)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type assignPlanRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) AssignTenantPlan(c *gin.Context) {
	var req assignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tenantSvc.AssignPlan(c.Request.Context(), c.Param("id"), req.PlanID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// hierarchyRow is one display row of the flattened admin list, annotated
// with the billing state the client would otherwise compute.
type hierarchyRow struct {
	Kind               string     `json:"kind"`
	Depth              int        `json:"depth"`
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Type               string     `json:"type,omitempty"`
	ParentTenantID     *string    `json:"parent_tenant_id,omitempty"`
	BillingStatus      string     `json:"billing_status"`
	Inherited          bool       `json:"inherited"`
	InheritedFrom      *string    `json:"inherited_from,omitempty"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"`
	TrialDaysRemaining *int       `json:"trial_days_remaining,omitempty"`
	PlanLabel          string     `json:"plan_label"`
}

// TenantsList returns the full tenant and association snapshot together with
// the flattened, depth-annotated hierarchy the admin list renders.
func (s *Server) TenantsList(c *gin.Context) {
	ctx := c.Request.Context()

	tenants, err := s.tenantSvc.List(ctx, tenantdomain.ListFilter{})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	associations, err := s.associationSvc.List(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	records := make([]hierarchy.TenantRecord, 0, len(tenants))
	for _, t := range tenants {
		records = append(records, t.HierarchyRecord())
	}
	assocRecords := make([]hierarchy.AssociationRecord, 0, len(associations))
	for _, a := range associations {
		assocRecords = append(assocRecords, a.HierarchyRecord())
	}

	rows, report := hierarchy.Build(records, assocRecords)
	s.reportHierarchyAnomalies(c, report)

	statuses := hierarchy.ResolveAll(rows, hierarchy.TenantsByID(records))

	plans, err := s.planSvc.List(ctx, true)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	plansByID := planRefsByID(plans)

	now := time.Now().UTC()
	out := make([]hierarchyRow, 0, len(rows))
	for i, row := range rows {
		out = append(out, buildHierarchyRow(row, statuses[i], plansByID, now))
	}

	c.JSON(http.StatusOK, gin.H{
		"tenants":      tenants,
		"associations": associations,
		"rows":         out,
	})
}

func buildHierarchyRow(row hierarchy.Row, status hierarchy.EffectiveStatus, plansByID map[snowflake.ID]hierarchy.SubscriptionPlanRef, now time.Time) hierarchyRow {
	item := hierarchyRow{
		Kind:          string(row.Kind),
		Depth:         row.Depth,
		ID:            row.ID().String(),
		BillingStatus: string(status.Status),
		Inherited:     status.Inherited,
		TrialEndsAt:   status.TrialEndsAt,
		PlanLabel:     hierarchy.PlanLabel(row, plansByID),
	}
	if row.Kind == hierarchy.RowTenant {
		item.Name = row.Tenant.Name
		item.Type = string(row.Tenant.Type)
	} else {
		item.Name = row.Association.Name
	}
	if row.ParentTenantID != nil {
		parent := row.ParentTenantID.String()
		item.ParentTenantID = &parent
	}
	if status.InheritedFrom != nil {
		from := status.InheritedFrom.String()
		item.InheritedFrom = &from
	}
	if status.Status == hierarchy.BillingStatusTrial {
		item.TrialDaysRemaining = hierarchy.TrialDaysRemaining(status.TrialEndsAt, now)
	}
	return item
}

func planRefsByID(plans []plandomain.Plan) map[snowflake.ID]hierarchy.SubscriptionPlanRef {
	refs := make(map[snowflake.ID]hierarchy.SubscriptionPlanRef, len(plans))
	for _, plan := range plans {
		refs[plan.ID] = hierarchy.SubscriptionPlanRef{ID: plan.ID, Name: plan.Name}
	}
	return refs
}

// reportHierarchyAnomalies surfaces flattening degradations without failing
// the request.
func (s *Server) reportHierarchyAnomalies(c *gin.Context, report hierarchy.Report) {
	if !report.Degraded() {
		return
	}

	ctx := c.Request.Context()
	s.log.Warn("hierarchy snapshot degraded",
		zap.Int("omitted_associations", report.OmittedAssociations),
		zap.Int("unknown_type_tenants", report.UnknownTypeTenants),
		zap.Int("dual_parent_tenants", report.DualParentTenants),
	)
	if s.obsMetrics == nil {
		return
	}
	if report.OmittedAssociations > 0 {
		s.obsMetrics.RecordHierarchyAnomaly(ctx, "omitted_association", report.OmittedAssociations)
	}
	if report.UnknownTypeTenants > 0 {
		s.obsMetrics.RecordHierarchyAnomaly(ctx, "unknown_tenant_type", report.UnknownTypeTenants)
	}
	if report.DualParentTenants > 0 {
		s.obsMetrics.RecordHierarchyAnomaly(ctx, "dual_parent", report.DualParentTenants)
	}
}
