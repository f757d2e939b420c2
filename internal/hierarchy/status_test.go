package hierarchy

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolve_MairieInheritsFromEpci validates one-level inheritance for a
// child tenant row.
func TestResolve_MairieInheritsFromEpci(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	trialEnd := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci, BillingStatus: BillingStatusTrial, TrialEndsAt: &trialEnd},
		{ID: node.Generate(), Type: TenantTypeMairie, ParentEpciID: idPtr(epciID), BillingStatus: BillingStatusActive},
	}

	rows, _ := Build(tenants, nil)
	byID := TenantsByID(tenants)

	eff := Resolve(rows[1], byID)
	assert.True(t, eff.Inherited)
	assert.Equal(t, BillingStatusTrial, eff.Status)
	require.NotNil(t, eff.TrialEndsAt)
	assert.Equal(t, trialEnd, *eff.TrialEndsAt)
	require.NotNil(t, eff.InheritedFrom)
	assert.Equal(t, epciID, *eff.InheritedFrom)
}

// TestResolve_RootKeepsOwnStatus validates that roots never inherit.
func TestResolve_RootKeepsOwnStatus(t *testing.T) {
	node := testNode(t)

	tenants := []TenantRecord{
		{ID: node.Generate(), Type: TenantTypeEpci, BillingStatus: BillingStatusSuspended},
	}
	rows, _ := Build(tenants, nil)

	eff := Resolve(rows[0], TenantsByID(tenants))
	assert.False(t, eff.Inherited)
	assert.Equal(t, BillingStatusSuspended, eff.Status)
	assert.Nil(t, eff.InheritedFrom)
}

// TestResolve_ParentWithoutStatusFallsBack validates that a parent with no
// billing status leaves the child on its own values.
func TestResolve_ParentWithoutStatusFallsBack(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci},
		{ID: node.Generate(), Type: TenantTypeMairie, ParentEpciID: idPtr(epciID), BillingStatus: BillingStatusActive},
	}
	rows, _ := Build(tenants, nil)

	eff := Resolve(rows[1], TenantsByID(tenants))
	assert.False(t, eff.Inherited)
	assert.Equal(t, BillingStatusActive, eff.Status)
}

// TestResolve_DanglingParentFallsBack validates a child whose parent is
// absent from the lookup keeps its own status.
func TestResolve_DanglingParentFallsBack(t *testing.T) {
	node := testNode(t)

	missing := node.Generate()
	tenants := []TenantRecord{
		{ID: node.Generate(), Type: TenantTypeMairie, ParentEpciID: idPtr(missing), BillingStatus: BillingStatusCancelled},
	}
	rows, _ := Build(tenants, nil)

	eff := Resolve(rows[0], TenantsByID(tenants))
	assert.False(t, eff.Inherited)
	assert.Equal(t, BillingStatusCancelled, eff.Status)
}

// TestResolve_AssociationInheritsFromOwner validates that association rows
// take the owning tenant's billing state.
func TestResolve_AssociationInheritsFromOwner(t *testing.T) {
	node := testNode(t)

	mairieID := node.Generate()
	tenants := []TenantRecord{
		{ID: mairieID, Type: TenantTypeMairie, BillingStatus: BillingStatusActive},
	}
	associations := []AssociationRecord{
		{ID: node.Generate(), TenantID: mairieID, Name: "Club"},
	}
	rows, _ := Build(tenants, associations)
	require.Len(t, rows, 2)

	eff := Resolve(rows[1], TenantsByID(tenants))
	assert.True(t, eff.Inherited)
	assert.Equal(t, BillingStatusActive, eff.Status)
	require.NotNil(t, eff.InheritedFrom)
	assert.Equal(t, mairieID, *eff.InheritedFrom)
}

// TestResolveAll_TransitiveCascade validates the full-list pass: a suspended
// EPCI shows through its mairies down to their associations, because each
// child reads its parent's already-resolved state.
func TestResolveAll_TransitiveCascade(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	mairieID := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci, BillingStatus: BillingStatusSuspended},
		{ID: mairieID, Type: TenantTypeMairie, ParentEpciID: idPtr(epciID), BillingStatus: BillingStatusActive},
	}
	associations := []AssociationRecord{
		{ID: node.Generate(), TenantID: mairieID, Name: "Club"},
	}

	rows, _ := Build(tenants, associations)
	require.Len(t, rows, 3)

	statuses := ResolveAll(rows, TenantsByID(tenants))
	require.Len(t, statuses, 3)

	assert.Equal(t, BillingStatusSuspended, statuses[0].Status)
	assert.False(t, statuses[0].Inherited)

	assert.Equal(t, BillingStatusSuspended, statuses[1].Status)
	assert.True(t, statuses[1].Inherited)

	// The association inherits the mairie's displayed, not stored, status.
	assert.Equal(t, BillingStatusSuspended, statuses[2].Status)
	assert.True(t, statuses[2].Inherited)
	require.NotNil(t, statuses[2].InheritedFrom)
	assert.Equal(t, mairieID, *statuses[2].InheritedFrom)
}

// TestResolveAll_SingleLookupStaysOneLevel validates that Resolve alone does
// NOT cascade: an association under a mairie under a suspended EPCI shows
// the mairie's own status when resolved in isolation.
func TestResolveAll_SingleLookupStaysOneLevel(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	mairieID := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci, BillingStatus: BillingStatusSuspended},
		{ID: mairieID, Type: TenantTypeMairie, ParentEpciID: idPtr(epciID), BillingStatus: BillingStatusActive},
	}
	associations := []AssociationRecord{
		{ID: node.Generate(), TenantID: mairieID},
	}
	rows, _ := Build(tenants, associations)
	byID := TenantsByID(tenants)

	eff := Resolve(rows[2], byID)
	assert.Equal(t, BillingStatusActive, eff.Status)
}

// TestResolveAll_RootSiblingsIsolated validates that one root's status never
// leaks to another root's subtree.
func TestResolveAll_RootSiblingsIsolated(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	rootMairie := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci, BillingStatus: BillingStatusCancelled},
		{ID: rootMairie, Type: TenantTypeMairie, BillingStatus: BillingStatusActive},
	}
	rows, _ := Build(tenants, nil)
	statuses := ResolveAll(rows, TenantsByID(tenants))

	require.Len(t, statuses, 2)
	assert.Equal(t, BillingStatusCancelled, statuses[0].Status)
	assert.Equal(t, BillingStatusActive, statuses[1].Status)
	assert.False(t, statuses[1].Inherited)
}

func TestTrialDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no trial end", func(t *testing.T) {
		assert.Nil(t, TrialDaysRemaining(nil, now))
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		end := now.Add(36 * time.Hour)
		days := TrialDaysRemaining(&end, now)
		require.NotNil(t, days)
		assert.Equal(t, 2, *days)
	})

	t.Run("exact day boundary", func(t *testing.T) {
		end := now.Add(24 * time.Hour)
		days := TrialDaysRemaining(&end, now)
		require.NotNil(t, days)
		assert.Equal(t, 1, *days)
	})

	t.Run("expired clamps to zero", func(t *testing.T) {
		end := now.Add(-72 * time.Hour)
		days := TrialDaysRemaining(&end, now)
		require.NotNil(t, days)
		assert.Equal(t, 0, *days)
	})
}

func TestPlanLabel(t *testing.T) {
	node := testNode(t)

	planID := node.Generate()
	plans := map[snowflake.ID]SubscriptionPlanRef{
		planID: {ID: planID, Name: "Standard"},
	}

	rootRow := func(t TenantRecord) Row {
		return Row{Kind: RowTenant, Depth: 0, Tenant: &t}
	}

	t.Run("child tenant shows via parent", func(t *testing.T) {
		parent := node.Generate()
		row := Row{Kind: RowTenant, Depth: 1, Tenant: &TenantRecord{SubscriptionPlanID: &planID}, ParentTenantID: &parent}
		assert.Equal(t, PlanLabelViaParent, PlanLabel(row, plans))
	})

	t.Run("association shows via parent", func(t *testing.T) {
		owner := node.Generate()
		row := Row{Kind: RowAssociation, Depth: 1, Association: &AssociationRecord{}, ParentTenantID: &owner}
		assert.Equal(t, PlanLabelViaParent, PlanLabel(row, plans))
	})

	t.Run("plan reference wins", func(t *testing.T) {
		row := rootRow(TenantRecord{SubscriptionPlanID: &planID, SubscriptionPlan: "FREE_TRIAL"})
		assert.Equal(t, "Standard", PlanLabel(row, plans))
	})

	t.Run("unknown plan id falls back to legacy code", func(t *testing.T) {
		ghost := node.Generate()
		row := rootRow(TenantRecord{SubscriptionPlanID: &ghost, SubscriptionPlan: "FREE_TRIAL"})
		assert.Equal(t, "Essai gratuit", PlanLabel(row, plans))
	})

	t.Run("raw legacy string passes through", func(t *testing.T) {
		row := rootRow(TenantRecord{SubscriptionPlan: "Offre historique"})
		assert.Equal(t, "Offre historique", PlanLabel(row, plans))
	})

	t.Run("nothing resolves", func(t *testing.T) {
		row := rootRow(TenantRecord{})
		assert.Equal(t, "Non defini", PlanLabel(row, plans))
	})
}
