package hierarchy

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

func idPtr(id snowflake.ID) *snowflake.ID { return &id }

// TestBuild_ThreeTierOrdering validates the canonical shape: an EPCI, its
// mairies with their associations, then the EPCI's direct associations, with
// depths annotated per tier.
func TestBuild_ThreeTierOrdering(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	mairieAID := node.Generate()
	mairieBID := node.Generate()
	assocA1ID := node.Generate()
	assocB1ID := node.Generate()
	assocEpciID := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Name: "CC du Val", Type: TenantTypeEpci},
		{ID: mairieAID, Name: "Mairie A", Type: TenantTypeMairie, ParentEpciID: idPtr(epciID)},
		{ID: mairieBID, Name: "Mairie B", Type: TenantTypeMairie, ParentEpciID: idPtr(epciID)},
	}
	associations := []AssociationRecord{
		{ID: assocA1ID, TenantID: mairieAID, Name: "Club A1"},
		{ID: assocB1ID, TenantID: mairieBID, Name: "Club B1"},
		{ID: assocEpciID, TenantID: epciID, Name: "Club EPCI"},
	}

	rows, report := Build(tenants, associations)

	require.Len(t, rows, 6)
	assert.False(t, report.Degraded())

	assert.Equal(t, epciID, rows[0].ID())
	assert.Equal(t, 0, rows[0].Depth)

	assert.Equal(t, mairieAID, rows[1].ID())
	assert.Equal(t, 1, rows[1].Depth)
	assert.Equal(t, assocA1ID, rows[2].ID())
	assert.Equal(t, 2, rows[2].Depth)

	assert.Equal(t, mairieBID, rows[3].ID())
	assert.Equal(t, 1, rows[3].Depth)
	assert.Equal(t, assocB1ID, rows[4].ID())
	assert.Equal(t, 2, rows[4].Depth)

	// EPCI's own associations come after its child mairies.
	assert.Equal(t, assocEpciID, rows[5].ID())
	assert.Equal(t, 1, rows[5].Depth)
	assert.Equal(t, RowAssociation, rows[5].Kind)
}

// TestBuild_RootGroupPriority validates that root rows are grouped EPCI
// first, then mairie, then association-type tenants, regardless of input
// interleaving.
func TestBuild_RootGroupPriority(t *testing.T) {
	node := testNode(t)

	assocTenantID := node.Generate()
	mairieID := node.Generate()
	epciID := node.Generate()

	tenants := []TenantRecord{
		{ID: assocTenantID, Name: "Asso directe", Type: TenantTypeAssociation},
		{ID: mairieID, Name: "Mairie seule", Type: TenantTypeMairie},
		{ID: epciID, Name: "CC", Type: TenantTypeEpci},
	}

	rows, report := Build(tenants, nil)

	require.Len(t, rows, 3)
	assert.False(t, report.Degraded())
	assert.Equal(t, epciID, rows[0].ID())
	assert.Equal(t, mairieID, rows[1].ID())
	assert.Equal(t, assocTenantID, rows[2].ID())
	for _, row := range rows {
		assert.Equal(t, 0, row.Depth)
		assert.Nil(t, row.ParentTenantID)
	}
}

// TestBuild_InputOrderPreservedWithinGroups validates determinism: siblings
// keep the order they arrived in, so two calls over the same snapshot yield
// identical output.
func TestBuild_InputOrderPreservedWithinGroups(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	m1 := node.Generate()
	m2 := node.Generate()
	m3 := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci},
		{ID: m2, Name: "Zebre", Type: TenantTypeMairie, ParentEpciID: idPtr(epciID)},
		{ID: m1, Name: "Aigle", Type: TenantTypeMairie, ParentEpciID: idPtr(epciID)},
		{ID: m3, Name: "Muscade", Type: TenantTypeMairie, ParentEpciID: idPtr(epciID)},
	}

	first, _ := Build(tenants, nil)
	second, _ := Build(tenants, nil)

	require.Len(t, first, 4)
	assert.Equal(t, m2, first[1].ID())
	assert.Equal(t, m1, first[2].ID())
	assert.Equal(t, m3, first[3].ID())
	assert.Equal(t, first, second)
}

// TestBuild_DanglingParentBecomesRoot validates graceful degradation: a
// mairie pointing at an EPCI absent from the snapshot renders as a root
// instead of disappearing.
func TestBuild_DanglingParentBecomesRoot(t *testing.T) {
	node := testNode(t)

	missingEpci := node.Generate()
	mairieID := node.Generate()
	assocID := node.Generate()

	tenants := []TenantRecord{
		{ID: mairieID, Name: "Mairie orpheline", Type: TenantTypeMairie, ParentEpciID: idPtr(missingEpci)},
	}
	associations := []AssociationRecord{
		{ID: assocID, TenantID: mairieID, Name: "Club"},
	}

	rows, report := Build(tenants, associations)

	require.Len(t, rows, 2)
	assert.Equal(t, mairieID, rows[0].ID())
	assert.Equal(t, 0, rows[0].Depth)
	assert.Nil(t, rows[0].ParentTenantID)
	assert.Equal(t, assocID, rows[1].ID())
	assert.Equal(t, 1, rows[1].Depth)
	assert.False(t, report.Degraded())
}

// TestBuild_ParentMustBeEpci validates that a parent reference to a
// non-EPCI tenant is treated like a dangling one.
func TestBuild_ParentMustBeEpci(t *testing.T) {
	node := testNode(t)

	mairieParentID := node.Generate()
	mairieID := node.Generate()

	tenants := []TenantRecord{
		{ID: mairieParentID, Type: TenantTypeMairie},
		{ID: mairieID, Type: TenantTypeMairie, ParentEpciID: idPtr(mairieParentID)},
	}

	rows, _ := Build(tenants, nil)

	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, 0, row.Depth)
	}
}

// TestBuild_ParentTenantIDFallback validates that the legacy parent field
// attaches a mairie when the EPCI field is unset.
func TestBuild_ParentTenantIDFallback(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	mairieID := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci},
		{ID: mairieID, Type: TenantTypeMairie, ParentTenantID: idPtr(epciID)},
	}

	rows, report := Build(tenants, nil)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[1].Depth)
	require.NotNil(t, rows[1].ParentTenantID)
	assert.Equal(t, epciID, *rows[1].ParentTenantID)
	assert.Zero(t, report.DualParentTenants)
}

// TestBuild_DualParentEpciWins validates the tie-break when both parent
// fields are set: the EPCI link is used and the anomaly is counted.
func TestBuild_DualParentEpciWins(t *testing.T) {
	node := testNode(t)

	epciA := node.Generate()
	epciB := node.Generate()
	mairieID := node.Generate()

	tenants := []TenantRecord{
		{ID: epciA, Name: "CC A", Type: TenantTypeEpci},
		{ID: epciB, Name: "CC B", Type: TenantTypeEpci},
		{ID: mairieID, Type: TenantTypeMairie, ParentEpciID: idPtr(epciA), ParentTenantID: idPtr(epciB)},
	}

	rows, report := Build(tenants, nil)

	require.Len(t, rows, 3)
	assert.Equal(t, epciA, rows[0].ID())
	assert.Equal(t, mairieID, rows[1].ID())
	require.NotNil(t, rows[1].ParentTenantID)
	assert.Equal(t, epciA, *rows[1].ParentTenantID)
	assert.Equal(t, epciB, rows[2].ID())
	assert.Equal(t, 1, report.DualParentTenants)
	assert.True(t, report.Degraded())
}

// TestBuild_OrphanAssociationOmitted validates that an association owned by
// a tenant outside the snapshot is dropped and counted.
func TestBuild_OrphanAssociationOmitted(t *testing.T) {
	node := testNode(t)

	mairieID := node.Generate()
	ghostTenant := node.Generate()

	tenants := []TenantRecord{
		{ID: mairieID, Type: TenantTypeMairie},
	}
	associations := []AssociationRecord{
		{ID: node.Generate(), TenantID: mairieID, Name: "Rattachee"},
		{ID: node.Generate(), TenantID: ghostTenant, Name: "Orpheline"},
	}

	rows, report := Build(tenants, associations)

	require.Len(t, rows, 2)
	assert.Equal(t, 1, report.OmittedAssociations)
	assert.True(t, report.Degraded())
}

// TestBuild_UnknownTenantTypeSkipped validates that a tenant with an
// unrecognized type is excluded without disturbing the rest.
func TestBuild_UnknownTenantTypeSkipped(t *testing.T) {
	node := testNode(t)

	tenants := []TenantRecord{
		{ID: node.Generate(), Type: TenantType("SYNDICAT")},
		{ID: node.Generate(), Type: TenantTypeMairie},
	}

	rows, report := Build(tenants, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, TenantTypeMairie, rows[0].Tenant.Type)
	assert.Equal(t, 1, report.UnknownTypeTenants)
}

// TestBuild_EmptyInputs validates the degenerate snapshots.
func TestBuild_EmptyInputs(t *testing.T) {
	rows, report := Build(nil, nil)
	assert.Empty(t, rows)
	assert.False(t, report.Degraded())

	node := testNode(t)
	rows, report = Build(nil, []AssociationRecord{{ID: node.Generate(), TenantID: node.Generate()}})
	assert.Empty(t, rows)
	assert.Equal(t, 1, report.OmittedAssociations)
}

// TestBuild_CompletenessNoDuplicates validates that every resolvable record
// appears exactly once across a mixed snapshot.
func TestBuild_CompletenessNoDuplicates(t *testing.T) {
	node := testNode(t)

	epciID := node.Generate()
	childMairie := node.Generate()
	rootMairie := node.Generate()
	assocTenant := node.Generate()

	tenants := []TenantRecord{
		{ID: epciID, Type: TenantTypeEpci},
		{ID: childMairie, Type: TenantTypeMairie, ParentEpciID: idPtr(epciID)},
		{ID: rootMairie, Type: TenantTypeMairie},
		{ID: assocTenant, Type: TenantTypeAssociation},
	}
	associations := []AssociationRecord{
		{ID: node.Generate(), TenantID: childMairie},
		{ID: node.Generate(), TenantID: rootMairie},
		{ID: node.Generate(), TenantID: epciID},
	}

	rows, report := Build(tenants, associations)

	require.Len(t, rows, len(tenants)+len(associations))
	assert.False(t, report.Degraded())

	seen := make(map[snowflake.ID]int)
	for _, row := range rows {
		seen[row.ID()]++
	}
	for id, count := range seen {
		assert.Equalf(t, 1, count, "record %s appears %d times", id, count)
	}
}

// TestBuild_DoesNotMutateInputs validates purity: row records are copies.
func TestBuild_DoesNotMutateInputs(t *testing.T) {
	node := testNode(t)

	mairieID := node.Generate()
	tenants := []TenantRecord{{ID: mairieID, Name: "Avant", Type: TenantTypeMairie, CreatedAt: time.Now()}}

	rows, _ := Build(tenants, nil)
	require.Len(t, rows, 1)

	rows[0].Tenant.Name = "Apres"
	assert.Equal(t, "Avant", tenants[0].Name)
}
