// Package hierarchy flattens tenant and association snapshots into the
// ordered row list rendered by the superadmin client list, and resolves the
// billing state a child entity inherits from its parent.
//
// Both entry points are pure: no I/O, no retained state, inputs are never
// mutated, and repeated calls over equal snapshots yield identical output.
package hierarchy

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// TenantType classifies top-level billable organizations.
type TenantType string

const (
	TenantTypeEpci        TenantType = "EPCI"
	TenantTypeMairie      TenantType = "MAIRIE"
	TenantTypeAssociation TenantType = "ASSOCIATION"
)

// BillingStatus is the billing lifecycle of a tenant.
type BillingStatus string

const (
	BillingStatusTrial     BillingStatus = "TRIAL"
	BillingStatusActive    BillingStatus = "ACTIVE"
	BillingStatusSuspended BillingStatus = "SUSPENDED"
	BillingStatusCancelled BillingStatus = "CANCELLED"
)

// LifecycleStatus is the operational lifecycle of a tenant.
type LifecycleStatus string

const (
	LifecycleStatusActive    LifecycleStatus = "ACTIVE"
	LifecycleStatusSuspended LifecycleStatus = "SUSPENDED"
	LifecycleStatusArchived  LifecycleStatus = "ARCHIVED"
)

// TenantRecord is the read-only tenant snapshot consumed by the builder.
//
// ParentEpciID and ParentTenantID both exist on the wire; well-formed records
// set at most one. parentRef collapses them into a single relation and Build
// counts records where both are set so callers can log the anomaly.
type TenantRecord struct {
	ID                 snowflake.ID
	Name               string
	Slug               string
	Type               TenantType
	ParentEpciID       *snowflake.ID
	ParentTenantID     *snowflake.ID
	BillingStatus      BillingStatus
	LifecycleStatus    LifecycleStatus
	TrialEndsAt        *time.Time
	IsFree             bool
	SubscriptionPlan   string
	SubscriptionPlanID *snowflake.ID
	ContactEmail       string
	ContactName        string
	CreatedAt          time.Time
}

// AssociationRecord is the read-only association snapshot consumed by the
// builder. Associations are always owned by exactly one tenant.
type AssociationRecord struct {
	ID           snowflake.ID
	TenantID     snowflake.ID
	Name         string
	Slug         string
	ContactEmail string
	IsActive     bool
	CreatedAt    time.Time
}

// RowKind discriminates the two row sources.
type RowKind string

const (
	RowTenant      RowKind = "tenant"
	RowAssociation RowKind = "association"
)

// Row is one display row of the flattened hierarchy. Exactly one of Tenant
// and Association is non-nil, matching Kind.
type Row struct {
	Kind        RowKind
	Depth       int
	Tenant      *TenantRecord
	Association *AssociationRecord

	// ParentTenantID is the immediate parent used by the status resolver:
	// the owning tenant for association rows, the resolved parent for child
	// tenant rows, nil for roots.
	ParentTenantID *snowflake.ID
}

// ID returns the source record id regardless of kind.
func (r Row) ID() snowflake.ID {
	if r.Kind == RowAssociation {
		return r.Association.ID
	}
	return r.Tenant.ID
}

// Report counts the degradations applied while flattening. None of them is
// an error: snapshots may be fetched mid-write and the admin list must keep
// rendering.
type Report struct {
	// OmittedAssociations counts associations whose owning tenant was not
	// present in the snapshot; they are dropped from the output.
	OmittedAssociations int
	// UnknownTypeTenants counts tenants skipped for an unrecognized type.
	UnknownTypeTenants int
	// DualParentTenants counts tenants carrying both parent fields; the
	// EPCI link wins, pending product clarification.
	DualParentTenants int
}

// Degraded reports whether any anomaly was observed.
func (r Report) Degraded() bool {
	return r.OmittedAssociations > 0 || r.UnknownTypeTenants > 0 || r.DualParentTenants > 0
}

type parentKind int

const (
	parentNone parentKind = iota
	parentEpci
	parentTenant
)

type parentRef struct {
	kind parentKind
	id   snowflake.ID
}

func parentRefOf(t *TenantRecord) parentRef {
	switch {
	case t.ParentEpciID != nil:
		return parentRef{kind: parentEpci, id: *t.ParentEpciID}
	case t.ParentTenantID != nil:
		return parentRef{kind: parentTenant, id: *t.ParentTenantID}
	default:
		return parentRef{}
	}
}

// Build flattens the snapshot into display rows using a pre-order traversal
// with the fixed root priority EPCI, then mairie, then association-type
// tenant. Input order is preserved inside each group.
//
// Dangling parent references degrade to root placement; associations owned
// by an absent tenant are omitted; tenants with an unknown type are skipped.
// All three cases are tallied in the returned Report.
func Build(tenants []TenantRecord, associations []AssociationRecord) ([]Row, Report) {
	var report Report

	byID := make(map[snowflake.ID]*TenantRecord, len(tenants))
	for i := range tenants {
		byID[tenants[i].ID] = &tenants[i]
	}

	for i := range tenants {
		if tenants[i].ParentEpciID != nil && tenants[i].ParentTenantID != nil {
			report.DualParentTenants++
		}
	}

	// epciOf resolves the EPCI a mairie hangs under, or nil when the mairie
	// is a root (no parent, or the referenced tenant is absent or not an
	// EPCI in this snapshot).
	epciOf := func(t *TenantRecord) *TenantRecord {
		ref := parentRefOf(t)
		if ref.kind == parentNone {
			return nil
		}
		parent, ok := byID[ref.id]
		if !ok || parent.Type != TenantTypeEpci {
			return nil
		}
		return parent
	}

	rows := make([]Row, 0, len(tenants)+len(associations))
	appended := 0

	appendAssociations := func(tenantID snowflake.ID, depth int) {
		for i := range associations {
			if associations[i].TenantID != tenantID {
				continue
			}
			assoc := associations[i]
			owner := tenantID
			rows = append(rows, Row{
				Kind:           RowAssociation,
				Depth:          depth,
				Association:    &assoc,
				ParentTenantID: &owner,
			})
			appended++
		}
	}

	appendTenant := func(t TenantRecord, depth int, parentID *snowflake.ID) {
		record := t
		rows = append(rows, Row{
			Kind:           RowTenant,
			Depth:          depth,
			Tenant:         &record,
			ParentTenantID: parentID,
		})
	}

	appendChildMairies := func(epciID snowflake.ID, depth int) {
		for i := range tenants {
			t := tenants[i]
			if t.Type != TenantTypeMairie {
				continue
			}
			parent := epciOf(&t)
			if parent == nil || parent.ID != epciID {
				continue
			}
			owner := epciID
			appendTenant(t, depth, &owner)
			appendAssociations(t.ID, depth+1)
		}
	}

	// Root EPCIs and their subtrees.
	for i := range tenants {
		t := tenants[i]
		if t.Type != TenantTypeEpci {
			continue
		}
		appendTenant(t, 0, nil)
		appendChildMairies(t.ID, 1)
		appendAssociations(t.ID, 1)
	}

	// Root mairies and their associations.
	for i := range tenants {
		t := tenants[i]
		if t.Type != TenantTypeMairie || epciOf(&t) != nil {
			continue
		}
		appendTenant(t, 0, nil)
		appendAssociations(t.ID, 1)
	}

	// Association-type tenants are leaves at the root level.
	for i := range tenants {
		t := tenants[i]
		switch t.Type {
		case TenantTypeEpci, TenantTypeMairie:
		case TenantTypeAssociation:
			appendTenant(t, 0, nil)
		default:
			report.UnknownTypeTenants++
		}
	}

	report.OmittedAssociations = len(associations) - appended

	return rows, report
}

// TenantsByID indexes a tenant snapshot for the resolver stage.
func TenantsByID(tenants []TenantRecord) map[snowflake.ID]TenantRecord {
	byID := make(map[snowflake.ID]TenantRecord, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
	}
	return byID
}
