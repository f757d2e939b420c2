package hierarchy

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

// EffectiveStatus is the billing state actually displayed for a row after
// applying parent inheritance.
type EffectiveStatus struct {
	Status      BillingStatus
	TrialEndsAt *time.Time

	// Inherited is true when the status was taken from the parent rather
	// than the row's own record.
	Inherited bool
	// InheritedFrom is the tenant the status was inherited from, nil when
	// Inherited is false.
	InheritedFrom *snowflake.ID
}

// Resolve computes the displayed billing state for a single row using one
// level of inheritance: a mairie under an EPCI inherits from the EPCI, an
// association inherits from its owning tenant. Roots, and children whose
// parent cannot be resolved or has no billing status, keep their own values.
//
// Inheritance never chases the chain further up; transitive cascade across a
// three-tier hierarchy comes from ResolveAll, which feeds each parent's
// already-resolved state to its children.
func Resolve(row Row, tenantsByID map[snowflake.ID]TenantRecord) EffectiveStatus {
	own := ownStatus(row)

	parentID, ok := inheritableParent(row)
	if !ok {
		return own
	}

	parent, found := tenantsByID[parentID]
	if !found || parent.BillingStatus == "" {
		return own
	}

	id := parentID
	return EffectiveStatus{
		Status:        parent.BillingStatus,
		TrialEndsAt:   parent.TrialEndsAt,
		Inherited:     true,
		InheritedFrom: &id,
	}
}

// ResolveAll resolves every row of a flattened hierarchy top-down. Because
// Build emits parents before their children, each child sees its immediate
// parent's displayed state, so a suspended EPCI cascades through a mairie to
// the mairie's associations even though each single lookup is one level.
func ResolveAll(rows []Row, tenantsByID map[snowflake.ID]TenantRecord) []EffectiveStatus {
	resolved := make(map[snowflake.ID]EffectiveStatus, len(rows))
	out := make([]EffectiveStatus, len(rows))

	for i, row := range rows {
		status := ownStatus(row)

		if parentID, ok := inheritableParent(row); ok {
			if parentEff, seen := resolved[parentID]; seen && parentEff.Status != "" {
				id := parentID
				status = EffectiveStatus{
					Status:        parentEff.Status,
					TrialEndsAt:   parentEff.TrialEndsAt,
					Inherited:     true,
					InheritedFrom: &id,
				}
			} else if parent, found := tenantsByID[parentID]; found && parent.BillingStatus != "" {
				id := parentID
				status = EffectiveStatus{
					Status:        parent.BillingStatus,
					TrialEndsAt:   parent.TrialEndsAt,
					Inherited:     true,
					InheritedFrom: &id,
				}
			}
		}

		if row.Kind == RowTenant {
			resolved[row.Tenant.ID] = status
		}
		out[i] = status
	}

	return out
}

// inheritableParent returns the tenant a row may inherit billing state from:
// the owning tenant for association rows, the parent for mairie rows that
// carry one. Root tenants of any type never inherit.
func inheritableParent(row Row) (snowflake.ID, bool) {
	switch row.Kind {
	case RowAssociation:
		return row.Association.TenantID, true
	case RowTenant:
		if row.Tenant.Type != TenantTypeMairie {
			return 0, false
		}
		ref := parentRefOf(row.Tenant)
		if ref.kind == parentNone {
			return 0, false
		}
		return ref.id, true
	}
	return 0, false
}

func ownStatus(row Row) EffectiveStatus {
	if row.Kind == RowAssociation {
		// Associations have no billing state of their own; without a
		// resolvable owner nothing is displayed.
		return EffectiveStatus{}
	}
	return EffectiveStatus{
		Status:      row.Tenant.BillingStatus,
		TrialEndsAt: row.Tenant.TrialEndsAt,
	}
}

// TrialDaysRemaining returns the whole days left before the trial ends,
// never negative, or nil when no trial end is set. now is injected so the
// computation stays deterministic under test.
func TrialDaysRemaining(trialEndsAt *time.Time, now time.Time) *int {
	if trialEndsAt == nil {
		return nil
	}
	days := int(math.Ceil(trialEndsAt.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return &days
}

// SubscriptionPlanRef is the minimal plan projection used for labels.
type SubscriptionPlanRef struct {
	ID   snowflake.ID
	Name string
}

// PlanLabelViaParent is displayed for rows that bill through their parent.
const PlanLabelViaParent = "Via parent"

// PlanLabelUndefined is displayed when no plan information resolves.
const PlanLabelUndefined = "Non defini"

var legacyPlanLabels = map[string]string{
	"FREE_TRIAL": "Essai gratuit",
	"STANDARD":   "Standard",
	"PREMIUM":    "Premium",
}

// PlanLabel resolves the plan name displayed for a row. Child tenant rows
// and association rows bill through their parent and always show the
// "Via parent" placeholder. Root tenant rows resolve the plan reference,
// then the legacy plan code mapping, then the raw legacy string.
func PlanLabel(row Row, plansByID map[snowflake.ID]SubscriptionPlanRef) string {
	if row.Kind == RowAssociation || row.Depth > 0 {
		return PlanLabelViaParent
	}

	t := row.Tenant
	if t.SubscriptionPlanID != nil {
		if plan, ok := plansByID[*t.SubscriptionPlanID]; ok && plan.Name != "" {
			return plan.Name
		}
	}
	if label, ok := legacyPlanLabels[t.SubscriptionPlan]; ok {
		return label
	}
	if t.SubscriptionPlan != "" {
		return t.SubscriptionPlan
	}
	return PlanLabelUndefined
}
