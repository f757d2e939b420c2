package service

import (
	"math"
	"time"

	"github.com/citadia/citadia/internal/addon/domain"
)

// computePreview prices a quantity move against graduated tiers. Increases
// take effect immediately and debit the monthly delta prorated over the
// days left in the calendar month; decreases are scheduled at period end
// with no immediate charge.
func computePreview(tiers []domain.AddonTier, oldQuantity, newQuantity int64, now time.Time) domain.QuantityChangePreview {
	periodStart, periodEnd := domain.BillingPeriod(now)
	periodDays := int(math.Round(periodEnd.Sub(periodStart).Hours() / 24))
	remainingDays := int(math.Ceil(periodEnd.Sub(now.UTC()).Hours() / 24))
	if remainingDays < 0 {
		remainingDays = 0
	}
	if remainingDays > periodDays {
		remainingDays = periodDays
	}

	oldAmount := domain.TieredAmountCents(tiers, oldQuantity)
	newAmount := domain.TieredAmountCents(tiers, newQuantity)
	delta := newAmount - oldAmount

	preview := domain.QuantityChangePreview{
		OldQuantity:       oldQuantity,
		NewQuantity:       newQuantity,
		OldAmountCents:    oldAmount,
		NewAmountCents:    newAmount,
		MonthlyDeltaCents: delta,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		RemainingDays:     remainingDays,
		PeriodDays:        periodDays,
	}

	switch {
	case newQuantity > oldQuantity:
		if delta > 0 {
			preview.ImmediateChargeCents = int64(math.Round(float64(delta) * float64(remainingDays) / float64(periodDays)))
		}
		preview.EffectiveAt = now.UTC()
	case newQuantity < oldQuantity:
		preview.Scheduled = true
		preview.EffectiveAt = periodEnd
	default:
		preview.EffectiveAt = now.UTC()
	}

	return preview
}
