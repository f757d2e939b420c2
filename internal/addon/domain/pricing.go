package domain

import "time"

// TieredAmountCents prices a quantity against graduated bands: each band
// charges its unit amount for the units falling inside it and its flat
// amount once any unit lands in it. Bands must be ordered by Position with
// the unbounded band last.
func TieredAmountCents(tiers []AddonTier, quantity int64) int64 {
	if quantity <= 0 {
		return 0
	}

	var total int64
	var lower int64
	for _, tier := range tiers {
		var bandUnits int64
		if tier.UpTo == nil {
			bandUnits = quantity - lower
		} else {
			if *tier.UpTo <= lower {
				continue
			}
			bandUnits = min64(quantity, *tier.UpTo) - lower
			lower = *tier.UpTo
		}
		if bandUnits <= 0 {
			break
		}
		total += bandUnits*tier.UnitAmountCents + tier.FlatAmountCents
		if tier.UpTo == nil {
			break
		}
	}
	return total
}

// BillingPeriod returns the calendar-month bounds enclosing now, in UTC.
func BillingPeriod(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
