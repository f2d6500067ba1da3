package economy

import "time"

// Accrue computes passive income earned between from and to at ratePerSecond,
// honoring an optional income boost that expires at boostEnd. The boosted
// sub-interval earns at BoostMultiplier times the base rate; any remainder
// past boostEnd earns at the base rate.
//
// Accrue is pure. Callers fold the result into the balance and advance the
// accrual watermark to `to` in the same transaction, which makes re-evaluation
// with from == watermark a no-op.
func Accrue(ratePerSecond float64, from, to time.Time, boostEnd *time.Time) float64 {
	if !to.After(from) {
		return 0
	}

	var earned float64
	if boostEnd == nil || !boostEnd.After(from) {
		earned = ratePerSecond * to.Sub(from).Seconds()
	} else {
		split := *boostEnd
		if to.Before(split) {
			split = to
		}
		earned = ratePerSecond * BoostMultiplier * split.Sub(from).Seconds()
		if to.After(split) {
			earned += ratePerSecond * to.Sub(split).Seconds()
		}
	}

	if earned < 0 {
		return 0
	}
	return earned
}
