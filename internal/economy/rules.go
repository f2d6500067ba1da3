package economy

import "time"

// Game balance constants. Rates and costs are pugbucks unless noted.
const (
	StartingBalance = 50.0
	LandCost        = 50.0

	// Income contributed by one plot, per second.
	LandPPS = 0.0000000011

	BoostMultiplier    = 20.0
	BoostDuration      = 10 * time.Minute
	RangeBoostDuration = 5 * time.Minute

	BaseRangeMeters = 400.0
	RangeMultiplier = 1.67

	// One ad reward of each kind per window.
	AdCooldown = 23 * time.Hour

	// Pugbucks per pug coin.
	ExchangeRate = 150.0

	RedeemMin = 1.0
	RedeemMax = 3.0

	// Upper bound on plots per bulk claim request.
	MaxBulkPlots = 64
)

// BoostActive reports whether a boost expiring at end is live at now.
func BoostActive(end *time.Time, now time.Time) bool {
	return end != nil && now.Before(*end)
}

// ClaimRangeMeters returns the claim radius for a user whose range boost
// expires at end.
func ClaimRangeMeters(end *time.Time, now time.Time) float64 {
	if BoostActive(end, now) {
		return BaseRangeMeters * RangeMultiplier
	}
	return BaseRangeMeters
}

// CooldownOver reports whether an ad reward gated by watermark last may be
// granted again at now. A nil watermark means the reward was never claimed.
func CooldownOver(last *time.Time, now time.Time) bool {
	return last == nil || !now.Before(last.Add(AdCooldown))
}
