package economy

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestAccrue_ZeroElapsed(t *testing.T) {
	now := time.Now()
	if got := Accrue(0.002, now, now, nil); got != 0 {
		t.Fatalf("expected 0 for zero elapsed, got %v", got)
	}
}

func TestAccrue_ToBeforeFrom(t *testing.T) {
	now := time.Now()
	if got := Accrue(0.002, now, now.Add(-time.Minute), nil); got != 0 {
		t.Fatalf("expected 0 for to before from, got %v", got)
	}
}

func TestAccrue_BaseRate(t *testing.T) {
	from := time.Now()
	to := from.Add(100 * time.Second)

	got := Accrue(0.002, from, to, nil)
	if !almostEqual(got, 0.2) {
		t.Fatalf("expected 0.2, got %v", got)
	}
}

func TestAccrue_ExpiredBoostIgnored(t *testing.T) {
	from := time.Now()
	to := from.Add(100 * time.Second)
	expired := from.Add(-time.Second)

	got := Accrue(0.002, from, to, &expired)
	if !almostEqual(got, 0.2) {
		t.Fatalf("expected 0.2 with expired boost, got %v", got)
	}
}

func TestAccrue_BoostSplit(t *testing.T) {
	// r=0.002/s, boost ends 30s in, window is 50s:
	// 30*r*20 boosted + 20*r base.
	r := 0.002
	from := time.Now()
	to := from.Add(50 * time.Second)
	boostEnd := from.Add(30 * time.Second)

	want := 30*r*20 + 20*r
	got := Accrue(r, from, to, &boostEnd)
	if !almostEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAccrue_BoostCoversWholeWindow(t *testing.T) {
	r := 0.002
	from := time.Now()
	to := from.Add(10 * time.Second)
	boostEnd := from.Add(time.Hour)

	want := 10 * r * BoostMultiplier
	got := Accrue(r, from, to, &boostEnd)
	if !almostEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAccrue_TinyRateDoesNotUnderflow(t *testing.T) {
	from := time.Now()
	to := from.Add(time.Second)

	got := Accrue(LandPPS, from, to, nil)
	if got <= 0 {
		t.Fatalf("expected positive accrual at LandPPS over 1s, got %v", got)
	}
}

func TestCooldownOver(t *testing.T) {
	now := time.Now()

	if !CooldownOver(nil, now) {
		t.Fatal("nil watermark should allow the grant")
	}

	recent := now.Add(-time.Hour)
	if CooldownOver(&recent, now) {
		t.Fatal("1h-old watermark should still be cooling down")
	}

	old := now.Add(-AdCooldown)
	if !CooldownOver(&old, now) {
		t.Fatal("watermark exactly one cooldown ago should allow the grant")
	}
}

func TestClaimRangeMeters(t *testing.T) {
	now := time.Now()

	if got := ClaimRangeMeters(nil, now); got != BaseRangeMeters {
		t.Fatalf("expected base range, got %v", got)
	}

	end := now.Add(time.Minute)
	want := BaseRangeMeters * RangeMultiplier
	if got := ClaimRangeMeters(&end, now); !almostEqual(got, want) {
		t.Fatalf("expected boosted range %v, got %v", want, got)
	}

	past := now.Add(-time.Minute)
	if got := ClaimRangeMeters(&past, now); got != BaseRangeMeters {
		t.Fatalf("expected base range after expiry, got %v", got)
	}
}
