package ratelimit

import "testing"

func TestPriorityLimiterTiersAreIndependent(t *testing.T) {
	t.Parallel()
	pl := NewPriorityLimiter(
		TierConfig{Burst: 1, RatePerSecond: 1},
		TierConfig{Burst: 1, RatePerSecond: 1},
		TierConfig{Burst: 0, RatePerSecond: 0},
	)

	if !pl.TryAcquire(TierHigh) {
		t.Error("expected HIGH tier to admit its first call")
	}
	if pl.TryAcquire(TierHigh) {
		t.Error("expected HIGH tier to reject its second call at t=0")
	}
	// MEDIUM has its own bucket, unaffected by HIGH's exhaustion.
	if !pl.TryAcquire(TierMedium) {
		t.Error("expected MEDIUM tier to admit independently of HIGH")
	}
	// LOW has zero burst, so it is always closed.
	if pl.TryAcquire(TierLow) {
		t.Error("expected LOW tier with zero burst to always reject")
	}
}
