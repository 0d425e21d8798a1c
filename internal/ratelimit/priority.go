package ratelimit

import "golang.org/x/time/rate"

// Tier identifies one of the three independent priority buckets. Tiers do
// not borrow capacity from one another: a LOW-tier caller can never be
// admitted at the expense of HIGH-tier headroom, because each tier owns
// its own limiter.
type Tier int

const (
	TierHigh Tier = iota
	TierMedium
	TierLow
)

// TierConfig sets the capacity (burst) and refill rate for one tier.
type TierConfig struct {
	Burst         int
	RatePerSecond float64
}

// PriorityLimiter wraps three independent golang.org/x/time/rate.Limiters,
// one per tier, so higher-priority traffic is never starved by a flood of
// lower-priority callers sharing a single bucket. Grounded in the reference
// implementation's PriorityRateLimiter, which keeps per-tier RateLimiters
// for the same reason; golang.org/x/time/rate stands in for a second,
// independently-sourced token-bucket implementation here rather than
// duplicating the hand-rolled TokenBucket above.
type PriorityLimiter struct {
	limiters [3]*rate.Limiter
}

// NewPriorityLimiter builds a limiter from per-tier configs. A zero-value
// TierConfig (Burst == 0) leaves that tier permanently closed.
func NewPriorityLimiter(high, medium, low TierConfig) *PriorityLimiter {
	mk := func(c TierConfig) *rate.Limiter {
		return rate.NewLimiter(rate.Limit(c.RatePerSecond), c.Burst)
	}
	return &PriorityLimiter{
		limiters: [3]*rate.Limiter{mk(high), mk(medium), mk(low)},
	}
}

// TryAcquire admits a single request at the given tier.
func (p *PriorityLimiter) TryAcquire(t Tier) bool {
	return p.limiters[t].Allow()
}
