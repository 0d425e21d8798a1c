package ratelimit

import "context"

// DistributedLimiter is the interface point for a future cross-process rate
// limiter. The reference source carries a DistributedRateLimiter stub whose
// intended backend (shared memory vs. a network service) was never decided;
// rather than guess, this repo keeps it as an interface and ships only the
// local-token-bucket-backed default below.
type DistributedLimiter interface {
	TryAcquire(ctx context.Context, n float64) (bool, error)
}

// LocalLimiterAdapter satisfies DistributedLimiter by delegating to a local
// TokenBucket, so code written against the interface works unchanged until
// a real distributed backend exists.
type LocalLimiterAdapter struct {
	bucket *TokenBucket
}

// NewLocalLimiterAdapter wraps an existing TokenBucket as a DistributedLimiter.
func NewLocalLimiterAdapter(bucket *TokenBucket) *LocalLimiterAdapter {
	return &LocalLimiterAdapter{bucket: bucket}
}

// TryAcquire ignores ctx: the local bucket never blocks or does I/O.
func (a *LocalLimiterAdapter) TryAcquire(_ context.Context, n float64) (bool, error) {
	return a.bucket.TryAcquire(n), nil
}
