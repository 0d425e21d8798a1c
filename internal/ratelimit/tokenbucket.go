// Package ratelimit provides the admission-control primitives shared by the
// feed transport and the pre-trade risk gate: a token bucket with continuous
// refill, a sliding-window counter, a priority-tiered wrapper, and a stub
// interface point for a future distributed backend.
package ratelimit

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// refillThreshold is the elapsed time past which a refill is considered
// material enough to be worth taking the mutex for.
const refillThreshold = 100 * time.Millisecond

// TokenBucket is a continuously-refilling token bucket. Tokens replenish at
// a fixed rate up to a capacity; TryAcquire withdraws n tokens iff that many
// are available.
//
// A relaxed atomic read of the current token count guards a fast-path
// rejection: if the snapshot is already below n and less than
// refillThreshold has passed since the last refill, TryAcquire returns false
// without ever taking the mutex. Otherwise it locks, performs the refill
// (recomputing elapsed time against the capacity cap), and deducts. This
// favors throughput over fairness among contending callers; starvation is
// tolerated because callers on this path retry externally.
type TokenBucket struct {
	mu         sync.Mutex
	tokensBits atomic.Uint64 // math.Float64bits(tokens), informational outside mu
	lastNano   atomic.Int64

	capacity float64
	rate     float64
}

// NewTokenBucket creates a bucket starting full, refilling at ratePerSecond
// tokens/second up to capacity tokens.
func NewTokenBucket(capacity, ratePerSecond float64) *TokenBucket {
	b := &TokenBucket{capacity: capacity, rate: ratePerSecond}
	b.tokensBits.Store(math.Float64bits(capacity))
	b.lastNano.Store(time.Now().UnixNano())
	return b
}

func (b *TokenBucket) snapshotTokens() float64 {
	return math.Float64frombits(b.tokensBits.Load())
}

// TryAcquire attempts to withdraw n tokens, returning true iff successful.
func (b *TokenBucket) TryAcquire(n float64) bool {
	now := time.Now()

	if snap := b.snapshotTokens(); snap < n {
		elapsed := now.Sub(time.Unix(0, b.lastNano.Load()))
		if elapsed < refillThreshold {
			return false
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(now)
	tokens := b.snapshotTokens()
	if tokens < n {
		return false
	}
	b.store(tokens - n, b.lastNano.Load())
	return true
}

// refillLocked recomputes the token count for elapsed time. Caller holds mu.
func (b *TokenBucket) refillLocked(now time.Time) {
	last := time.Unix(0, b.lastNano.Load())
	elapsed := now.Sub(last)
	if elapsed <= 0 {
		return
	}
	add := elapsed.Seconds() * b.rate
	if add <= 0 {
		return
	}
	tokens := b.snapshotTokens() + add
	if tokens > b.capacity {
		tokens = b.capacity
	}
	b.store(tokens, now.UnixNano())
}

func (b *TokenBucket) store(tokens float64, nano int64) {
	b.tokensBits.Store(math.Float64bits(tokens))
	b.lastNano.Store(nano)
}

// AvailableTokens returns the last-known token count without consuming any.
func (b *TokenBucket) AvailableTokens() float64 {
	return b.snapshotTokens()
}

// Reset returns the bucket to full capacity.
func (b *TokenBucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store(b.capacity, time.Now().UnixNano())
}
