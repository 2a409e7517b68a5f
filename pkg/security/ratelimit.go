package security

import (
	"sync"
	"time"
)

// RateLimiter admits requests per identifier over a sliding wall-clock
// window. A single mutex serializes all map access, so prune+check+append is
// atomic per identifier: two concurrent callers cannot both be admitted when
// only one slot remains. The critical section is bounded list pruning, not
// I/O.
//
// With enforcement disabled (the default), every request is allowed and no
// bookkeeping occurs.
type RateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	enforce     bool
	requests    map[string][]time.Time

	// now is swappable for deterministic window tests.
	now func() time.Time
}

// NewRateLimiter builds a limiter admitting maxRequests per window for each
// identifier.
func NewRateLimiter(maxRequests int, window time.Duration, enforce bool) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		enforce:     enforce,
		requests:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// MaxRequests returns the per-window admission cap.
func (rl *RateLimiter) MaxRequests() int { return rl.maxRequests }

// Window returns the sliding window length.
func (rl *RateLimiter) Window() time.Duration { return rl.window }

// Enforcing reports whether rate limiting is active.
func (rl *RateLimiter) Enforcing() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.enforce
}

// SetEnforce toggles enforcement.
func (rl *RateLimiter) SetEnforce(enforce bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.enforce = enforce
}

// RecordRequest prunes expired timestamps for the identifier, and if a slot
// remains, records the request and admits it. A rejected request consumes no
// slot.
func (rl *RateLimiter) RecordRequest(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !rl.enforce {
		return true
	}
	now := rl.now()
	kept := rl.pruneLocked(identifier, now)
	if len(kept) >= rl.maxRequests {
		return false
	}
	rl.requests[identifier] = append(kept, now)
	return true
}

// IsAllowed performs the same pruning and count check as RecordRequest, as a
// pure peek: nothing is recorded.
func (rl *RateLimiter) IsAllowed(identifier string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !rl.enforce {
		return true
	}
	return len(rl.pruneLocked(identifier, rl.now())) < rl.maxRequests
}

// Remaining returns how many requests the identifier may still make in the
// current window.
func (rl *RateLimiter) Remaining(identifier string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !rl.enforce {
		return rl.maxRequests
	}
	remaining := rl.maxRequests - len(rl.pruneLocked(identifier, rl.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAfter returns how long until the oldest surviving timestamp exits the
// window, or 0 when none survive. Callers use it for throttling hints.
func (rl *RateLimiter) ResetAfter(identifier string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if !rl.enforce {
		return 0
	}
	now := rl.now()
	kept := rl.pruneLocked(identifier, now)
	if len(kept) == 0 {
		return 0
	}
	return kept[0].Add(rl.window).Sub(now)
}

// Clear drops recorded history for the given identifiers, or for every
// identifier when none are given.
func (rl *RateLimiter) Clear(identifiers ...string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if len(identifiers) == 0 {
		rl.requests = make(map[string][]time.Time)
		return
	}
	for _, id := range identifiers {
		delete(rl.requests, id)
	}
}

// pruneLocked drops timestamps older than now minus the window and stores
// the survivors. Empty histories are removed so idle identifiers do not
// accumulate.
func (rl *RateLimiter) pruneLocked(identifier string, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	history := rl.requests[identifier]
	kept := history[:0]
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(rl.requests, identifier)
		return nil
	}
	rl.requests[identifier] = kept
	return kept
}
