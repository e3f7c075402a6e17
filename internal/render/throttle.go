package render

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMaxFPS caps streamed redraws when no rate is configured
const DefaultMaxFPS = 30

// Throttle caps how often streamed frames are drawn. Frames marked as flush
// are always drawn. A skipped frame leaves Pending set so the caller can
// draw the latest state after Delay.
type Throttle struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	pending bool
}

// NewThrottle creates a throttle allowing maxFPS frames per second.
func NewThrottle(maxFPS int) *Throttle {
	if maxFPS <= 0 {
		maxFPS = DefaultMaxFPS
	}
	return &Throttle{
		limiter: rate.NewLimiter(rate.Limit(maxFPS), 1),
	}
}

// Ready reports whether a frame may be drawn now.
func (t *Throttle) Ready(flush bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := t.limiter.Allow()
	if flush || allowed {
		t.pending = false
		return true
	}
	t.pending = true
	return false
}

// Pending reports whether a frame was skipped since the last one drawn.
func (t *Throttle) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Delay is how long until the next frame is allowed.
func (t *Throttle) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	tokens := t.limiter.Tokens()
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(t.limiter.Limit()) * float64(time.Second))
}

// Reset clears the pending flag, e.g. when a turn ends or is aborted.
func (t *Throttle) Reset() {
	t.mu.Lock()
	t.pending = false
	t.mu.Unlock()
}
