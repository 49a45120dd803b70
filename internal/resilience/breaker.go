package resilience

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitBreaker tracks consecutive failures to skip a flaky upstream.
// When the failure threshold is hit within the window, the circuit opens
// for the cooldown period and callers should fall through to the next
// strategy instead of waiting on the broken one.
type CircuitBreaker struct {
	mu          sync.Mutex
	name        string
	failures    int
	lastFailure time.Time
	openUntil   time.Time
	threshold   int
	window      time.Duration
	cooldown    time.Duration
}

// NewCircuitBreaker creates a breaker that opens after threshold consecutive
// failures within window, staying open for cooldown.
func NewCircuitBreaker(name string, threshold int, window, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:      name,
		threshold: threshold,
		window:    window,
		cooldown:  cooldown,
	}
}

// IsOpen reports whether the circuit is currently open.
func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return time.Now().Before(cb.openUntil)
}

// RecordFailure counts a failure and opens the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()
	if now.Sub(cb.lastFailure) > cb.window {
		cb.failures = 0
	}
	cb.failures++
	cb.lastFailure = now
	if cb.failures >= cb.threshold {
		cb.openUntil = now.Add(cb.cooldown)
		zap.L().Warn("resilience: circuit breaker opened",
			zap.String("breaker", cb.name),
			zap.Int("failures", cb.failures),
			zap.Duration("cooldown", cb.cooldown),
		)
	}
}

// RecordSuccess resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
}
