package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/deusflow/headlines/internal/logger"
)

// Budget caps paid API calls per service over a rolling day.
type Budget struct {
	mu        sync.Mutex
	limits    map[string]int // 0 = unlimited
	used      map[string]int
	denied    map[string]int
	period    time.Duration
	resetTime time.Time
	now       func() time.Time
}

// NewBudget creates a budget with the given per-service limits, reset daily.
func NewBudget(limits map[string]int) *Budget {
	b := &Budget{
		limits: make(map[string]int, len(limits)),
		used:   make(map[string]int),
		denied: make(map[string]int),
		period: 24 * time.Hour,
		now:    time.Now,
	}
	for name, limit := range limits {
		b.limits[name] = limit
	}
	b.resetTime = b.now().Add(b.period)
	return b
}

// Allow reports whether another call to service fits in the budget.
func (b *Budget) Allow(service string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()
	return b.allowLocked(service)
}

// Use consumes one call for service, failing when the budget is spent.
func (b *Budget) Use(service string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkReset()

	if !b.allowLocked(service) {
		b.denied[service]++
		logger.Warn("budget exhausted", "service", service, "used", b.used[service], "limit", b.limits[service])
		return fmt.Errorf("%s budget exhausted (%d/%d)", service, b.used[service], b.limits[service])
	}

	b.used[service]++
	logger.Debug("budget used", "service", service, "used", b.used[service], "limit", b.limits[service])
	return nil
}

func (b *Budget) allowLocked(service string) bool {
	limit := b.limits[service]
	return limit <= 0 || b.used[service] < limit
}

// GetStats returns current usage per service.
func (b *Budget) GetStats() map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := map[string]interface{}{
		"reset_time": b.resetTime.Format(time.RFC3339),
	}
	for name, limit := range b.limits {
		stats[name+"_used"] = b.used[name]
		stats[name+"_limit"] = limit
		stats[name+"_denied"] = b.denied[name]
	}
	return stats
}

// checkReset resets counters if reset time has passed
func (b *Budget) checkReset() {
	now := b.now()
	if now.After(b.resetTime) {
		logger.Info("resetting API budgets", "used", b.used)
		b.used = make(map[string]int)
		b.denied = make(map[string]int)
		b.resetTime = now.Add(b.period)
	}
}
