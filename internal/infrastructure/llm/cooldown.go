package llm

import (
	"sync"

	"github.com/relayplane/gateway/internal/domain/service"
)

// providerHealth is one provider's sliding-window failure record.
type providerHealth struct {
	failures    []int64 // failure timestamps in millis, pruned to the window
	cooledUntil int64   // 0 means not cooled
}

// CooldownObserver receives cooldown state transitions, used to mirror
// provider availability into the /control/metrics gauge without coupling
// this package to prometheus directly.
type CooldownObserver interface {
	SetCooldownActive(provider string, active bool)
}

// CooldownManager is the gateway-side "mini circuit breaker" keyed on
// provider (spec 4.H). It is independent of the middleware's breaker (K);
// the gateway uses it even when no middleware wraps it (spec 9's Open
// Question resolution).
type CooldownManager struct {
	mu             sync.Mutex
	clock          service.Clock
	byProvider     map[string]*providerHealth
	windowSeconds  int64
	allowedFails   int
	cooldownSecs   int64
	observer       CooldownObserver
}

// SetObserver attaches a CooldownObserver; nil disables reporting.
func (c *CooldownManager) SetObserver(o CooldownObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = o
}

// NewCooldownManager builds a manager with the given sliding window,
// failure-count threshold, and cooldown duration.
func NewCooldownManager(clock service.Clock, windowSeconds int64, allowedFails int, cooldownSeconds int64) *CooldownManager {
	return &CooldownManager{
		clock:         clock,
		byProvider:    make(map[string]*providerHealth),
		windowSeconds: windowSeconds,
		allowedFails:  allowedFails,
		cooldownSecs:  cooldownSeconds,
	}
}

// RecordFailure appends a failure for provider, pruning entries outside the
// window, and enters cooldown once the pruned count reaches allowedFails.
func (c *CooldownManager) RecordFailure(provider string, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.entry(provider)
	now := c.clock.NowMillis()
	h.failures = pruneOlderThan(h.failures, now, c.windowSeconds*1000)
	h.failures = append(h.failures, now)

	if len(h.failures) >= c.allowedFails {
		h.cooledUntil = now + c.cooldownSecs*1000
		if c.observer != nil {
			c.observer.SetCooldownActive(provider, true)
		}
	}
}

// RecordSuccess clears provider's failure history and cooldown.
func (c *CooldownManager) RecordSuccess(provider string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.entry(provider)
	wasCooled := h.cooledUntil != 0
	h.failures = nil
	h.cooledUntil = 0
	if wasCooled && c.observer != nil {
		c.observer.SetCooldownActive(provider, false)
	}
}

// IsAvailable reports whether provider may currently be dispatched to. A
// provider entering cooldown never affects another provider's availability
// (invariant 10: cooldown isolation).
func (c *CooldownManager) IsAvailable(provider string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h := c.entry(provider)
	if h.cooledUntil == 0 {
		return true
	}
	if c.clock.NowMillis() >= h.cooledUntil {
		h.cooledUntil = 0
		if c.observer != nil {
			c.observer.SetCooldownActive(provider, false)
		}
		return true
	}
	return false
}

func (c *CooldownManager) entry(provider string) *providerHealth {
	h, ok := c.byProvider[provider]
	if !ok {
		h = &providerHealth{}
		c.byProvider[provider] = h
	}
	return h
}

func pruneOlderThan(timestamps []int64, now int64, windowMillis int64) []int64 {
	out := timestamps[:0]
	for _, t := range timestamps {
		if now-t < windowMillis {
			out = append(out, t)
		}
	}
	return out
}
