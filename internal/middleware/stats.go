package middleware

import (
	"math"
	"sort"
	"sync"

	"github.com/relayplane/gateway/internal/domain/service"
)

// StatsRecord is one completed request observation (component O).
type StatsRecord struct {
	Timestamp int64
	Proxied   bool
	Success   bool
	LatencyMs int64
}

// TransitionRecord is one breaker state change, timestamped for the stats
// collector's transition log.
type TransitionRecord struct {
	Timestamp int64
	From      BreakerState
	To        BreakerState
}

// Stats is the computed snapshot returned by GetStats.
type Stats struct {
	TotalRequests   int
	ProxiedRequests int
	DirectRequests  int
	SuccessCount    int
	FailureCount    int

	P50 float64
	P95 float64
	P99 float64
	Avg float64

	CircuitState          BreakerState
	CircuitStateAgeMillis int64
	Transitions           []TransitionRecord
}

// StatsCollector maintains a rolling one-hour window of request records and
// breaker transitions (component O, spec 4.O).
type StatsCollector struct {
	mu sync.Mutex

	clock        service.Clock
	windowMillis int64

	records     []StatsRecord
	transitions []TransitionRecord

	circuitState      BreakerState
	circuitStateSince int64
}

// NewStatsCollector builds a collector with the given rolling-window
// duration in milliseconds (default one hour).
func NewStatsCollector(clock service.Clock, windowMillis int64) *StatsCollector {
	if windowMillis <= 0 {
		windowMillis = 3_600_000
	}
	return &StatsCollector{
		clock:             clock,
		windowMillis:      windowMillis,
		circuitState:      BreakerClosed,
		circuitStateSince: clock.NowMillis(),
	}
}

// RecordRequest appends one completed request observation, pruning entries
// older than the rolling window.
func (c *StatsCollector) RecordRequest(r StatsRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	c.pruneLocked()
}

// RecordStateTransition updates the current circuit state and appends a
// timestamped transition record.
func (c *StatsCollector) RecordStateTransition(from, to BreakerState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.NowMillis()
	c.transitions = append(c.transitions, TransitionRecord{Timestamp: now, From: from, To: to})
	c.circuitState = to
	c.circuitStateSince = now
}

func (c *StatsCollector) pruneLocked() {
	cutoff := c.clock.NowMillis() - c.windowMillis
	kept := c.records[:0]
	for _, r := range c.records {
		if r.Timestamp >= cutoff {
			kept = append(kept, r)
		}
	}
	c.records = kept
}

// GetStats prunes the window, recomputes request counts, and computes
// mean/percentiles over proxied-only latencies (invariant 5, scenario S2).
func (c *StatsCollector) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()

	stats := Stats{
		CircuitState:          c.circuitState,
		CircuitStateAgeMillis: c.clock.NowMillis() - c.circuitStateSince,
		Transitions:           append([]TransitionRecord(nil), c.transitions...),
	}

	var proxiedLatencies []int64
	for _, r := range c.records {
		stats.TotalRequests++
		if r.Proxied {
			stats.ProxiedRequests++
			proxiedLatencies = append(proxiedLatencies, r.LatencyMs)
		} else {
			stats.DirectRequests++
		}
		if r.Success {
			stats.SuccessCount++
		} else {
			stats.FailureCount++
		}
	}

	if len(proxiedLatencies) == 0 {
		return stats
	}

	sort.Slice(proxiedLatencies, func(i, j int) bool { return proxiedLatencies[i] < proxiedLatencies[j] })

	var sum int64
	for _, l := range proxiedLatencies {
		sum += l
	}
	stats.Avg = math.Round(float64(sum) / float64(len(proxiedLatencies)))

	stats.P50 = percentile(proxiedLatencies, 0.50)
	stats.P95 = percentile(proxiedLatencies, 0.95)
	stats.P99 = percentile(proxiedLatencies, 0.99)
	return stats
}

// percentile selects the p-th percentile element from a sorted slice using
// idx = ceil(p*N) - 1, clamped to the slice bounds.
func percentile(sorted []int64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return float64(sorted[idx])
}
