package middleware

import (
	"testing"

	"github.com/relayplane/gateway/internal/domain/service"
)

func TestStatsCollector_S2Percentiles(t *testing.T) {
	clock := service.NewFakeClock(1_000_000)
	c := NewStatsCollector(clock, 3_600_000)

	for i := int64(1); i <= 100; i++ {
		c.RecordRequest(StatsRecord{Timestamp: clock.NowMillis(), Proxied: true, Success: true, LatencyMs: i})
	}

	stats := c.GetStats()
	if stats.TotalRequests != 100 {
		t.Fatalf("totalRequests = %d, want 100", stats.TotalRequests)
	}
	if stats.ProxiedRequests != 100 {
		t.Fatalf("proxiedRequests = %d, want 100", stats.ProxiedRequests)
	}
	if stats.P50 != 50 || stats.P95 != 95 || stats.P99 != 99 {
		t.Fatalf("percentiles = {p50:%v p95:%v p99:%v}, want {50 95 99}", stats.P50, stats.P95, stats.P99)
	}
	if stats.Avg != 51 {
		t.Fatalf("avg = %v, want 51", stats.Avg)
	}
}

func TestStatsCollector_PercentileOrdering(t *testing.T) {
	clock := service.NewFakeClock(0)
	c := NewStatsCollector(clock, 3_600_000)
	for _, lat := range []int64{5, 1, 9, 3, 7} {
		c.RecordRequest(StatsRecord{Timestamp: 0, Proxied: true, Success: true, LatencyMs: lat})
	}
	stats := c.GetStats()
	if !(stats.P50 <= stats.P95 && stats.P95 <= stats.P99) {
		t.Fatalf("percentiles not ordered: %+v", stats)
	}
}

func TestStatsCollector_PrunesOldEntries(t *testing.T) {
	clock := service.NewFakeClock(0)
	c := NewStatsCollector(clock, 1000)

	c.RecordRequest(StatsRecord{Timestamp: 0, Proxied: true, Success: true, LatencyMs: 10})
	clock.Advance(2000)
	c.RecordRequest(StatsRecord{Timestamp: clock.NowMillis(), Proxied: true, Success: true, LatencyMs: 20})

	stats := c.GetStats()
	if stats.TotalRequests != 1 {
		t.Fatalf("totalRequests = %d, want 1 (the expired record must be pruned)", stats.TotalRequests)
	}
}

func TestStatsCollector_RecordsTransitions(t *testing.T) {
	clock := service.NewFakeClock(0)
	c := NewStatsCollector(clock, 3_600_000)
	c.RecordStateTransition(BreakerClosed, BreakerOpen)
	c.RecordStateTransition(BreakerOpen, BreakerHalfOpen)

	stats := c.GetStats()
	if len(stats.Transitions) != 2 {
		t.Fatalf("transitions = %d, want 2", len(stats.Transitions))
	}
	if stats.CircuitState != BreakerHalfOpen {
		t.Fatalf("circuitState = %v, want HalfOpen", stats.CircuitState)
	}
}
