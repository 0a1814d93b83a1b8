package service

import (
	"sync"

	"github.com/relayplane/gateway/internal/domain/valueobject"
)

// TelemetryRecord is the one-shot event emitted per completed request.
type TelemetryRecord struct {
	Task         valueobject.TaskType
	Model        string
	PromptTokens int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	CostEstimate float64
}

// TelemetrySink accepts completed-request records. Implementations must
// never block or error back into the request path (spec 4.A: fire-and-forget).
type TelemetrySink interface {
	Record(rec TelemetryRecord)
}

// MemoryTelemetrySink is an in-process sink retaining the most recent
// records, used by tests and by the /control/stats surface.
type MemoryTelemetrySink struct {
	mu      sync.Mutex
	records []TelemetryRecord
	cap     int
}

// NewMemoryTelemetrySink returns a sink retaining at most capacity records,
// dropping the oldest once full.
func NewMemoryTelemetrySink(capacity int) *MemoryTelemetrySink {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryTelemetrySink{cap: capacity}
}

// Record appends rec, evicting the oldest entry if at capacity.
func (s *MemoryTelemetrySink) Record(rec TelemetryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= s.cap {
		s.records = s.records[1:]
	}
	s.records = append(s.records, rec)
}

// Snapshot returns a copy of the retained records.
func (s *MemoryTelemetrySink) Snapshot() []TelemetryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TelemetryRecord, len(s.records))
	copy(out, s.records)
	return out
}
