package handlers

import (
	"math"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/relayplane/gateway/internal/domain/service"
	"github.com/relayplane/gateway/internal/infrastructure/config"
	"github.com/relayplane/gateway/internal/infrastructure/llm"
	"go.uber.org/zap"
)

// ControlHandler serves the /control/* control-plane routes (spec 4.J):
// inspecting and mutating the in-memory gateway config without a restart.
type ControlHandler struct {
	store     *config.Store
	cooldown  *llm.CooldownManager
	telemetry *service.MemoryTelemetrySink
	providers []string
	logger    *zap.Logger
}

// NewControlHandler builds a ControlHandler. providers lists every
// configured upstream name, used to report per-provider cooldown state.
func NewControlHandler(store *config.Store, cooldown *llm.CooldownManager, telemetry *service.MemoryTelemetrySink, providers []string, logger *zap.Logger) *ControlHandler {
	return &ControlHandler{store: store, cooldown: cooldown, telemetry: telemetry, providers: providers, logger: logger}
}

// Status handles GET /control/status.
func (h *ControlHandler) Status(c *gin.Context) {
	cfg := h.store.Get()
	cooldowns := gin.H{}
	for _, p := range h.providers {
		cooldowns[p] = !h.cooldown.IsAvailable(p)
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled":        cfg.Gateway.Enabled,
		"routingMode":    cfg.Routing.Mode,
		"cascadeEnabled": cfg.Routing.CascadeEnabled,
		"cooldowns":      cooldowns,
	})
}

// Enable handles POST /control/enable.
func (h *ControlHandler) Enable(c *gin.Context) {
	h.store.SetEnabled(true)
	c.JSON(http.StatusOK, gin.H{"enabled": true})
}

// Disable handles POST /control/disable: forces every request into
// passthrough mode until re-enabled (spec 4.J).
func (h *ControlHandler) Disable(c *gin.Context) {
	h.store.SetEnabled(false)
	c.JSON(http.StatusOK, gin.H{"enabled": false})
}

// Stats handles GET /control/stats: per-task-type request counts and
// latency percentiles over the retained telemetry window.
func (h *ControlHandler) Stats(c *gin.Context) {
	records := h.telemetry.Snapshot()

	byTask := map[string]int{}
	var latencies []int64
	successes := 0
	for _, r := range records {
		byTask[string(r.Task)]++
		latencies = append(latencies, r.LatencyMs)
		if r.Success {
			successes++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":        len(records),
		"success":      successes,
		"byTask":       byTask,
		"latencyMeanMs": meanLatency(latencies),
		"latencyP50Ms":  percentile(latencies, 0.50),
		"latencyP95Ms":  percentile(latencies, 0.95),
		"latencyP99Ms":  percentile(latencies, 0.99),
	})
}

// Config handles GET and POST /control/config: GET returns the live
// snapshot, POST overlays a config.Patch body (spec 4.J, §9 "replacing
// dynamic configuration objects").
func (h *ControlHandler) Config(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		c.JSON(http.StatusOK, h.store.Get())
		return
	}

	var patch config.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"type": "invalid_request", "message": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, h.store.ApplyPatch(patch))
}

// meanLatency rounds half-away-from-zero, matching the observable behaviour
// of the reference implementation's average over mixed-sign inputs.
func meanLatency(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return int64(math.Round(float64(sum) / float64(len(values))))
}

// percentile computes the p-th percentile via idx = ceil(p*N) - 1 on sorted
// values (spec's percentile formula, verified against the reference
// latency-distribution scenario).
func percentile(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int64(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
