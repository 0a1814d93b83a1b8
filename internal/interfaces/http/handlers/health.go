package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relayplane/gateway/internal/domain/service"
	"github.com/relayplane/gateway/internal/infrastructure/config"
)

// HealthHandler serves GET /health and /healthz (spec 4.J).
type HealthHandler struct {
	store     *config.Store
	telemetry *service.MemoryTelemetrySink
	version   string
	startedAt time.Time
}

// NewHealthHandler builds a HealthHandler. startedAt should be the process
// start time so uptime is measured from the gateway's own launch.
func NewHealthHandler(store *config.Store, telemetry *service.MemoryTelemetrySink, version string, startedAt time.Time) *HealthHandler {
	return &HealthHandler{store: store, telemetry: telemetry, version: version, startedAt: startedAt}
}

// Health reports liveness plus a lightweight stats summary used by the
// client-side middleware's health prober (spec 4.L).
func (h *HealthHandler) Health(c *gin.Context) {
	uptime := time.Since(h.startedAt)

	records := h.telemetry.Snapshot()
	successes := 0
	for _, r := range records {
		if r.Success {
			successes++
		}
	}

	c.JSON(200, gin.H{
		"status":    "ok",
		"version":   h.version,
		"uptime":    uptime.String(),
		"uptimeMs":  uptime.Milliseconds(),
		"enabled":   h.store.Get().Gateway.Enabled,
		"stats": gin.H{
			"totalRequests":   len(records),
			"successRequests": successes,
		},
	})
}
