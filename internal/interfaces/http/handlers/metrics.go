package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the gateway's Prometheus collectors for scraping
// (SPEC_FULL.md domain-stack addition; spec 4.J's /control/* surface).
type MetricsHandler struct {
	handler gin.HandlerFunc
}

// NewMetricsHandler wraps promhttp's standard exposition handler over reg so
// gin can mount it alongside the rest of /control/*.
func NewMetricsHandler(reg *prometheus.Registry) *MetricsHandler {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return &MetricsHandler{handler: gin.WrapH(h)}
}

// Metrics handles GET /control/metrics.
func (m *MetricsHandler) Metrics(c *gin.Context) {
	m.handler(c)
}
