package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// probeResponse is the shape expected of a healthy proxy's GET /health body.
type probeResponse struct {
	OK bool `json:"ok"`
}

// HealthProber periodically probes a proxy's /health endpoint while the
// breaker is OPEN, calling RecordSuccess on the first healthy response
// (spec 4.L). It stops itself once the breaker leaves OPEN and is always
// stoppable from Destroy without holding the process open.
type HealthProber struct {
	url     string
	breaker *Breaker
	client  *http.Client
	logger  *zap.Logger

	cron  *cron.Cron
	group singleflight.Group

	entryID cron.EntryID
}

// NewHealthProber builds a prober targeting url (the proxy's health
// endpoint), driving breaker on success.
func NewHealthProber(url string, breaker *Breaker, logger *zap.Logger) *HealthProber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthProber{
		url:     url,
		breaker: breaker,
		client:  &http.Client{Timeout: 2 * time.Second},
		logger:  logger,
		cron:    cron.New(),
	}
}

// Start begins the 15-second probe loop. Safe to call once; a second call
// before Stop is a no-op.
func (h *HealthProber) Start() {
	if h.entryID != 0 {
		return
	}
	id, err := h.cron.AddFunc("@every 15s", h.tick)
	if err != nil {
		h.logger.Error("health prober: failed to schedule", zap.Error(err))
		return
	}
	h.entryID = id
	h.cron.Start()
}

// Stop halts the probe loop without waiting for an in-flight probe past its
// own 2s timeout; it never blocks process exit.
func (h *HealthProber) Stop() {
	if h.entryID == 0 {
		return
	}
	ctx := h.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(3 * time.Second):
	}
	h.entryID = 0
}

// tick runs one probe attempt, collapsing concurrent overlapping ticks
// (a slow probe plus a new tick firing) into a single in-flight request.
func (h *HealthProber) tick() {
	if h.breaker.State() != BreakerOpen {
		h.Stop()
		return
	}

	_, _, _ = h.group.Do("probe", func() (interface{}, error) {
		h.probeOnce()
		return nil, nil
	})
}

func (h *HealthProber) probeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return
	}
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Debug("health prober: probe failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return
	}
	var body probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || !body.OK {
		return
	}

	h.breaker.RecordSuccess()
	h.logger.Info("health prober: proxy healthy, breaker closed")
}
