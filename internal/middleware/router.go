package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/relayplane/gateway/internal/domain/service"
)

// RouteResult is what Route returns to the caller: the response body and
// status the client should see, tagged with which path served it.
type RouteResult struct {
	StatusCode int
	Body       []byte
	ViaProxy   bool
}

// DirectSendFunc performs the caller's own (non-proxied) request handling.
type DirectSendFunc func(ctx context.Context) (RouteResult, error)

// Router implements the proxy-first/fallback-on-failure logic of spec 4.N.
// It is the component tying the breaker (K), stats collector (O), and an
// embedding caller's own direct-send path together.
type Router struct {
	proxyURL       string
	client         *http.Client
	breaker        *Breaker
	stats          *StatsCollector
	clock          service.Clock
	logger         *zap.Logger
	enabled        bool
	requestTimeout time.Duration

	skipLogOnce sync.Once
}

// NewRouter builds a router targeting proxyURL with the given per-request
// timeout; enabled=false behaves as if the breaker were permanently
// unhealthy (always direct-send).
func NewRouter(proxyURL string, requestTimeout time.Duration, breaker *Breaker, stats *StatsCollector, clock service.Clock, logger *zap.Logger, enabled bool) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		proxyURL:       proxyURL,
		client:         &http.Client{Timeout: requestTimeout},
		breaker:        breaker,
		stats:          stats,
		clock:          clock,
		logger:         logger,
		enabled:        enabled,
		requestTimeout: requestTimeout,
	}
}

// Route implements the per-request decision: try the proxy when the
// breaker is healthy, otherwise (or on proxy failure) fall back to
// directSend. Latency is stamped at call start regardless of which path
// serves the request (spec 4.N).
func (r *Router) Route(ctx context.Context, path string, body []byte, directSend DirectSendFunc) (RouteResult, error) {
	start := r.clock.NowMillis()

	if !r.enabled || !r.breaker.IsHealthy() {
		r.skipLogOnce.Do(func() {
			r.logger.Info("router: breaker unhealthy or disabled, routing direct", zap.String("proxy_url", r.proxyURL))
		})
		result, err := directSend(ctx)
		r.record(start, result, err, false)
		result.ViaProxy = false
		return result, err
	}

	result, proxyErr := r.tryProxy(ctx, path, body)
	if proxyErr == nil && result.StatusCode < 500 {
		r.breaker.RecordSuccess()
		result.ViaProxy = true
		r.record(start, result, nil, true)
		return result, nil
	}

	r.breaker.RecordFailure()
	r.logger.Warn("router: proxy attempt failed, falling back to direct", zap.Error(proxyErr))

	result, err := directSend(ctx)
	result.ViaProxy = false
	r.record(start, result, err, false)
	return result, err
}

func (r *Router) tryProxy(ctx context.Context, path string, body []byte) (RouteResult, error) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if r.requestTimeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, r.requestTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.proxyURL+path, bytes.NewReader(body))
	if err != nil {
		return RouteResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return RouteResult{}, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return RouteResult{}, err
	}
	return RouteResult{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func (r *Router) record(start int64, result RouteResult, err error, proxied bool) {
	if r.stats == nil {
		return
	}
	latency := r.clock.NowMillis() - start
	success := err == nil && result.StatusCode < 500
	r.stats.RecordRequest(StatsRecord{
		Timestamp: start,
		Proxied:   proxied,
		Success:   success,
		LatencyMs: latency,
	})
}
