package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/relayplane/gateway/internal/domain/service"
)

// Config configures one embedded Middleware instance.
type Config struct {
	Enabled bool

	ProxyURL             string
	RequestTimeout       time.Duration
	FailureThreshold     int
	ResetTimeoutMillis   int64
	StatsWindowMillis    int64

	LauncherPath     string
	LauncherArgs     []string
	LauncherEnv      map[string]string
	SupervisorMaxAttempts int
	SupervisorWindowMillis int64
	SupervisorBaseDelay    time.Duration
	SupervisorMaxDelay     time.Duration
}

// Middleware wires the breaker (K), health prober (L), child-process
// supervisor (M), router (N), and stats collector (O) into one
// client-embeddable reliability layer (spec §4, §9 "cyclic references").
// The middleware owns all five components and tears them down in Destroy.
type Middleware struct {
	Breaker    *Breaker
	Prober     *HealthProber
	Supervisor *Supervisor
	Router     *Router
	Stats      *StatsCollector

	clock service.Clock
}

// New builds a fully wired Middleware. If cfg.LauncherPath is empty no
// supervisor is started (the middleware assumes an externally managed
// proxy process).
func New(cfg Config, clock service.Clock, logger *zap.Logger) *Middleware {
	if clock == nil {
		clock = service.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	breaker := NewBreaker(clock, cfg.FailureThreshold, cfg.ResetTimeoutMillis, cfg.RequestTimeout.Milliseconds())
	stats := NewStatsCollector(clock, cfg.StatsWindowMillis)

	breaker.SetObserver(func(sc StateChange) {
		stats.RecordStateTransition(sc.From, sc.To)
	})

	prober := NewHealthProber(cfg.ProxyURL+"/health", breaker, logger)
	breaker.SetObserver(func(sc StateChange) {
		stats.RecordStateTransition(sc.From, sc.To)
		if sc.To == BreakerOpen {
			prober.Start()
		}
	})

	router := NewRouter(cfg.ProxyURL, cfg.RequestTimeout, breaker, stats, clock, logger, cfg.Enabled)

	m := &Middleware{
		Breaker: breaker,
		Prober:  prober,
		Router:  router,
		Stats:   stats,
		clock:   clock,
	}

	if cfg.LauncherPath != "" {
		supervisor := NewSupervisor(cfg.LauncherPath, cfg.LauncherArgs, cfg.LauncherEnv, breaker, clock, logger,
			cfg.SupervisorMaxAttempts, cfg.SupervisorWindowMillis, cfg.SupervisorBaseDelay, cfg.SupervisorMaxDelay)
		m.Supervisor = supervisor
	}

	return m
}

// Destroy tears every owned component down: stops the prober, stops the
// supervised child, and leaves no timer able to keep the process alive
// (spec 4.L/4.M, "timer lifecycles").
func (m *Middleware) Destroy(ctx context.Context) error {
	m.Prober.Stop()
	if m.Supervisor != nil {
		return m.Supervisor.Destroy(ctx)
	}
	return nil
}
