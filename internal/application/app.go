package application

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/relayplane/gateway/internal/domain/service"
	"github.com/relayplane/gateway/internal/infrastructure/config"
	"github.com/relayplane/gateway/internal/infrastructure/llm"
	"github.com/relayplane/gateway/internal/infrastructure/metrics"
	gatewayhttp "github.com/relayplane/gateway/internal/interfaces/http"
	"github.com/relayplane/gateway/internal/interfaces/http/handlers"

	// Each upstream package self-registers its provider factory in init();
	// blank-importing here is what makes CreateProvider recognize it (spec
	// 4.D/4.F).
	_ "github.com/relayplane/gateway/internal/infrastructure/llm/anthropic"
	_ "github.com/relayplane/gateway/internal/infrastructure/llm/gemini"
	_ "github.com/relayplane/gateway/internal/infrastructure/llm/openaicompat"
)

// knownProviderNames is the fixed provider set this gateway build wires
// (spec 4.D's prefix-heuristic and explicit "provider/model" namespaces).
var knownProviderNames = []string{"anthropic", "openai", "google", "xai", "moonshot", "local"}

// App is the gateway's dependency-injection container, phased the way the
// teacher's application.App builds repositories, domain services,
// infrastructure adapters, and interfaces before starting (spec §2).
type App struct {
	cfg    *config.Config
	store  *config.Store
	logger *zap.Logger

	providers map[string]llm.Provider
	cooldown  *llm.CooldownManager
	dispatcher *llm.Dispatcher
	registry  *service.Registry
	telemetry *service.MemoryTelemetrySink
	clock     service.Clock
	metricsReg *prometheus.Registry
	metrics    *metrics.Recorder

	pipeline   *Pipeline
	httpServer *gatewayhttp.Server

	startedAt time.Time
}

// Version is stamped into /health responses; overridden at build time via
// -ldflags in production builds.
var Version = "0.1.0"

// NewApp wires every layer in dependency order: infrastructure adapters
// first, then domain services, then the pipeline, then the HTTP interface.
func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger, startedAt: time.Now()}

	a.initInfrastructure()
	if err := a.initProviders(); err != nil {
		return nil, err
	}
	a.initDomainServices()
	a.initPipeline()
	a.initInterfaces()

	return a, nil
}

func (a *App) initInfrastructure() {
	a.store = config.NewStore(*a.cfg)
	a.clock = service.SystemClock{}
	a.cooldown = llm.NewCooldownManager(
		a.clock,
		a.cfg.Reliability.CooldownWindowSeconds,
		a.cfg.Reliability.CooldownAllowedFails,
		a.cfg.Reliability.CooldownSeconds,
	)
	a.dispatcher = llm.NewDispatcher(a.cooldown)
	a.telemetry = service.NewMemoryTelemetrySink(1000)

	a.metricsReg = prometheus.NewRegistry()
	a.metrics = metrics.NewRecorder(a.metricsReg)
	a.cooldown.SetObserver(a.metrics)
}

// initProviders instantiates a Provider for every provider entry present in
// config, returning an error for any whose factory isn't registered.
func (a *App) initProviders() error {
	a.providers = make(map[string]llm.Provider, len(knownProviderNames))
	for _, name := range knownProviderNames {
		pc, ok := a.cfg.Providers[name]
		if !ok {
			continue
		}
		prov, err := llm.CreateProvider(llm.ProviderConfig{
			Name:    name,
			BaseURL: pc.BaseURL,
			APIKey:  pc.APIKey(),
			Models:  pc.Models,
		})
		if err != nil {
			return fmt.Errorf("init provider %q: %w", name, err)
		}
		a.providers[name] = prov
	}
	return nil
}

func (a *App) initDomainServices() {
	var known []string
	for name, pc := range a.cfg.Providers {
		for _, m := range pc.Models {
			known = append(known, name+":"+m)
		}
	}
	a.registry = service.NewRegistry(known...)
}

func (a *App) initPipeline() {
	a.pipeline = NewPipeline(
		a.registry,
		a.cooldown,
		a.dispatcher,
		a.providers,
		service.AllowAllPolicy{},
		a.telemetry,
		a.clock,
		a.store,
		a.logger,
	)
	a.pipeline.SetMetrics(a.metrics)
}

func (a *App) initInterfaces() {
	providerNames := make([]string, 0, len(a.providers))
	for name := range a.providers {
		providerNames = append(providerNames, name)
	}

	h := gatewayhttp.Handlers{
		Messages: handlers.NewMessagesHandler(a.pipeline, a.logger),
		OpenAI:   handlers.NewOpenAIHandler(a.pipeline, a.logger),
		Health:   handlers.NewHealthHandler(a.store, a.telemetry, Version, a.startedAt),
		Control:  handlers.NewControlHandler(a.store, a.cooldown, a.telemetry, providerNames, a.logger),
		Metrics:  handlers.NewMetricsHandler(a.metricsReg),
	}

	a.httpServer = gatewayhttp.NewServer(gatewayhttp.Config{
		Host: a.cfg.Gateway.Host,
		Port: a.cfg.Gateway.Port,
		Mode: "production",
	}, h, a.logger)
}

// Start begins serving HTTP traffic.
func (a *App) Start(ctx context.Context) error {
	a.logger.Info("starting gateway",
		zap.String("version", Version),
		zap.Int("providers", len(a.providers)),
	)
	return a.httpServer.Start(ctx)
}

// Stop shuts the HTTP server down, honoring ctx's deadline.
func (a *App) Stop(ctx context.Context) error {
	return a.httpServer.Stop(ctx)
}

// Logger returns the shared logger, for callers outside the container.
func (a *App) Logger() *zap.Logger { return a.logger }
