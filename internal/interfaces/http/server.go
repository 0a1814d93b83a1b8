// Package http wires the gateway's gin frontend: route table, CORS, body
// limits, and request logging (spec 4.J).
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/relayplane/gateway/internal/interfaces/http/handlers"
	"github.com/relayplane/gateway/pkg/safego"
)

// Server owns the gin engine's lifecycle.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// Config is the HTTP frontend's listen address and gin run mode.
type Config struct {
	Host string
	Port int
	Mode string // "production" selects gin release mode; any other value selects debug mode
}

// Handlers bundles every route-group handler the server wires in.
type Handlers struct {
	Messages *handlers.MessagesHandler
	OpenAI   *handlers.OpenAIHandler
	Health   *handlers.HealthHandler
	Control  *handlers.ControlHandler
	Metrics  *handlers.MetricsHandler
}

// NewServer builds the gin engine, registers every route (spec 4.J), and
// wraps it in an *http.Server.
func NewServer(cfg Config, h Handlers, logger *zap.Logger) *Server {
	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logger))
	router.Use(corsMiddleware())

	setupRoutes(router, h)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		server: &http.Server{Addr: addr, Handler: router},
		logger: logger,
	}
}

// Start binds the listen address and begins serving in the background. A
// bind failure is returned; Serve errors other than a clean shutdown are
// logged, not returned, since they surface after Start has already returned
// to the caller.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", zap.String("address", s.server.Addr))

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}

	safego.Go(s.logger, "http-listen", func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	})

	return nil
}

// Stop gracefully shuts the server down, honoring ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func setupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Health)
	router.GET("/healthz", h.Health.Health)

	v1 := router.Group("/v1")
	{
		v1.POST("/messages", h.Messages.Messages)
		v1.POST("/messages/count_tokens", h.Messages.CountTokens)
		v1.POST("/chat/completions", h.OpenAI.ChatCompletions)
		v1.GET("/models", h.OpenAI.ListModels)
	}

	control := router.Group("/control")
	{
		control.GET("/status", h.Control.Status)
		control.POST("/enable", h.Control.Enable)
		control.POST("/disable", h.Control.Disable)
		control.GET("/stats", h.Control.Stats)
		control.GET("/config", h.Control.Config)
		control.POST("/config", h.Control.Config)
		control.GET("/metrics", h.Metrics.Metrics)
	}
}

// corsMiddleware implements spec 4.J's CORS policy: any origin, GET/POST/
// OPTIONS, exposing the custom routing headers so browser-based clients can
// read them back off the response.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key, anthropic-version, anthropic-beta, X-RelayPlane-Bypass, X-RelayPlane-Model, X-RelayPlane-Workspace, X-RelayPlane-Agent, X-RelayPlane-Session, X-RelayPlane-Automated")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-RelayPlane-Bypass, X-RelayPlane-Model")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// ginLogger logs one structured line per request.
func ginLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
