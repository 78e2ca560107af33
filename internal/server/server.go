package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vzahanych/forecast-gateway/internal/config"
	"github.com/vzahanych/forecast-gateway/internal/server/handlers"
	"github.com/vzahanych/forecast-gateway/internal/server/middlewares"
	"github.com/vzahanych/forecast-gateway/pkg/telemetry"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	server *http.Server
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

// NewServer wires the gin engine around gw. The gateway is built by the
// caller so tests can substitute the provider.
func NewServer(cfg *config.Config, gw handlers.ForecastGateway, logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	engine.Use(middlewares.RequestIDMiddleware())
	engine.Use(middlewares.LoggingMiddleware(logger, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(tele))
	engine.Use(middlewares.MetricsMiddleware())
	engine.Use(middlewares.CORSMiddleware(cfg.Server.CORSAllowedOrigins))
	engine.NoRoute(middlewares.NotFoundHandler())

	srvCfg := cfg.Server
	s := &Server{
		cfg:    cfg,
		engine: engine,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", srvCfg.Host, srvCfg.Port),
			Handler:      engine,
			ReadTimeout:  time.Duration(srvCfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(srvCfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(srvCfg.IdleTimeout) * time.Second,
		},
		logger: logger,
		tele:   tele,
	}

	s.setupRoutes(gw)

	return s
}

func (s *Server) setupRoutes(gw handlers.ForecastGateway) {
	// Business endpoints
	s.engine.GET("/api/forecast", handlers.NewForecastHandler(gw, s.logger).GetForecast)

	// Health endpoints (Kubernetes friendly)
	health := handlers.NewHealthHandler(s.logger, s.cfg.Forecast.APIKey != "")
	s.engine.GET("/health", health.Health)
	s.engine.GET("/health/live", health.Liveness)
	s.engine.GET("/health/ready", health.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", handlers.NewMetricsHandler(s.logger).ServeMetrics)
}

// Handler exposes the engine for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the listener fails or Shutdown is called. A clean
// shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
