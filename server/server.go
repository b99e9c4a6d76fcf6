// Package server exposes listing ingestion over HTTP.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"listing-parser/fetcher"
	"listing-parser/services"
	"listing-parser/storage"
	"listing-parser/utils"
)

// PageFetcher renders a listing URL into text.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetcher.Page, error)
}

// Deps are the collaborators the handlers call into. Fetcher may be nil, in
// which case URL ingestion answers 501.
type Deps struct {
	Ingestor *services.Ingestor
	Insights *services.InsightService
	Store    storage.RecordStore
	Fetcher  PageFetcher
	Metrics  *Metrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	MaxBodySize string
}

// Server provides the HTTP endpoints.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *utils.Logger
	config *Config
}

// NewServer wires middleware and routes.
func NewServer(deps Deps, logger *utils.Logger, cfg *Config) (*Server, error) {
	if deps.Ingestor == nil || deps.Store == nil {
		return nil, fmt.Errorf("server: ingestor and store are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("server: logger is required")
	}
	if cfg == nil {
		cfg = &Config{Host: "0.0.0.0", Port: 8080}
	}
	if cfg.MaxBodySize == "" {
		cfg.MaxBodySize = "2M"
	}
	if deps.Insights == nil {
		deps.Insights = services.NewInsightService(logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.BodyLimit(cfg.MaxBodySize))
	e.Use(requestLogger(logger.Zap()))

	s := &Server{echo: e, deps: deps, logger: logger, config: cfg}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/ping", s.handlePing)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))

	s.echo.POST("/parse", s.handleParse)
	s.echo.POST("/parse/url", s.handleParseURL)

	s.echo.GET("/listings", s.handleList)
	s.echo.GET("/listings/summary", s.handleSummary)
	s.echo.GET("/listings/:id", s.handleGet)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let the error handler set the final status before logging it
				c.Error(err)
			}

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return nil
		}
	}
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("[server] Listening on %s", addr)
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("[server] Shutting down")
	return s.echo.Shutdown(ctx)
}
