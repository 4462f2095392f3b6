// Package http implements the REST API for CPTrack Hub: tracker
// connection, manual refresh, leaderboard queries, edit request review,
// and administrative job control.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cptrack/cptrack-hub/internal/application/editrequest"
	"github.com/cptrack/cptrack-hub/internal/application/leaderboard"
	"github.com/cptrack/cptrack-hub/internal/application/updater"
	"github.com/cptrack/cptrack-hub/internal/infrastructure/scheduler"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host is the address to bind.
	Host string

	// Port is the port to listen on.
	Port int

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration

	// AdminToken guards /api/v1/admin routes. When empty the admin
	// routes are not registered at all.
	AdminToken string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies contains everything the handlers need.
type Dependencies struct {
	Updater      *updater.Service
	Leaderboard  *leaderboard.Service
	EditRequests *editrequest.Service
	Scheduler    *scheduler.Scheduler

	// Health check targets, keyed by dependency name.
	HealthCheckers map[string]HealthChecker

	Logger *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP API server.
type Server struct {
	echo   *echo.Echo
	config Config
	deps   Dependencies
	logger *slog.Logger
}

// NewServer creates a configured server with all routes registered.
func NewServer(cfg Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
	}

	e.Use(middleware.Recover())
	e.Use(s.requestLogger())

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	h := &handler{deps: s.deps, logger: s.logger}

	s.echo.GET("/healthz", h.Health)

	api := s.echo.Group("/api/v1")

	api.POST("/trackers", h.ConnectTracker)
	api.GET("/trackers/:userID", h.GetTracker)
	api.POST("/trackers/:userID/refresh", h.RefreshTracker)
	api.DELETE("/trackers/:userID", h.DisconnectTracker)

	api.GET("/leaderboard", h.GetLeaderboard)

	api.POST("/edit-requests", h.SubmitEditRequest)

	if s.config.AdminToken != "" {
		admin := api.Group("/admin", s.adminAuth())

		admin.POST("/trackers/:userID/refresh", h.AdminRefreshTracker)
		admin.POST("/refresh", h.TriggerBatchRefresh)
		admin.GET("/statistics", h.GetStatistics)

		admin.GET("/edit-requests", h.ListEditRequests)
		admin.POST("/edit-requests/:id/approve", h.ApproveEditRequest)
		admin.POST("/edit-requests/:id/reject", h.RejectEditRequest)

		admin.GET("/jobs", h.ListJobs)
		admin.POST("/jobs/:name/run", h.RunJob)
		admin.POST("/jobs/:name/enable", h.EnableJob)
		admin.POST("/jobs/:name/disable", h.DisableJob)
	}
}

// requestLogger logs each request with method, path, status and latency.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			s.logger.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}

// adminAuth checks the bearer token on admin routes.
func (s *Server) adminAuth() echo.MiddlewareFunc {
	return middleware.KeyAuth(func(key string, c echo.Context) (bool, error) {
		return key == s.config.AdminToken, nil
	})
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.echo.Server.ReadTimeout = s.config.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.WriteTimeout

	s.logger.Info("http server starting", "address", s.config.Address())
	if err := s.echo.Start(s.config.Address()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.echo.Shutdown(ctx)
}
