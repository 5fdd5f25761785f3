// Package server exposes the agents over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sentinell/a2a"
	"github.com/m-mizutani/sentinell/agent/procurement"
	"github.com/m-mizutani/sentinell/agent/watchtower"
	"github.com/m-mizutani/sentinell/internal/httpx"
	"github.com/m-mizutani/sentinell/internal/metrics"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Scanner runs region scans. *watchtower.Agent implements it.
type Scanner interface {
	ScanRegion(ctx context.Context, region string) (*watchtower.Scan, error)
}

// Purchaser runs procurement tasks. *procurement.Agent implements it.
type Purchaser interface {
	CreateOrder(ctx context.Context, req procurement.Request) (string, error)
}

var (
	_ Scanner   = (*watchtower.Agent)(nil)
	_ Purchaser = (*procurement.Agent)(nil)
)

// Server is the HTTP API.
type Server struct {
	echo      *echo.Echo
	scanner   Scanner
	purchaser Purchaser
	supplier  *a2a.Supplier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithScanner enables POST /api/scan.
func WithScanner(s Scanner) Option {
	return func(x *Server) {
		x.scanner = s
	}
}

// WithPurchaser enables POST /api/purchase.
func WithPurchaser(p Purchaser) Option {
	return func(x *Server) {
		x.purchaser = p
	}
}

// WithSupplier mounts the mock supplier under /supplier.
func WithSupplier(s *a2a.Supplier) Option {
	return func(x *Server) {
		x.supplier = s
	}
}

// WithMetrics records request metrics and serves GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(x *Server) {
		x.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Server) {
		x.logger = logger
	}
}

// WithClock replaces the clock used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(x *Server) {
		x.now = now
	}
}

// New builds the API. Endpoints of agents that are not configured answer 503.
func New(options ...Option) *Server {
	x := &Server{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(x)
	}

	e := httpx.New(x.logger)
	if x.metrics != nil {
		e.Use(x.metrics.Middleware())
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	e.GET("/health", x.health)
	if x.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(x.metrics.Handler()))
	}

	h := &handler{scanner: x.scanner, purchaser: x.purchaser, now: x.now}
	h.Register(e.Group("/api"))

	if x.supplier != nil {
		x.supplier.Register(e.Group("/supplier"))
	}

	x.echo = e
	return x
}

// ServeHTTP implements http.Handler.
func (x *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	x.echo.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (x *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		x.logger.Info("starting server", "addr", addr, "version", Version)
		errCh <- x.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return goerr.Wrap(err, "server stopped", goerr.V("addr", addr))

	case <-ctx.Done():
		x.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := x.echo.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown server")
		}
		return nil
	}
}

func (x *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "version": Version})
}
