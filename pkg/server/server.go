// Package server assembles the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/routes/health"
	"github.com/Ramsey-B/fern/pkg/routes/resolution"
)

const minShutdownTimeout = 5 * time.Second

// Server is the HTTP API
type Server struct {
	echo   *echo.Echo
	http   *http.Server
	health *health.Checker
	logger ectologger.Logger
}

// New wires middleware and routes.
func New(cfg *config.Config, logger ectologger.Logger, checker *health.Checker, resolutions *resolution.Handler) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomiddleware.Recover())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	if len(cfg.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{AllowOrigins: cfg.AllowOrigins}))
	}

	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	resolutions.Register(e.Group("/api/v1/resolutions"))

	return &Server{
		echo: e,
		http: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        e,
			ReadTimeout:    cfg.HttpServerReadTimeout,
			WriteTimeout:   cfg.HttpServerWriteTimeout,
			IdleTimeout:    cfg.HttpServerIdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		health: checker,
		logger: logger,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until ctx is done, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.http.Addr).Info("HTTP server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.health.SetReady(true)

	select {
	case err := <-errCh:
		s.health.SetReady(false)
		return err
	case <-ctx.Done():
	}

	s.health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), max(s.http.WriteTimeout, minShutdownTimeout))
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(shutdownCtx)
}
