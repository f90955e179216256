// Package health serves liveness, readiness and dependency checks.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Pinger is a dependency the health check can probe
type Pinger interface {
	PingContext(ctx context.Context) error
}

type probe struct {
	name     string
	pinger   Pinger
	critical bool
}

// Option configures a Checker
type Option func(*Checker)

// WithProbe adds a dependency check. A failing critical probe makes the service unhealthy and
// not ready; a failing non-critical one only degrades it.
func WithProbe(name string, pinger Pinger, critical bool) Option {
	return func(c *Checker) {
		if pinger != nil {
			c.probes = append(c.probes, probe{name: name, pinger: pinger, critical: critical})
		}
	}
}

// WithProbeTimeout bounds each probe. Zero disables the bound.
func WithProbeTimeout(timeout time.Duration) Option {
	return func(c *Checker) {
		c.timeout = timeout
	}
}

// Checker handles health check endpoints
type Checker struct {
	probes    []probe
	timeout   time.Duration
	version   string
	startTime time.Time
	ready     atomic.Bool
}

// NewChecker creates a health checker. Probes run in the order they were added.
func NewChecker(version string, opts ...Option) *Checker {
	c := &Checker{
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetReady sets the readiness state
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// RegisterRoutes registers health check endpoints
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/health", c.Health)
	e.GET("/api/v1/health/live", c.Live)
	e.GET("/api/v1/health/ready", c.Ready)
}

// HealthStatus is the health check response
type HealthStatus struct {
	Status     string                  `json:"status"`
	Version    string                  `json:"version"`
	Uptime     string                  `json:"uptime"`
	Checks     map[string]*CheckResult `json:"checks"`
	ReportedAt time.Time               `json:"reported_at"`
}

// CheckResult is the outcome of one probe
type CheckResult struct {
	Status   string `json:"status"`
	Critical bool   `json:"critical"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency,omitempty"`
}

// Check runs every probe and folds the results into one status.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     make(map[string]*CheckResult, len(c.probes)),
		ReportedAt: time.Now().UTC(),
	}

	for _, p := range c.probes {
		result := c.run(ctx, p)
		status.Checks[p.name] = result
		if result.Status == StatusHealthy {
			continue
		}
		if p.critical {
			status.Status = StatusUnhealthy
		} else if status.Status == StatusHealthy {
			status.Status = StatusDegraded
		}
	}
	return status
}

func (c *Checker) run(ctx context.Context, p probe) *CheckResult {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := p.pinger.PingContext(ctx)
	if err != nil {
		return &CheckResult{Status: StatusUnhealthy, Critical: p.critical, Message: err.Error()}
	}
	return &CheckResult{Status: StatusHealthy, Critical: p.critical, Latency: time.Since(start).String()}
}

// Health returns the overall health status. Only an unhealthy service answers 503.
func (c *Checker) Health(ctx echo.Context) error {
	status := c.Check(ctx.Request().Context())
	if status.Status == StatusUnhealthy {
		return ctx.JSON(http.StatusServiceUnavailable, status)
	}
	return ctx.JSON(http.StatusOK, status)
}

// Live returns the liveness status
func (c *Checker) Live(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

// Ready reports whether the server accepts traffic and its critical dependencies answer.
func (c *Checker) Ready(ctx echo.Context) error {
	if !c.ready.Load() {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
	if c.Check(ctx.Request().Context()).Status == StatusUnhealthy {
		return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "dependencies unavailable"})
	}
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ready"})
}
