// Package health serves the liveness and readiness probes. Postgres is
// load-bearing; Redis only degrades service because the scheduler falls back
// to unlocked single-instance operation without it.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tradepost/cardrail/pkg/database"
)

const checkTimeout = 5 * time.Second

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult represents the result of a single dependency check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// Response is the probe response body
type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// check is a named dependency probe. Critical checks take the whole service
// unhealthy; the rest only degrade it.
type check struct {
	name     string
	critical bool
	probe    func(ctx context.Context) error
}

// Checker runs dependency checks and tracks the readiness flip.
type Checker struct {
	checks    []check
	startTime time.Time
	version   string
	mu        sync.RWMutex
	ready     bool
}

// NewChecker creates a new health checker. The redis client is optional;
// when nil no redis check is registered.
func NewChecker(db database.DB, redisClient *redis.Client, version string) *Checker {
	checks := []check{{
		name:     "database",
		critical: true,
		probe:    db.PingContext,
	}}
	if redisClient != nil {
		checks = append(checks, check{
			name:  "redis",
			probe: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	return &Checker{
		checks:    checks,
		startTime: time.Now(),
		version:   version,
	}
}

// SetReady marks the service as ready to receive traffic
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

// IsReady returns whether the service is ready
func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// LivenessHandler reports that the process is up. It never touches
// dependencies.
func (c *Checker) LivenessHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		ReportedAt: time.Now(),
	})
}

// ReadinessHandler gates traffic on the startup sequence having completed,
// then reports dependency health.
func (c *Checker) ReadinessHandler(ctx echo.Context) error {
	if !c.IsReady() {
		return ctx.JSON(http.StatusServiceUnavailable, Response{
			Status:     StatusUnhealthy,
			Version:    c.version,
			ReportedAt: time.Now(),
			Checks: map[string]CheckResult{
				"startup": {Status: StatusUnhealthy, Message: "service is still starting up"},
			},
		})
	}

	return c.HealthHandler(ctx)
}

// HealthHandler runs every registered check and reports the rollup
func (c *Checker) HealthHandler(ctx echo.Context) error {
	overall := StatusHealthy
	results := make(map[string]CheckResult, len(c.checks))

	for _, chk := range c.checks {
		result := c.run(ctx.Request().Context(), chk)
		results[chk.name] = result

		if result.Status != StatusUnhealthy {
			continue
		}
		if chk.critical {
			overall = StatusUnhealthy
		} else if overall == StatusHealthy {
			overall = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	return ctx.JSON(statusCode, Response{
		Status:     overall,
		Version:    c.version,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Checks:     results,
		ReportedAt: time.Now(),
	})
}

func (c *Checker) run(ctx context.Context, chk check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	if err := chk.probe(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: err.Error(),
			Latency: time.Since(start).String(),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Latency: time.Since(start).String(),
	}
}
