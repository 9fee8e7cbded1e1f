package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"staffdesk/pkg/logger"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

const readyTimeout = 3 * time.Second

// HealthHandler serves the probes under /health.
type HealthHandler struct {
	checks  map[string]Check
	version string
	started time.Time
}

// NewHealthHandler creates the probes. checks back the readiness probe.
func NewHealthHandler(version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, version: version, started: time.Now()}
}

// Live handles GET /health/live. It never touches dependencies.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type checkResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
}

// Ready handles GET /health/ready. All checks run in parallel under one
// deadline; any failure makes the answer 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]checkResult, len(h.checks))
		failed  bool
		g       errgroup.Group
	)
	for name, check := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := check(ctx)
			res := checkResult{Status: "up", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status, res.Error = "down", err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = res
			failed = failed || err != nil
			return nil
		})
	}
	_ = g.Wait()

	status, overall := http.StatusOK, "ok"
	if failed {
		status, overall = http.StatusServiceUnavailable, "error"
		logger.Warn(ctx, "readiness check failed", "checks", results)
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

// Info handles GET /health/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "staffdesk",
		"version": h.version,
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}
