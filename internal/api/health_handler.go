package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyTimeout = 3 * time.Second

type HealthHandler struct {
	checks      map[string]Pinger
	promHandler http.Handler
	logger      *slog.Logger
}

// NewHealthHandler builds the ops endpoints. checks are probed by /health/ready, keyed by name.
func NewHealthHandler(checks map[string]Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checks:      checks,
		promHandler: promhttp.Handler(),
		logger:      logger.With(slog.String("component", "health_handler")),
	}
}

// checkResult carries only the status; probe errors may name hosts or DSNs and are logged instead.
type checkResult struct {
	Status string `json:"status"`
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Live returns 200 while the process is up.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready probes every dependency and returns 503 if any of them fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	status := "ok"
	results := make(map[string]checkResult, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed",
				slog.String("check", name),
				slog.String("error", err.Error()),
			)
			status = "fail"
			results[name] = checkResult{Status: "fail"}
			continue
		}
		results[name] = checkResult{Status: "ok"}
	}

	code := http.StatusOK
	if status == "fail" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    results,
	})
}

func (h *HealthHandler) Metrics(c *gin.Context) {
	h.promHandler.ServeHTTP(c.Writer, c.Request)
}
