package api

import (
	"alcyxob/anyshare/internal/service"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anyshare_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "anyshare_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Fixed client-facing messages. Causes are logged, never returned.
const (
	msgNotFound = "File not found"
	msgExpired  = "File has expired"
	msgInternal = "Internal server error"
)

// abortWithServiceError maps a service error kind to its HTTP status and message.
func abortWithServiceError(c *gin.Context, logger *slog.Logger, err error) {
	switch service.KindOf(err) {
	case service.KindNotFound:
		abortWithError(c, http.StatusNotFound, msgNotFound)
	case service.KindExpired:
		abortWithError(c, http.StatusGone, msgExpired)
	case service.KindInvalid:
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		abortWithError(c, http.StatusInternalServerError, msgInternal)
	}
}

// RequestLogger logs every request once it completes. The level follows the status:
// 5xx at ERROR, 4xx at WARN, everything else at INFO.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.LogAttrs(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}

// Metrics records request counts and latency per route.
// Routes are labelled by their pattern (/download/:fileId), not the raw path, to keep cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
