package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers the share endpoints under both / and /api, plus the ops endpoints.
func SetupRoutes(router *gin.Engine, files *FileHandler, health *HealthHandler) {
	router.GET("/ping", health.Ping)
	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)
	router.GET("/metrics", health.Metrics)

	// The web client calls /api/*; share links point at /download/*.
	for _, group := range []*gin.RouterGroup{&router.RouterGroup, router.Group("/api")} {
		group.POST("/upload", files.Upload)
		group.GET("/download/:fileId", files.Download)
		group.GET("/download/:fileId/qr", files.QRCode)
	}
}
