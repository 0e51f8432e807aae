package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZAGENO/product-lookup-poc-Crawl4AI/models"
)

// Stats exposes the crawl engine state the health check reports.
type Stats interface {
	BrowserActive() bool
	InFlight() int
}

// Health returns a handler for GET /api/v1/health.
//
// Reports degraded when the browser engine is configured but not running.
func Health(stats Stats, provider string, browserEnabled bool, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		browser := stats.BrowserActive()

		status := "healthy"
		if browserEnabled && !browser {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: "0.1.0",
			Engine: models.EngineStats{
				Browser:  browser,
				Provider: provider,
				InFlight: stats.InFlight(),
			},
		})
	}
}
