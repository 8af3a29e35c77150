package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/reviewharvest/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// PoolReporter exposes browser pool utilisation.
type PoolReporter interface {
	Stats() models.PoolStats
}

// Health returns a handler for GET /api/v1/health.
//
// Reports pool utilisation and degrades status when every tab is busy,
// since the next harvest would have to wait for a free one.
func Health(pool PoolReporter, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := pool.Stats()

		status := "healthy"
		if stats.MaxPages > 0 && stats.ActivePages >= stats.MaxPages {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:    status,
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			PoolStats: stats,
			Version:   Version,
		})
	}
}
