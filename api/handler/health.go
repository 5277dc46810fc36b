package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pricewatch/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns a handler for GET /api/v1/health.
//
// Status is "degraded" when the store does not answer a ping within two
// seconds.
func Health(st Pinger, renderer string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, storeStatus := "healthy", "ok"
		if err := st.Ping(ctx); err != nil {
			status, storeStatus = "degraded", "unreachable"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   status,
			Uptime:   time.Since(startTime).Round(time.Second).String(),
			Store:    storeStatus,
			Renderer: renderer,
			Version:  Version,
		})
	}
}
