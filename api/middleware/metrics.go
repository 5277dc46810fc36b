package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver records served requests. metrics.Collector implements it.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics records method, matched route, status and latency of every
// request. Unmatched routes are grouped under "unmatched".
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
