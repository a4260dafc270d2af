package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushub/club-portal-api/internal/service"
)

// Metrics records per-request duration and status. Unmatched routes are
// labeled by their raw URL path since FullPath is empty for them.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
