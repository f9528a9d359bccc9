package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

type RequestMetrics interface {
	RecordRequest(ctx context.Context, method, path string, status int, duration time.Duration)
	IncrementActiveConnections(ctx context.Context)
	DecrementActiveConnections(ctx context.Context)
}

func MetricsMiddleware(metrics RequestMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		path := c.FullPath()

		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(c.Request.Context(), c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
