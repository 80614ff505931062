package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AlexanderUp/hw05-final/internal/logs"
	"github.com/AlexanderUp/hw05-final/internal/monitoring"
)

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// Metrics compte les requêtes et mesure leur durée par route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(monitoring.HttpRequestDuration.WithLabelValues(routeOf(c)))
		c.Next()
		timer.ObserveDuration()

		monitoring.HttpRequestsTotal.
			WithLabelValues(routeOf(c), c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Inc()
	}
}

// RequestLogger écrit une ligne par requête.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := "INFO"
		if c.Writer.Status() >= 500 {
			level = "ERROR"
		}
		logs.LogJSON(level, "Request handled", map[string]interface{}{
			"route":     routeOf(c),
			"method":    c.Request.Method,
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
			"userID":    c.GetString(UserIDKey),
		})
	}
}
