package middleware

import (
	"time" // Latency measurement

	"github.com/gin-gonic/gin"   // Gin framework
	"github.com/sirupsen/logrus" // Structured logging
)

// LoggerMiddleware logs every request once it has been handled
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()        // Request start time
		path := c.Request.URL.Path // Path with query appended below
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next() // Run the rest of the chain

		status := c.Writer.Status() // Final response status
		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString(RequestIDKey),
		})
		if user := c.GetString(UserIDKey); user != "" {
			entry = entry.WithField("user_id", user) // Only set behind JWT middleware
		}
		switch {
		case status >= 500:
			entry.Error("Request failed") // Server side failure
		case status >= 400:
			entry.Warn("Request rejected") // Client side error
		default:
			entry.Info("Request handled")
		}
	}
}
