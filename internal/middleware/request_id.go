package middleware

import (
	"github.com/gin-gonic/gin" // Gin framework
	"github.com/google/uuid"   // Request id generation
)

const (
	RequestIDKey    = "request_id"   // Context key holding the request id
	RequestIDHeader = "X-Request-ID" // Header read from the caller and echoed back
)

// RequestIDMiddleware reuses the caller's request id or generates one, and echoes it back
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader) // Prefer the caller's id
		if id == "" {
			id = uuid.NewString() // Generate one when absent
		}
		c.Set(RequestIDKey, id)       // Expose to handlers and the logger
		c.Header(RequestIDHeader, id) // Echo back to the client
		c.Next()
	}
}
