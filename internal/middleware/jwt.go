package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"nft_marketplace/internal/apperr" // Error codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "userID"

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTAuthMiddleware validates bearer tokens and stores the user id in the context
func JWTAuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "No token, authorization denied")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) // Extract the token string
		userID, err := verifier.Verify(tokenStr)                                 // Verify signature and expiry
		if err != nil {
			abortUnauthorized(c, "Token is not valid")
			return
		}
		c.Set(UserIDKey, userID) // Store userID in context
		c.Next()                 // Proceed to the next handler
	}
}

// UserID returns the authenticated user id set by JWTAuthMiddleware
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(UserIDKey)
	return id, id != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    apperr.CodeUnauthorized,
		"message": msg,
		"error":   msg,
	})
}
