package api

import (
	"net/http" // HTTP status codes

	"nft_marketplace/internal/apperr"     // Error taxonomy
	"nft_marketplace/internal/middleware" // Request id key

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// HTTP status for each error kind
var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:     http.StatusBadRequest,
	apperr.KindAuthentication: http.StatusUnauthorized,
	apperr.KindAuthorization:  http.StatusForbidden,
	apperr.KindNotFound:       http.StatusNotFound,
	apperr.KindConflict:       http.StatusConflict,
	apperr.KindTransient:      http.StatusServiceUnavailable,
	apperr.KindInternal:       http.StatusInternalServerError,
}

// StatusOf returns the HTTP status err is rendered with
func StatusOf(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError renders err as {code, message, error}; causes are logged, never sent
func respondError(c *gin.Context, err error) {
	appErr := apperr.As(err) // Unknown errors become internal
	status := StatusOf(appErr)
	// Log server side failures with their cause
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.RequestIDKey),
			"path":       c.FullPath(),
			"kind":       appErr.Kind.String(),
			"error":      err.Error(),
		}).Error("Request error")
	}
	c.JSON(status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"error":   appErr.Message, // Older clients read this field
	})
}

// badRequest renders a validation failure for a request that could not be bound
func badRequest(c *gin.Context, msg string) {
	respondError(c, apperr.Validation(msg))
}
