// Package middleware provides HTTP middleware for the API.
//
// Go Pattern: Middleware in Gin is a gin.HandlerFunc that calls c.Next()
// to continue the chain, or c.Abort() to stop processing.
package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// IngestAuth returns middleware that validates the X-API-Key header
// against the configured ingest key. The comparison runs over SHA-256
// digests in constant time, so key length never leaks.
//
// An empty configured key disables the check — that is only allowed in
// debug mode (config.Load refuses it in release mode).
func IngestAuth(ingestKey string) gin.HandlerFunc {
	configuredHash := HashAPIKey(ingestKey)

	return func(c *gin.Context) {
		if ingestKey == "" {
			c.Next()
			return
		}

		rawKey := c.GetHeader("X-API-Key")
		if rawKey == "" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "Missing X-API-Key header",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(HashAPIKey(rawKey)), []byte(configuredHash)) != 1 {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid ingest API key",
				Code:    http.StatusUnauthorized,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// HashAPIKey returns the hex-encoded SHA-256 digest of a key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", sum)
}
