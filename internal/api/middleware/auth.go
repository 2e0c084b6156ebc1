package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminKey returns a middleware guarding admin routes with a shared key sent
// as X-API-Key or a bearer token. An empty key leaves the routes open.
func AdminKey(apiKey string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	if apiKey == "" {
		logger.Warn("admin.api_key not set, admin routes are unauthenticated")
		return func(c *gin.Context) { c.Next() }
	}
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		presented := presentedKey(c.Request)
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
			logger.Warn("admin request rejected",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
				zap.Bool("key_present", presented != ""),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func presentedKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
