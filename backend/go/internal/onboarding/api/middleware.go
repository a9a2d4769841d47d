package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/internal/onboarding/service"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

const adminIDKey = "adminID"

// TokenParser validates a bearer token and returns the administrator id.
type TokenParser interface {
	ParseAdminToken(token string) (int64, error)
}

// AuthMiddleware accepts only "Bearer <token>" headers carrying a valid admin token.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		adminID, err := tokens.ParseAdminToken(parts[1])
		if errors.Is(err, service.ErrNotAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not an administrator"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(adminIDKey, adminID)
		c.Next()
	}
}

// adminID reads the id stored by AuthMiddleware.
func adminID(c *gin.Context) int64 {
	return c.GetInt64(adminIDKey)
}

// requestLogger writes one structured line per request.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}).WithPayload(map[string]interface{}{
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if id := adminID(c); id != 0 {
			entry = entry.WithUser(id)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Error("dashboard request failed")
			return
		}
		entry.Debug("dashboard request")
	}
}
