// Package api serves the admin dashboard JSON API.
package api

import (
	"net/http"

	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin engine. Everything under /api/v1 except
// /healthz requires an admin token.
func SetupRouter(h *Handler, tokens TokenParser, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	apiV1 := r.Group("/api/v1")
	apiV1.GET("/healthz", h.Health)

	admin := apiV1.Group("")
	admin.Use(AuthMiddleware(tokens))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/analytics", h.Analytics)
		admin.GET("/users", h.Users)
		admin.GET("/users/:id", h.User)
		admin.POST("/users/:id/reset", h.ResetUser)
		admin.GET("/feedback", h.Feedback)
		admin.GET("/broadcasts", h.Broadcasts)
		admin.POST("/broadcast", h.Broadcast)
		admin.POST("/export", h.Export)
		admin.POST("/cleanup", h.Cleanup)
	}
	return r
}
