package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *Handlers) {
	// API group
	api := r.Group("/api")
	api.Use(AuthMiddleware())

	// Single-shot import
	api.POST("/import", h.ImportTodos)

	// Staged import
	api.POST("/import/staged", h.StagedInit)
	api.POST("/import/staged/parents", h.StagedParents)
	api.POST("/import/staged/children", h.StagedChildren)
	api.GET("/import/staged/progress", h.StagedProgress)

	// Resumable uploads (TUS) for large import files
	api.Any("/import/tus/*path", h.TUSHandler)

	// Notifications (SSE)
	api.GET("/events", h.EventStream)

	// Stats
	api.GET("/stats", h.Stats)
}
