// api/v1/apikeys/routes.go
package apikeys

import (
	"github.com/gin-gonic/gin"
)

// RegisterProtectedRoutes registers all API key management routes
func RegisterProtectedRoutes(r *gin.RouterGroup, h *Handler) {
	keyGroup := r.Group("/api-keys")

	// Private routes - authentication required
	keyGroup.POST("", h.HandleIssue)
	keyGroup.GET("", h.HandleList)
	keyGroup.DELETE("/:id", h.HandleRevoke)
}
