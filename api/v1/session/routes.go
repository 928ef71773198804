// api/v1/session/routes.go
package session

import (
	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes registers session routes that work from cookies
// alone, before any auth resolution
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	sessionGroup := r.Group("/session")

	// Public routes - driven by cookies, not by a resolved identity
	sessionGroup.POST("/refresh", h.HandleRefresh)
	sessionGroup.POST("/logout", h.HandleLogout)
}

// RegisterProtectedRoutes registers session routes needing a resolved
// identity
func RegisterProtectedRoutes(r *gin.RouterGroup, h *Handler) {
	sessionGroup := r.Group("/session")

	// Private routes - authentication required
	sessionGroup.GET("/me", h.HandleMe)
}
