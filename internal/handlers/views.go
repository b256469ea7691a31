package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "scribemarket/api/internal/middleware"
	"scribemarket/api/internal/routes"
)

// View renders a guarded page: its name, the visitor's identity and the
// navigation list for their role. Page bodies themselves are out of scope.
func (h *HandlerSet) View(route routes.Route) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := mw.CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"view": route.View,
			"user": toIdentityResponse(&identity),
			"nav":  routes.NavItems(identity.Role),
		})
	}
}

func (h *HandlerSet) Unauthorized(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"view":    "unauthorized",
		"message": "You do not have permission to view this page.",
	})
}

func (h *HandlerSet) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"view": "not_found",
		"path": c.Request.URL.Path,
	})
}
