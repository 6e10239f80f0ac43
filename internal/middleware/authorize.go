package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/models"
)

// RequireRole gates a route on a minimum role of the session-backed user.
// It must run after Auth.
func RequireRole(required models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentAuth(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		if !actor.User.Role.AtLeast(required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		c.Next()
	}
}
