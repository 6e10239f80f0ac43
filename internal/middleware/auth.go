package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/api/internal/auth"
	"storefront/api/internal/session"
)

const authContextKey = "auth_context"

// Auth resolves the session cookie into an auth.Context and aborts with 401
// when the cookie is missing or does not reference a live session. The
// lookup runs on every request; nothing is cached between requests.
func Auth(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(manager.CookieName())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}

		user, sess, err := manager.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrUnauthenticated) {
				http.SetCookie(c.Writer, manager.BlankCookie())
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(authContextKey, auth.Context{User: user, Session: sess})

		c.Next()
	}
}

// CurrentAuth returns the identity resolved by Auth for this request.
func CurrentAuth(c *gin.Context) (auth.Context, bool) {
	val, exists := c.Get(authContextKey)
	if !exists {
		return auth.Context{}, false
	}
	actor, ok := val.(auth.Context)
	return actor, ok
}
