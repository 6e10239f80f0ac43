package auth

import "storefront/api/internal/models"

// Context is the resolved identity for one request: the session the cookie
// referenced and the user row it belongs to, looked up fresh per request.
// It is threaded explicitly into service operations; nothing reads ambient
// state.
type Context struct {
	User    models.User
	Session models.Session
}
