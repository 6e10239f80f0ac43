package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"storefront/api/internal/config"
	"storefront/api/internal/ids"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

// ErrUnauthenticated covers every invalid-cookie case: missing, malformed,
// expired, or referencing an invalidated session. Callers must not be able
// to distinguish them.
var ErrUnauthenticated = errors.New("unauthenticated")

type SessionStore interface {
	Create(ctx context.Context, session models.Session) error
	FindByTokenHash(ctx context.Context, tokenHash []byte) (models.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Manager owns the session lifecycle: issue, validate, invalidate, and the
// cookie that carries the client-held token.
type Manager struct {
	sessions SessionStore
	users    UserStore
	cfg      config.SecurityConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewManager(sessions SessionStore, users UserStore, cfg config.SecurityConfig, log zerolog.Logger) *Manager {
	return &Manager{
		sessions: sessions,
		users:    users,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Issue creates a session for the user and returns the cookie holding the
// raw token. Only the token hash is persisted.
func (m *Manager) Issue(ctx context.Context, user models.User, ipAddress, userAgent string) (models.Session, *http.Cookie, error) {
	token, tokenHash, err := security.GenerateSessionToken(32)
	if err != nil {
		return models.Session{}, nil, err
	}

	session := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: tokenHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: m.now().Add(m.cfg.SessionTTL),
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return models.Session{}, nil, err
	}

	return session, m.cookie(token, int(m.cfg.SessionTTL.Seconds())), nil
}

// Validate resolves a cookie token to its (user, session) pair. The user row
// is re-read on every call so role changes take effect immediately.
func (m *Manager) Validate(ctx context.Context, token string) (models.User, models.Session, error) {
	if token == "" {
		return models.User{}, models.Session{}, ErrUnauthenticated
	}

	session, err := m.sessions.FindByTokenHash(ctx, security.HashSessionToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, models.Session{}, ErrUnauthenticated
		}
		return models.User{}, models.Session{}, err
	}

	// The expiry instant itself is already expired.
	if !m.now().Before(session.ExpiresAt) {
		if err := m.sessions.DeleteByID(ctx, session.ID); err != nil {
			m.log.Warn().Err(err).Str("session_id", session.ID).Msg("purge expired session failed")
		}
		return models.User{}, models.Session{}, ErrUnauthenticated
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, models.Session{}, ErrUnauthenticated
		}
		return models.User{}, models.Session{}, err
	}

	return user, session, nil
}

// Invalidate removes the session. Idempotent.
func (m *Manager) Invalidate(ctx context.Context, sessionID string) error {
	return m.sessions.DeleteByID(ctx, sessionID)
}

// BlankCookie instructs the client to forget any held session token.
func (m *Manager) BlankCookie() *http.Cookie {
	return m.cookie("", -1)
}

func (m *Manager) CookieName() string {
	return m.cfg.SessionCookieName
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
