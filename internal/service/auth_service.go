package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/auth"
	"storefront/api/internal/config"
	"storefront/api/internal/ids"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
	"storefront/api/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrTooManyAttempts    = errors.New("too many sign-in attempts")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrEmailMismatch      = errors.New("email does not match signed-in user")
)

type UserStore interface {
	CreateWithCustomer(ctx context.Context, user models.User) (bool, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, id string, update repository.UserUpdate) (models.User, error)
}

type CustomerStore interface {
	FindByUserID(ctx context.Context, userID string) (models.Customer, error)
}

// FailureCounter tracks failed sign-in attempts per key. *redis.Client
// satisfies it.
type FailureCounter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type AuthService struct {
	users     UserStore
	customers CustomerStore
	sessions  *session.Manager
	cache     FailureCounter
	cfg       *config.AppConfig
	log       zerolog.Logger
}

func NewAuthService(
	users UserStore,
	customers CustomerStore,
	sessions *session.Manager,
	cache FailureCounter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		customers: customers,
		sessions:  sessions,
		cache:     cache,
		cfg:       cfg,
		log:       log,
	}
}

type SignUpInput struct {
	Email     string
	Password  string
	FullName  string
	Role      string
	IPAddress string
	UserAgent string
}

// SignUp creates the user and its customer profile as one atomic unit, then
// issues a session. Sign-up can never mint a Superadmin.
func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (models.User, *http.Cookie, error) {
	email := normalizeEmail(input.Email)
	role := models.UserRole(input.Role)
	if !role.Valid() || role == models.UserRoleSuperadmin {
		return models.User{}, nil, ErrInvalidRole
	}
	if len(input.Password) < s.cfg.Security.MinPasswordLen {
		return models.User{}, nil, ErrWeakPassword
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, nil, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         role,
	}

	adopted, err := s.users.CreateWithCustomer(ctx, user)
	if err != nil {
		return models.User{}, nil, err
	}
	if adopted {
		// Adoption trusts the email match alone; keep an audit trail.
		s.log.Warn().
			Str("user_id", user.ID).
			Str("email", email).
			Msg("orphan customer adopted on sign-up")
	}

	_, cookie, err := s.sessions.Issue(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return models.User{}, nil, err
	}
	return user, cookie, nil
}

type SignInInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// SignIn reports the same ErrInvalidCredentials for an unknown email and a
// wrong password.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (models.User, *http.Cookie, error) {
	email := normalizeEmail(input.Email)

	if err := s.checkThrottle(ctx, email); err != nil {
		return models.User{}, nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.recordFailure(ctx, email)
			return models.User{}, nil, ErrInvalidCredentials
		}
		return models.User{}, nil, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		s.recordFailure(ctx, email)
		return models.User{}, nil, ErrInvalidCredentials
	}

	s.clearFailures(ctx, email)

	_, cookie, err := s.sessions.Issue(ctx, user, input.IPAddress, input.UserAgent)
	if err != nil {
		return models.User{}, nil, err
	}
	return user, cookie, nil
}

// SignOut invalidates the actor's session and returns the blank cookie that
// clears the client token.
func (s *AuthService) SignOut(ctx context.Context, actor auth.Context) (*http.Cookie, error) {
	if err := s.sessions.Invalidate(ctx, actor.Session.ID); err != nil {
		return nil, err
	}
	return s.sessions.BlankCookie(), nil
}

// ChangePassword requires the payload email to match the actor, independent
// of role.
func (s *AuthService) ChangePassword(ctx context.Context, actor auth.Context, email, newPassword string) error {
	if normalizeEmail(email) != actor.User.Email {
		return ErrEmailMismatch
	}
	if len(newPassword) < s.cfg.Security.MinPasswordLen {
		return ErrWeakPassword
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	_, err = s.users.Update(ctx, actor.User.ID, repository.UserUpdate{PasswordHash: passwordHash})
	return err
}

func (s *AuthService) ChangeEmail(ctx context.Context, actor auth.Context, newEmail string) (models.User, error) {
	email := normalizeEmail(newEmail)
	return s.users.Update(ctx, actor.User.ID, repository.UserUpdate{Email: &email})
}

func (s *AuthService) ChangeName(ctx context.Context, actor auth.Context, newName string) (models.User, error) {
	name := strings.TrimSpace(newName)
	return s.users.Update(ctx, actor.User.ID, repository.UserUpdate{FullName: &name})
}

// Account returns the actor's user row and linked customer profile, if any.
func (s *AuthService) Account(ctx context.Context, actor auth.Context) (models.User, *models.Customer, error) {
	user, err := s.users.GetByID(ctx, actor.User.ID)
	if err != nil {
		return models.User{}, nil, err
	}

	customer, err := s.customers.FindByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			return user, nil, nil
		}
		return models.User{}, nil, err
	}
	return user, &customer, nil
}

func (s *AuthService) checkThrottle(ctx context.Context, email string) error {
	if s.cache == nil {
		return nil
	}
	count, err := s.cache.Get(ctx, throttleKey(email)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("sign-in throttle read failed")
		return nil
	}
	if count >= s.cfg.Security.LoginMaxFailures {
		return ErrTooManyAttempts
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	key := throttleKey(email)
	if err := s.cache.Incr(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Msg("sign-in throttle incr failed")
		return
	}
	s.cache.Expire(ctx, key, s.cfg.Security.LoginWindow)
}

func (s *AuthService) clearFailures(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	s.cache.Del(ctx, throttleKey(email))
}

func throttleKey(email string) string {
	return fmt.Sprintf("auth:fail:%s", email)
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
