package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"storefront/api/internal/auth"
	"storefront/api/internal/config"
	"storefront/api/internal/ids"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

var ErrUnauthorized = errors.New("unauthorized")

type AdminUserStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Update(ctx context.Context, id string, update repository.UserUpdate) (models.User, error)
	Delete(ctx context.Context, id string) error
}

// AdminService covers superadmin-only user management. Every operation
// re-checks the actor's role against the session-backed user row, never a
// client claim.
type AdminService struct {
	users AdminUserStore
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAdminService(users AdminUserStore, cfg *config.AppConfig, log zerolog.Logger) *AdminService {
	return &AdminService{
		users: users,
		cfg:   cfg,
		log:   log,
	}
}

type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

func (s *AdminService) CreateUser(ctx context.Context, actor auth.Context, input CreateUserInput) (models.User, error) {
	if err := requireSuperadmin(actor); err != nil {
		return models.User{}, err
	}

	role := models.UserRole(input.Role)
	if !role.Valid() {
		return models.User{}, ErrInvalidRole
	}
	if len(input.Password) < s.cfg.Security.MinPasswordLen {
		return models.User{}, ErrWeakPassword
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        normalizeEmail(input.Email),
		PasswordHash: passwordHash,
		FullName:     input.FullName,
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	s.log.Info().
		Str("actor_id", actor.User.ID).
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("admin user created")
	return user, nil
}

// UpdateUserInput carries only the mutable fields; anything else a client
// sends is dropped before it reaches storage.
type UpdateUserInput struct {
	Email    *string
	FullName *string
	Role     *string
	Password *string
}

func (s *AdminService) UpdateUser(ctx context.Context, actor auth.Context, id string, input UpdateUserInput) (models.User, error) {
	if err := requireSuperadmin(actor); err != nil {
		return models.User{}, err
	}

	var update repository.UserUpdate
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		update.Email = &email
	}
	if input.FullName != nil {
		update.FullName = input.FullName
	}
	if input.Role != nil {
		role := models.UserRole(*input.Role)
		if !role.Valid() {
			return models.User{}, ErrInvalidRole
		}
		update.Role = &role
	}
	if input.Password != nil {
		if len(*input.Password) < s.cfg.Security.MinPasswordLen {
			return models.User{}, ErrWeakPassword
		}
		passwordHash, err := security.HashPassword(*input.Password)
		if err != nil {
			return models.User{}, err
		}
		update.PasswordHash = passwordHash
	}

	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		return models.User{}, err
	}

	s.log.Info().
		Str("actor_id", actor.User.ID).
		Str("user_id", user.ID).
		Msg("admin user updated")
	return user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor auth.Context, id string) error {
	if err := requireSuperadmin(actor); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().
		Str("actor_id", actor.User.ID).
		Str("user_id", id).
		Msg("admin user deleted")
	return nil
}

func (s *AdminService) ListUsers(ctx context.Context, actor auth.Context, limit, offset int) ([]models.User, error) {
	if err := requireSuperadmin(actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx, limit, offset)
}

func requireSuperadmin(actor auth.Context) error {
	if !actor.User.Role.AtLeast(models.UserRoleSuperadmin) {
		return ErrUnauthorized
	}
	return nil
}
