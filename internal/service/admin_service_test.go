package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"storefront/api/internal/auth"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

type fakeAdminStore struct {
	usersByID   map[string]models.User
	createCalls int
	deleteCalls int
	updateCalls int
	lastUpdate  repository.UserUpdate
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{usersByID: make(map[string]models.User)}
}

func (f *fakeAdminStore) Create(_ context.Context, user models.User) error {
	f.createCalls++
	for _, existing := range f.usersByID {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	f.usersByID[user.ID] = user
	return nil
}

func (f *fakeAdminStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.usersByID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeAdminStore) List(_ context.Context, limit, offset int) ([]models.User, error) {
	users := make([]models.User, 0, len(f.usersByID))
	for _, user := range f.usersByID {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeAdminStore) Update(_ context.Context, id string, update repository.UserUpdate) (models.User, error) {
	f.updateCalls++
	f.lastUpdate = update

	user, ok := f.usersByID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.FullName != nil {
		user.FullName = *update.FullName
	}
	if update.Role != nil {
		user.Role = *update.Role
	}
	if update.PasswordHash != nil {
		user.PasswordHash = update.PasswordHash
	}
	f.usersByID[id] = user
	return user, nil
}

func (f *fakeAdminStore) Delete(_ context.Context, id string) error {
	f.deleteCalls++
	if _, ok := f.usersByID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.usersByID, id)
	return nil
}

func superadminActor() auth.Context {
	return auth.Context{User: models.User{ID: "root", Role: models.UserRoleSuperadmin}}
}

func adminActor() auth.Context {
	return auth.Context{User: models.User{ID: "mod", Role: models.UserRoleAdmin}}
}

func newTestAdminService() (*AdminService, *fakeAdminStore) {
	store := newFakeAdminStore()
	return NewAdminService(store, testAppConfig(), zerolog.Nop()), store
}

func TestAdminMutationsRequireSuperadmin(t *testing.T) {
	svc, store := newTestAdminService()
	ctx := context.Background()
	store.usersByID["u1"] = models.User{ID: "u1", Email: "a@x.com", Role: models.UserRoleCustomer}

	for _, actor := range []auth.Context{adminActor(), {User: models.User{ID: "c", Role: models.UserRoleCustomer}}} {
		if _, err := svc.CreateUser(ctx, actor, CreateUserInput{Email: "b@x.com", Password: "Secret123!", FullName: "B", Role: "Admin"}); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("CreateUser as %s err = %v, want ErrUnauthorized", actor.User.Role, err)
		}
		if _, err := svc.UpdateUser(ctx, actor, "u1", UpdateUserInput{}); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("UpdateUser as %s err = %v, want ErrUnauthorized", actor.User.Role, err)
		}
		if err := svc.DeleteUser(ctx, actor, "u1"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("DeleteUser as %s err = %v, want ErrUnauthorized", actor.User.Role, err)
		}
		if _, err := svc.ListUsers(ctx, actor, 10, 0); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("ListUsers as %s err = %v, want ErrUnauthorized", actor.User.Role, err)
		}
	}

	if store.createCalls != 0 || store.updateCalls != 0 || store.deleteCalls != 0 {
		t.Error("unauthorized operation reached the store")
	}
}

func TestAdminCreateUser(t *testing.T) {
	svc, store := newTestAdminService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, superadminActor(), CreateUserInput{
		Email:    "Admin@X.com",
		Password: "Secret123!",
		FullName: "New Admin",
		Role:     "Admin",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Email != "admin@x.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if user.Role != models.UserRoleAdmin {
		t.Errorf("role = %q", user.Role)
	}

	ok, err := security.VerifyPassword("Secret123!", store.usersByID[user.ID].PasswordHash)
	if err != nil || !ok {
		t.Error("stored password hash does not verify")
	}

	if _, err := svc.CreateUser(ctx, superadminActor(), CreateUserInput{Email: "admin@x.com", Password: "Secret123!", FullName: "Dup", Role: "Admin"}); !errors.Is(err, repository.ErrEmailTaken) {
		t.Errorf("duplicate err = %v, want ErrEmailTaken", err)
	}

	if _, err := svc.CreateUser(ctx, superadminActor(), CreateUserInput{Email: "b@x.com", Password: "Secret123!", FullName: "B", Role: "Owner"}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role err = %v, want ErrInvalidRole", err)
	}
}

func TestAdminUpdateUserAllowList(t *testing.T) {
	svc, store := newTestAdminService()
	ctx := context.Background()
	store.usersByID["u1"] = models.User{ID: "u1", Email: "a@x.com", FullName: "A", Role: models.UserRoleCustomer}

	role := "Admin"
	name := "Promoted"
	user, err := svc.UpdateUser(ctx, superadminActor(), "u1", UpdateUserInput{FullName: &name, Role: &role})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if user.Role != models.UserRoleAdmin || user.FullName != "Promoted" {
		t.Errorf("update not applied: %+v", user)
	}
	if user.Email != "a@x.com" {
		t.Error("omitted email was modified")
	}
	if store.lastUpdate.Email != nil || store.lastUpdate.PasswordHash != nil {
		t.Error("update touched fields outside the provided set")
	}

	bad := "Owner"
	if _, err := svc.UpdateUser(ctx, superadminActor(), "u1", UpdateUserInput{Role: &bad}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("bad role err = %v, want ErrInvalidRole", err)
	}

	if _, err := svc.UpdateUser(ctx, superadminActor(), "missing", UpdateUserInput{FullName: &name}); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("missing user err = %v, want ErrUserNotFound", err)
	}
}

func TestAdminUpdateUserHashesPassword(t *testing.T) {
	svc, store := newTestAdminService()
	ctx := context.Background()
	store.usersByID["u1"] = models.User{ID: "u1", Email: "a@x.com", Role: models.UserRoleCustomer}

	password := "Rotated123!"
	if _, err := svc.UpdateUser(ctx, superadminActor(), "u1", UpdateUserInput{Password: &password}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	ok, err := security.VerifyPassword(password, store.usersByID["u1"].PasswordHash)
	if err != nil || !ok {
		t.Error("rotated password does not verify")
	}

	weak := "short"
	if _, err := svc.UpdateUser(ctx, superadminActor(), "u1", UpdateUserInput{Password: &weak}); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password err = %v, want ErrWeakPassword", err)
	}
}

func TestAdminDeleteUser(t *testing.T) {
	svc, store := newTestAdminService()
	ctx := context.Background()
	store.usersByID["u1"] = models.User{ID: "u1", Email: "a@x.com", Role: models.UserRoleCustomer}

	if err := svc.DeleteUser(ctx, superadminActor(), "u1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, ok := store.usersByID["u1"]; ok {
		t.Error("user still present after delete")
	}

	if err := svc.DeleteUser(ctx, superadminActor(), "u1"); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("second delete err = %v, want ErrUserNotFound", err)
	}
}
