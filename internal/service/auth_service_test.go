package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"storefront/api/internal/auth"
	"storefront/api/internal/config"
	"storefront/api/internal/models"
	"storefront/api/internal/repository"
	"storefront/api/internal/session"
)

// fakeStore backs users, customers, and sessions in memory for service
// tests. It implements the service store interfaces and the session
// manager's store interfaces.
type fakeStore struct {
	usersByID   map[string]models.User
	customers   map[string]models.Customer // keyed by owning user id
	orphans     []models.Customer          // user_id is null, oldest first
	sessions    map[string]models.Session  // keyed by token hash
	updateCalls int
	lastUpdate  repository.UserUpdate
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		usersByID: make(map[string]models.User),
		customers: make(map[string]models.Customer),
		sessions:  make(map[string]models.Session),
	}
}

func (f *fakeStore) CreateWithCustomer(_ context.Context, user models.User) (bool, error) {
	for _, existing := range f.usersByID {
		if existing.Email == user.Email {
			return false, repository.ErrEmailTaken
		}
	}
	f.usersByID[user.ID] = user

	for i, orphan := range f.orphans {
		if orphan.Email != user.Email {
			continue
		}
		f.orphans = append(f.orphans[:i], f.orphans[i+1:]...)
		orphan.UserID = &user.ID
		orphan.Name = user.FullName
		f.customers[user.ID] = orphan
		return true, nil
	}

	f.customers[user.ID] = models.Customer{
		ID:     "c-" + user.ID,
		UserID: &user.ID,
		Name:   user.FullName,
		Email:  user.Email,
	}
	return false, nil
}

func (f *fakeStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range f.usersByID {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeStore) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.usersByID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) Update(_ context.Context, id string, update repository.UserUpdate) (models.User, error) {
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

func (f *fakeStore) FindByUserID(_ context.Context, userID string) (models.Customer, error) {
	customer, ok := f.customers[userID]
	if !ok {
		return models.Customer{}, repository.ErrCustomerNotFound
	}
	return customer, nil
}

func (f *fakeStore) Create(_ context.Context, session models.Session) error {
	f.sessions[string(session.TokenHash)] = session
	return nil
}

func (f *fakeStore) FindByTokenHash(_ context.Context, tokenHash []byte) (models.Session, error) {
	session, ok := f.sessions[string(tokenHash)]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id string) error {
	for key, session := range f.sessions {
		if session.ID == id {
			delete(f.sessions, key)
		}
	}
	return nil
}

// fakeFailureCounter keeps the sign-in failure counters in memory.
type fakeFailureCounter struct {
	counts map[string]int
	ttls   map[string]time.Duration
}

func newFakeFailureCounter() *fakeFailureCounter {
	return &fakeFailureCounter{
		counts: make(map[string]int),
		ttls:   make(map[string]time.Duration),
	}
}

func (f *fakeFailureCounter) Get(_ context.Context, key string) *redis.StringCmd {
	count, ok := f.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.Itoa(count), nil)
}

func (f *fakeFailureCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counts[key]++
	return redis.NewIntResult(int64(f.counts[key]), nil)
}

func (f *fakeFailureCounter) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeFailureCounter) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.counts, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func testAppConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			SessionCookieName: "store_session",
			SessionTTL:        time.Hour,
			MinPasswordLen:    8,
			LoginMaxFailures:  10,
			LoginWindow:       15 * time.Minute,
		},
	}
}

func newTestAuthService() (*AuthService, *fakeStore, *session.Manager) {
	store := newFakeStore()
	cfg := testAppConfig()
	manager := session.NewManager(store, store, cfg.Security, zerolog.Nop())
	svc := NewAuthService(store, store, manager, nil, cfg, zerolog.Nop())
	return svc, store, manager
}

func TestSignUpCreatesUserAndCustomer(t *testing.T) {
	svc, store, manager := newTestAuthService()
	ctx := context.Background()

	user, cookie, err := svc.SignUp(ctx, SignUpInput{
		Email:    "A@X.com",
		Password: "Secret123!",
		FullName: "A",
		Role:     "Customer",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if user.Email != "a@x.com" {
		t.Errorf("email not normalized: %q", user.Email)
	}
	if len(store.usersByID) != 1 {
		t.Fatalf("users created = %d, want 1", len(store.usersByID))
	}
	if len(store.customers) != 1 {
		t.Fatalf("customers created = %d, want 1", len(store.customers))
	}
	customer := store.customers[user.ID]
	if customer.UserID == nil || *customer.UserID != user.ID {
		t.Error("customer not linked to new user")
	}

	// The issued cookie must resolve back to the new user.
	resolved, _, err := manager.Validate(ctx, cookie.Value)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("session resolves to %q, want %q", resolved.ID, user.ID)
	}
}

func TestSignUpAdoptsOrphanCustomer(t *testing.T) {
	svc, store, _ := newTestAuthService()

	// Two orphan rows share the email; only the oldest one is adopted so a
	// user never ends up linked to more than one customer.
	store.orphans = []models.Customer{
		{ID: "c-orphan-1", Email: "a@x.com", Phone: "123"},
		{ID: "c-orphan-2", Email: "a@x.com"},
	}

	user, _, err := svc.SignUp(context.Background(), SignUpInput{
		Email:    "a@x.com",
		Password: "Secret123!",
		FullName: "A",
		Role:     "Customer",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	customer := store.customers[user.ID]
	if customer.ID != "c-orphan-1" {
		t.Errorf("adopted customer id = %q, want c-orphan-1", customer.ID)
	}
	if customer.UserID == nil || *customer.UserID != user.ID {
		t.Error("adopted customer not linked to new user")
	}
	if len(store.orphans) != 1 || store.orphans[0].ID != "c-orphan-2" {
		t.Errorf("remaining orphans = %+v, want only c-orphan-2", store.orphans)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	input := SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"}
	if _, _, err := svc.SignUp(ctx, input); err != nil {
		t.Fatalf("first SignUp: %v", err)
	}

	_, _, err := svc.SignUp(ctx, input)
	if !errors.Is(err, repository.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
	if len(store.usersByID) != 1 || len(store.customers) != 1 {
		t.Error("duplicate sign-up created records")
	}
	if len(store.sessions) != 1 {
		t.Error("duplicate sign-up issued a session")
	}
}

func TestSignUpRejectsBadInput(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input SignUpInput
		want  error
	}{
		{"unknown role", SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Owner"}, ErrInvalidRole},
		{"superadmin role", SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Superadmin"}, ErrInvalidRole},
		{"short password", SignUpInput{Email: "a@x.com", Password: "short", FullName: "A", Role: "Customer"}, ErrWeakPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := svc.SignUp(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if len(store.usersByID) != 0 {
		t.Error("invalid sign-up created a user")
	}
}

func TestSignInUniformFailureMessage(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	_, _, wrongPassword := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "WrongPass1"})
	_, _, unknownEmail := svc.SignIn(ctx, SignInInput{Email: "nobody@x.com", Password: "Secret123!"})

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Error("failure messages differ between unknown email and wrong password")
	}
}

func newThrottledAuthService() (*AuthService, *fakeFailureCounter, *config.AppConfig) {
	store := newFakeStore()
	cfg := testAppConfig()
	manager := session.NewManager(store, store, cfg.Security, zerolog.Nop())
	counter := newFakeFailureCounter()
	return NewAuthService(store, store, manager, counter, cfg, zerolog.Nop()), counter, cfg
}

func TestSignInThrottlesAfterMaxFailures(t *testing.T) {
	svc, counter, cfg := newThrottledAuthService()
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	for i := 0; i < cfg.Security.LoginMaxFailures; i++ {
		if _, _, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "WrongPass1"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("failure %d err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	// Past the limit even the correct password is rejected.
	if _, _, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "Secret123!"}); !errors.Is(err, ErrTooManyAttempts) {
		t.Errorf("err = %v, want ErrTooManyAttempts", err)
	}

	if ttl := counter.ttls["auth:fail:a@x.com"]; ttl != cfg.Security.LoginWindow {
		t.Errorf("counter window = %v, want %v", ttl, cfg.Security.LoginWindow)
	}
}

func TestSignInSuccessClearsFailures(t *testing.T) {
	svc, counter, _ := newThrottledAuthService()
	ctx := context.Background()

	if _, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, _, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "WrongPass1"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("failure %d err = %v", i+1, err)
		}
	}

	if _, _, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "Secret123!"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, ok := counter.counts["auth:fail:a@x.com"]; ok {
		t.Error("successful sign-in did not clear the failure counter")
	}

	// Counting restarts from zero afterwards.
	if _, _, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "WrongPass1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v", err)
	}
	if counter.counts["auth:fail:a@x.com"] != 1 {
		t.Errorf("counter = %d, want 1", counter.counts["auth:fail:a@x.com"])
	}
}

func TestSignInIssuesResolvableSession(t *testing.T) {
	svc, _, manager := newTestAuthService()
	ctx := context.Background()

	signedUp, _, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	user, cookie, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if user.ID != signedUp.ID {
		t.Errorf("signed-in user = %q, want %q", user.ID, signedUp.ID)
	}

	resolved, _, err := manager.Validate(ctx, cookie.Value)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if resolved.ID != signedUp.ID {
		t.Errorf("cookie resolves to %q, want %q", resolved.ID, signedUp.ID)
	}
}

func TestSignOutInvalidatesSession(t *testing.T) {
	svc, _, manager := newTestAuthService()
	ctx := context.Background()

	user, cookie, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	_, sess, err := manager.Validate(ctx, cookie.Value)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	blank, err := svc.SignOut(ctx, auth.Context{User: user, Session: sess})
	if err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if blank.Value != "" || blank.MaxAge != -1 {
		t.Error("SignOut did not return a blank cookie")
	}

	if _, _, err := manager.Validate(ctx, cookie.Value); !errors.Is(err, session.ErrUnauthenticated) {
		t.Errorf("validate after sign-out err = %v, want ErrUnauthenticated", err)
	}
}

func TestChangePasswordRequiresMatchingEmail(t *testing.T) {
	svc, store, manager := newTestAuthService()
	ctx := context.Background()

	user, cookie, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, sess, _ := manager.Validate(ctx, cookie.Value)
	actor := auth.Context{User: user, Session: sess}

	if err := svc.ChangePassword(ctx, actor, "other@x.com", "NewSecret1!"); !errors.Is(err, ErrEmailMismatch) {
		t.Errorf("err = %v, want ErrEmailMismatch", err)
	}
	if store.updateCalls != 0 {
		t.Error("mismatched email still updated the user")
	}

	if err := svc.ChangePassword(ctx, actor, "A@X.com", "NewSecret1!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if store.lastUpdate.PasswordHash == nil {
		t.Error("password hash not updated")
	}
	if store.lastUpdate.Email != nil || store.lastUpdate.Role != nil {
		t.Error("password change touched fields outside the allow-list")
	}

	if _, _, err := svc.SignIn(ctx, SignInInput{Email: "a@x.com", Password: "NewSecret1!"}); err != nil {
		t.Errorf("sign-in with new password: %v", err)
	}
}

func TestChangeEmailAndName(t *testing.T) {
	svc, _, manager := newTestAuthService()
	ctx := context.Background()

	user, cookie, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, sess, _ := manager.Validate(ctx, cookie.Value)
	actor := auth.Context{User: user, Session: sess}

	updated, err := svc.ChangeEmail(ctx, actor, "New@X.com")
	if err != nil {
		t.Fatalf("ChangeEmail: %v", err)
	}
	if updated.Email != "new@x.com" {
		t.Errorf("email = %q, want new@x.com", updated.Email)
	}

	updated, err = svc.ChangeName(ctx, actor, "  New Name ")
	if err != nil {
		t.Fatalf("ChangeName: %v", err)
	}
	if updated.FullName != "New Name" {
		t.Errorf("full name = %q, want New Name", updated.FullName)
	}
}

func TestAccountIncludesCustomer(t *testing.T) {
	svc, _, manager := newTestAuthService()
	ctx := context.Background()

	user, cookie, err := svc.SignUp(ctx, SignUpInput{Email: "a@x.com", Password: "Secret123!", FullName: "A", Role: "Customer"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	_, sess, _ := manager.Validate(ctx, cookie.Value)

	got, customer, err := svc.Account(ctx, auth.Context{User: user, Session: sess})
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("account user = %q, want %q", got.ID, user.ID)
	}
	if customer == nil {
		t.Fatal("account customer missing")
	}
	if customer.Email != "a@x.com" {
		t.Errorf("customer email = %q", customer.Email)
	}
}
