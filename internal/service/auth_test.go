package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/snippet-store/internal/apperror"
	"github.com/sakif/snippet-store/internal/auth"
	"github.com/sakif/snippet-store/internal/model"
	"github.com/sakif/snippet-store/internal/repository"
)

// =========================================================================
// MOCK USER REPOSITORY
// =========================================================================

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", user.Email)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	result := []model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	result := []model.User{}
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	repo := newMockUserRepo()
	svc := NewAuthService(repo, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
	return svc, repo
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	svc, repo := newTestAuthService(t)

	result, err := svc.Register(context.Background(), "ada", "Ada@Example.COM", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if result.Token == "" {
		t.Error("Register() issued no token")
	}
	if result.User.Email != "ada@example.com" {
		t.Errorf("Register() email = %q, want lowercased", result.User.Email)
	}
	if result.User.PasswordHash == "secret123" {
		t.Error("Register() stored the plaintext password")
	}

	stored, err := repo.GetByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("user was not persisted: %v", err)
	}
	if stored.Username != "ada" {
		t.Errorf("stored username = %q, want ada", stored.Username)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, repo := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "ada", "ada@example.com", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "imposter", "ada@example.com", "other456")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Register() duplicate error = %v, want ErrValidation", err)
	}
	if len(repo.users) != 1 {
		t.Errorf("duplicate registration left %d users, want 1", len(repo.users))
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestAuthService(t)

	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"empty username", "", "a@b.com", "pw"},
		{"empty email", "ada", "", "pw"},
		{"email without at", "ada", "not-an-email", "pw"},
		{"empty password", "ada", "a@b.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), "ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), "ADA@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() issued no token")
	}
	if result.User.ID != registered.User.ID {
		t.Errorf("Login() user id = %q, want %q", result.User.ID, registered.User.ID)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "ada", "ada@example.com", "secret123"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// USER LOOKUP TESTS
// =========================================================================

func TestGetUserByID(t *testing.T) {
	svc, _ := newTestAuthService(t)

	registered, err := svc.Register(context.Background(), "ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := svc.GetUserByID(context.Background(), registered.User.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Username != "ada" {
		t.Errorf("GetUserByID() username = %q, want ada", got.Username)
	}

	if _, err := svc.GetUserByID(context.Background(), "no-such-id"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() for unknown id = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetUserByID(context.Background(), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("GetUserByID() for empty id = %v, want ErrValidation", err)
	}
}

func TestListUsers(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "ada", "ada@example.com", "pw1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(context.Background(), "grace", "grace@example.com", "pw2"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers() returned %d users, want 2", len(users))
	}
}
