package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"garbanzo/internal/auth"
	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
)

type memoryUserRepo struct {
	users map[string]*models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*models.User)}
}

func (m *memoryUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrConflict
	}
	m.users[user.Email] = user
	return nil
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func newTestService() *Service {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(newMemoryUserRepo(), tokens, logger)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()

	user, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "Alice@Example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.HashedPassword == "hunter2hunter2" {
		t.Error("password stored as plaintext")
	}

	token, err := svc.Login(context.Background(), "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Error("Login() returned an empty token")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "longenough"}},
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterRequest{Email: "a@b.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), &tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()

	req := &RegisterRequest{Email: "alice@example.com", Password: "hunter2hunter2"}
	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := svc.Register(context.Background(), req); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), "alice@example.com", "wrong-password")
	_, unknownUser := svc.Login(context.Background(), "nobody@example.com", "hunter2hunter2")

	if !errors.Is(wrongPassword, domain.ErrUnauthorized) {
		t.Errorf("wrong password error = %v, want ErrUnauthorized", wrongPassword)
	}
	if !errors.Is(unknownUser, domain.ErrUnauthorized) {
		t.Errorf("unknown user error = %v, want ErrUnauthorized", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("failure messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestGetUser(t *testing.T) {
	svc := newTestService()
	if _, err := svc.Register(context.Background(), &RegisterRequest{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := svc.GetUser(context.Background(), "Alice@Example.com")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	if _, err := svc.GetUser(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetUser() error = %v, want ErrNotFound", err)
	}
}
