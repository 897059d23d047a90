package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"garbanzo/internal/auth"
	"garbanzo/internal/domain"
	"garbanzo/internal/domain/models"
	"garbanzo/internal/domain/repositories"
)

// Service handles user registration, login, and lookup.
type Service struct {
	users  repositories.UserRepository
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

// NewService creates a new auth service.
func NewService(users repositories.UserRepository, tokens *auth.TokenIssuer, logger *slog.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// RegisterRequest carries a registration attempt.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// Validate checks the registration fields. The 72-byte password ceiling is
// bcrypt's input limit.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.FullName, validation.Length(0, 100)),
	)
}

// Register creates a new account. Returns domain.ErrConflict when the
// email is already taken.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:          strings.ToLower(req.Email),
		HashedPassword: hashed,
		FullName:       req.FullName,
		CreatedAt:      time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "email", user.Email)
	return user, nil
}

// Login verifies credentials and returns a signed access token. A missing
// user and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return "", fmt.Errorf("%w: incorrect email or password", domain.ErrUnauthorized)
	}
	if !auth.VerifyPassword(password, user.HashedPassword) {
		return "", fmt.Errorf("%w: incorrect email or password", domain.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// GetUser returns the account for the given email.
func (s *Service) GetUser(ctx context.Context, email string) (*models.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(email))
}
