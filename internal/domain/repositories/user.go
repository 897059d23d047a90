package repositories

import (
	"context"

	"garbanzo/internal/domain/models"
)

// UserRepository persists user accounts keyed by email.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrConflict if the email is taken.
	Create(ctx context.Context, user *models.User) error
	// GetByEmail returns the user, or domain.ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
