// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepository provides CRUD access for users.
type UserRepository interface {
	// Create inserts a new user; a taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by login email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update writes profile fields of an existing user.
	Update(ctx context.Context, u *model.User) error
	// Delete removes a user; projects, credentials and tasks cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}
