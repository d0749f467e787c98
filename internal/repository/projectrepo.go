package repository

import (
	"context"

	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ProjectRepository stores projects scoped by user.
type ProjectRepository interface {
	ident.LocalIDSource
	ident.SlugSource

	// Create inserts a project with slug and local id already assigned.
	// A (user, slug) or (user, local_id) clash yields errs.ErrIdentifierCollision.
	Create(ctx context.Context, p *model.Project) error
	// Update writes title, description and is_active. Slug and local id are never written.
	Update(ctx context.Context, p *model.Project) error
	// GetBySlug loads a user's project by slug.
	GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*model.Project, error)
	// Detail loads a user's project by slug with its credentials and tasks,
	// all from one read transaction. Passwords stay encrypted.
	Detail(ctx context.Context, userID uuid.UUID, slug string) (*model.ProjectDetail, error)
	// List returns the user's projects ordered by local id.
	List(ctx context.Context, userID uuid.UUID) ([]model.Project, error)
	// Delete removes a project; its credentials and tasks cascade.
	Delete(ctx context.Context, id uuid.UUID) error
}
