package repository

import (
	"context"

	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
)

// CredentialRepository stores encrypted credentials scoped by project.
type CredentialRepository interface {
	ident.LocalIDSource

	// Create inserts a credential with local id assigned and password encrypted.
	// A (project, local_id) clash yields errs.ErrIdentifierCollision.
	Create(ctx context.Context, c *model.Credential) error
	// Update writes all mutable fields; local id is never written.
	Update(ctx context.Context, c *model.Credential) error
	// Get loads a credential by project and local id.
	Get(ctx context.Context, projectID uuid.UUID, localID int64) (*model.Credential, error)
	// List returns the project's credentials ordered by local id.
	List(ctx context.Context, projectID uuid.UUID) ([]model.Credential, error)
	// Delete removes a credential.
	Delete(ctx context.Context, id uuid.UUID) error
}
