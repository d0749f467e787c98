package repository

import (
	"context"

	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TaskRepository stores tasks scoped by project.
type TaskRepository interface {
	ident.LocalIDSource

	// Create inserts a task with local id assigned.
	// A (project, local_id) clash yields errs.ErrIdentifierCollision.
	Create(ctx context.Context, t *model.Task) error
	// Update writes all mutable fields; local id is never written.
	Update(ctx context.Context, t *model.Task) error
	// Get loads a task by project and local id.
	Get(ctx context.Context, projectID uuid.UUID, localID int64) (*model.Task, error)
	// List returns the project's tasks ordered by local id.
	List(ctx context.Context, projectID uuid.UUID) ([]model.Task, error)
	// Delete removes a task.
	Delete(ctx context.Context, id uuid.UUID) error
}
