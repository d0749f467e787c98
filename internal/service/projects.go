package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/lifecycle"
	"github.com/and161185/account-manager/internal/model"
	"github.com/and161185/account-manager/internal/repository"
)

// ProjectInput carries the caller-supplied fields of a new project.
type ProjectInput struct {
	Title       string
	Description *string
	IsActive    *bool // nil means active
}

// ProjectService defines project operations. actor is the authenticated user;
// userID is the owner addressed by the request.
type ProjectService interface {
	List(ctx context.Context, actor, userID uuid.UUID) ([]model.Project, error)
	Create(ctx context.Context, actor, userID uuid.UUID, in ProjectInput) (*model.Project, error)
	Get(ctx context.Context, actor, userID uuid.UUID, slug string) (*model.Project, error)
	// Detail returns the project with its decrypted credentials and its tasks.
	Detail(ctx context.Context, actor, userID uuid.UUID, slug string) (*model.ProjectDetail, error)
	Update(ctx context.Context, actor, userID uuid.UUID, slug string, upd model.ProjectUpdate) (*model.Project, error)
	Delete(ctx context.Context, actor, userID uuid.UUID, slug string) error
}

type ProjectServiceImpl struct {
	repo    repository.ProjectRepository
	hooks   *lifecycle.Hooks
	codec   Decrypter
	retries int
	log     *zap.Logger
}

// NewProjectService constructs ProjectService. retries bounds re-allocation after
// an identifier collision; 0 surfaces the first collision.
func NewProjectService(
	repo repository.ProjectRepository, hooks *lifecycle.Hooks, codec Decrypter, retries int, log *zap.Logger,
) *ProjectServiceImpl {
	return &ProjectServiceImpl{repo: repo, hooks: hooks, codec: codec, retries: retries, log: log}
}

// List returns the owner's projects ordered by local id.
func (s *ProjectServiceImpl) List(ctx context.Context, actor, userID uuid.UUID) ([]model.Project, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

// Create validates input, allocates slug and local id and inserts the project.
func (s *ProjectServiceImpl) Create(ctx context.Context, actor, userID uuid.UUID, in ProjectInput) (*model.Project, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	var p model.Project
	err := createWithRetry(ctx, s.log, s.retries, "project", func() error {
		p = model.Project{UserID: userID, Title: in.Title, Description: in.Description, IsActive: active}
		if err := s.hooks.BeforeProjectCreate(ctx, &p); err != nil {
			return err
		}
		return s.repo.Create(ctx, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get returns the owner's project by slug.
func (s *ProjectServiceImpl) Get(ctx context.Context, actor, userID uuid.UUID, slug string) (*model.Project, error) {
	return resolveProject(ctx, s.repo, actor, userID, slug)
}

// Detail reads the project, its credentials and its tasks from one snapshot.
func (s *ProjectServiceImpl) Detail(ctx context.Context, actor, userID uuid.UUID, slug string) (*model.ProjectDetail, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	d, err := s.repo.Detail(ctx, userID, slug)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", slug, err)
	}
	for i := range d.Credentials {
		if err := revealPassword(s.codec, s.log, &d.Credentials[i]); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Update patches title, description and active flag. Slug stays as allocated.
func (s *ProjectServiceImpl) Update(ctx context.Context, actor, userID uuid.UUID, slug string, upd model.ProjectUpdate) (*model.Project, error) {
	p, err := resolveProject(ctx, s.repo, actor, userID, slug)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, fmt.Errorf("%w: title is required", errs.ErrValidation)
		}
		p.Title = *upd.Title
	}
	if upd.Description != nil {
		p.Description = upd.Description
	}
	if upd.IsActive != nil {
		p.IsActive = *upd.IsActive
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the project with its credentials and tasks.
func (s *ProjectServiceImpl) Delete(ctx context.Context, actor, userID uuid.UUID, slug string) error {
	p, err := resolveProject(ctx, s.repo, actor, userID, slug)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

// resolveProject checks ownership and loads the scope of nested resources.
func resolveProject(ctx context.Context, repo repository.ProjectRepository, actor, userID uuid.UUID, slug string) (*model.Project, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	p, err := repo.GetBySlug(ctx, userID, slug)
	if err != nil {
		return nil, fmt.Errorf("project %q: %w", slug, err)
	}
	return p, nil
}

var _ ProjectService = (*ProjectServiceImpl)(nil)
