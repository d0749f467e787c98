package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/lifecycle"
	"github.com/and161185/account-manager/internal/model"
	"github.com/and161185/account-manager/internal/repository"
)

// TaskInput carries the caller-supplied fields of a new task.
type TaskInput struct {
	Title       string
	Description *string
	RemindAt    *time.Time
	IsActive    *bool // nil means active
}

// TaskService defines task operations within a project.
type TaskService interface {
	List(ctx context.Context, actor, userID uuid.UUID, slug string) ([]model.Task, error)
	Create(ctx context.Context, actor, userID uuid.UUID, slug string, in TaskInput) (*model.Task, error)
	Get(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) (*model.Task, error)
	Update(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64, upd model.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) error
}

type TaskServiceImpl struct {
	projects repository.ProjectRepository
	repo     repository.TaskRepository
	hooks    *lifecycle.Hooks
	retries  int
	log      *zap.Logger
}

// NewTaskService constructs TaskService.
func NewTaskService(
	projects repository.ProjectRepository, repo repository.TaskRepository,
	hooks *lifecycle.Hooks, retries int, log *zap.Logger,
) *TaskServiceImpl {
	return &TaskServiceImpl{projects: projects, repo: repo, hooks: hooks, retries: retries, log: log}
}

// List returns the project's tasks ordered by local id.
func (s *TaskServiceImpl) List(ctx context.Context, actor, userID uuid.UUID, slug string) ([]model.Task, error) {
	p, err := resolveProject(ctx, s.projects, actor, userID, slug)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, p.ID)
}

// Create validates input, allocates a local id and inserts the task.
func (s *TaskServiceImpl) Create(ctx context.Context, actor, userID uuid.UUID, slug string, in TaskInput) (*model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	p, err := resolveProject(ctx, s.projects, actor, userID, slug)
	if err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	var t model.Task
	err = createWithRetry(ctx, s.log, s.retries, "task", func() error {
		t = model.Task{ProjectID: p.ID, Title: in.Title, Description: in.Description, RemindAt: in.RemindAt, IsActive: active}
		if err := s.hooks.BeforeTaskCreate(ctx, &t); err != nil {
			return err
		}
		return s.repo.Create(ctx, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get returns one task by local id.
func (s *TaskServiceImpl) Get(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) (*model.Task, error) {
	return s.load(ctx, actor, userID, slug, localID)
}

// Update patches mutable fields; local id stays as allocated.
func (s *TaskServiceImpl) Update(
	ctx context.Context, actor, userID uuid.UUID, slug string, localID int64, upd model.TaskUpdate,
) (*model.Task, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	t, err := s.load(ctx, actor, userID, slug, localID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = upd.Description
	}
	if upd.RemindAt != nil {
		t.RemindAt = upd.RemindAt
	}
	if upd.IsActive != nil {
		t.IsActive = *upd.IsActive
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes one task.
func (s *TaskServiceImpl) Delete(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) error {
	t, err := s.load(ctx, actor, userID, slug, localID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, t.ID)
}

func (s *TaskServiceImpl) load(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) (*model.Task, error) {
	p, err := resolveProject(ctx, s.projects, actor, userID, slug)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, p.ID, localID)
	if err != nil {
		return nil, fmt.Errorf("task %d: %w", localID, err)
	}
	return t, nil
}

var _ TaskService = (*TaskServiceImpl)(nil)
