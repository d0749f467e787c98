package postgres

import (
	"context"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TaskRepo implements TaskRepository using PostgreSQL.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

const taskCols = `id, project_id, local_id, title, description, remind_at, is_active`

// MaxLocalID returns the largest task local id of the scope's project.
func (r *TaskRepo) MaxLocalID(ctx context.Context, scope ident.Scope) (int64, error) {
	return maxLocalID(ctx, r.db, scope)
}

// Create inserts a task.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (id, project_id, local_id, title, description, remind_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Pool.Exec(ctx, q, t.ID, t.ProjectID, t.LocalID, t.Title, t.Description, t.RemindAt, t.IsActive)
	return mapWriteErr(err)
}

// Update writes every mutable task field.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	const q = `UPDATE tasks SET title=$2, description=$3, remind_at=$4, is_active=$5 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, t.ID, t.Title, t.Description, t.RemindAt, t.IsActive)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Get selects a task by project and local id.
func (r *TaskRepo) Get(ctx context.Context, projectID uuid.UUID, localID int64) (*model.Task, error) {
	q := `SELECT ` + taskCols + ` FROM tasks WHERE project_id=$1 AND local_id=$2`
	t, err := scanTask(r.db.Pool.QueryRow(ctx, q, projectID, localID))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return t, nil
}

// List returns the project's tasks ordered by local id.
func (r *TaskRepo) List(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return listTasks(ctx, r.db.Pool, projectID)
}

func listTasks(ctx context.Context, q querier, projectID uuid.UUID) ([]model.Task, error) {
	rows, err := q.Query(ctx, `SELECT `+taskCols+` FROM tasks WHERE project_id=$1 ORDER BY local_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Delete removes a task.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "tasks", id)
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	if err := row.Scan(&t.ID, &t.ProjectID, &t.LocalID, &t.Title, &t.Description, &t.RemindAt, &t.IsActive); err != nil {
		return nil, err
	}
	return &t, nil
}
