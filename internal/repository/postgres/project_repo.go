package postgres

import (
	"context"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ProjectRepo implements ProjectRepository using PostgreSQL.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectCols = `id, user_id, local_id, slug, title, description, is_active, created_at`

// MaxLocalID returns the largest project local id of the scope's user.
func (r *ProjectRepo) MaxLocalID(ctx context.Context, scope ident.Scope) (int64, error) {
	return maxLocalID(ctx, r.db, scope)
}

// SlugsLike returns the user's slugs equal to base or prefixed by base + "-".
// LIKE wildcards in base may widen the result; callers treat it as a set.
func (r *ProjectRepo) SlugsLike(ctx context.Context, scope ident.Scope, base string) ([]string, error) {
	const q = `
SELECT slug FROM projects
WHERE user_id=$1 AND (slug=$2 OR slug LIKE $2 || '-%')`
	rows, err := r.db.Pool.Query(ctx, q, scope.ParentID, base)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a project whose slug and local id are already assigned.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	const q = `
INSERT INTO projects (id, user_id, local_id, slug, title, description, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.UserID, p.LocalID, p.Slug, p.Title, p.Description, p.IsActive).
		Scan(&p.CreatedAt)
	return mapWriteErr(err)
}

// Update writes the mutable project fields.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	const q = `UPDATE projects SET title=$2, description=$3, is_active=$4 WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, p.ID, p.Title, p.Description, p.IsActive)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// GetBySlug selects a user's project by slug.
func (r *ProjectRepo) GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*model.Project, error) {
	return getProjectBySlug(ctx, r.db.Pool, userID, slug)
}

// detailTxOptions gives the detail read a single snapshot of the three tables.
var detailTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// Detail loads the project, its credentials and its tasks in one read-only transaction.
func (r *ProjectRepo) Detail(ctx context.Context, userID uuid.UUID, slug string) (d *model.ProjectDetail, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, detailTxOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			d, err = nil, e
		}
	}()

	p, err := getProjectBySlug(ctx, tx, userID, slug)
	if err != nil {
		return nil, err
	}
	d = &model.ProjectDetail{Project: *p}
	if d.Credentials, err = listCredentials(ctx, tx, p.ID); err != nil {
		return nil, err
	}
	if d.Tasks, err = listTasks(ctx, tx, p.ID); err != nil {
		return nil, err
	}
	return d, nil
}

func getProjectBySlug(ctx context.Context, q querier, userID uuid.UUID, slug string) (*model.Project, error) {
	stmt := `SELECT ` + projectCols + ` FROM projects WHERE user_id=$1 AND slug=$2`
	var p model.Project
	err := q.QueryRow(ctx, stmt, userID, slug).Scan(
		&p.ID, &p.UserID, &p.LocalID, &p.Slug, &p.Title, &p.Description, &p.IsActive, &p.CreatedAt,
	)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &p, nil
}

// List returns the user's projects ordered by local id.
func (r *ProjectRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects WHERE user_id=$1 ORDER BY local_id`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.LocalID, &p.Slug, &p.Title, &p.Description, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a project; credentials and tasks cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "projects", id)
}
