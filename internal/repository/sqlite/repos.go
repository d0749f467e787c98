package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jmoiron/sqlx"

	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
)

// UserRepo implements UserRepository on SQLite.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, username, first_name, last_name, telegram_id, pwd_hash, salt_auth)
VALUES (:id, :email, :username, :first_name, :last_name, :telegram_id, :pwd_hash, :salt_auth)`
	_, err := r.db.x.NamedExecContext(ctx, q, fromUser(u))
	return mapWriteErr(err)
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var row userRow
	if err := r.db.x.GetContext(ctx, &row, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, mapReadErr(err)
	}
	return row.model(), nil
}

// GetByEmail selects a user by login email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	if err := r.db.x.GetContext(ctx, &row, `SELECT * FROM users WHERE email = ?`, email); err != nil {
		return nil, mapReadErr(err)
	}
	return row.model(), nil
}

// Update writes profile fields.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	const q = `
UPDATE users SET username = :username, first_name = :first_name, last_name = :last_name, telegram_id = :telegram_id
WHERE id = :id`
	return expectOne(r.db.x.NamedExecContext(ctx, q, fromUser(u)))
}

// Delete removes a user; owned rows cascade.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "users", id)
}

// ProjectRepo implements ProjectRepository on SQLite.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

// MaxLocalID returns the largest project local id of the scope's user.
func (r *ProjectRepo) MaxLocalID(ctx context.Context, scope ident.Scope) (int64, error) {
	return maxLocalID(ctx, r.db, scope)
}

// SlugsLike returns the user's slugs equal to base or prefixed by base + "-".
func (r *ProjectRepo) SlugsLike(ctx context.Context, scope ident.Scope, base string) ([]string, error) {
	var out []string
	err := r.db.x.SelectContext(ctx, &out,
		`SELECT slug FROM projects WHERE user_id = ? AND (slug = ? OR slug LIKE ? || '-%')`,
		scope.ParentID, base, base)
	return out, err
}

// Create inserts a project whose slug and local id are already assigned.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	const q = `
INSERT INTO projects (id, user_id, local_id, slug, title, description, is_active)
VALUES (:id, :user_id, :local_id, :slug, :title, :description, :is_active)`
	if _, err := r.db.x.NamedExecContext(ctx, q, fromProject(p)); err != nil {
		return mapWriteErr(err)
	}
	return r.db.x.GetContext(ctx, &p.CreatedAt, `SELECT created_at FROM projects WHERE id = ?`, p.ID)
}

// Update writes the mutable project fields.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	const q = `UPDATE projects SET title = :title, description = :description, is_active = :is_active WHERE id = :id`
	return expectOne(r.db.x.NamedExecContext(ctx, q, fromProject(p)))
}

// GetBySlug selects a user's project by slug.
func (r *ProjectRepo) GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (*model.Project, error) {
	return getProjectBySlug(ctx, r.db.x, userID, slug)
}

// Detail loads the project, its credentials and its tasks in one read-only transaction.
func (r *ProjectRepo) Detail(ctx context.Context, userID uuid.UUID, slug string) (*model.ProjectDetail, error) {
	tx, err := r.db.x.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := getProjectBySlug(ctx, tx, userID, slug)
	if err != nil {
		return nil, err
	}
	d := &model.ProjectDetail{Project: *p}
	if d.Credentials, err = listCredentials(ctx, tx, p.ID); err != nil {
		return nil, err
	}
	if d.Tasks, err = listTasks(ctx, tx, p.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d, nil
}

func getProjectBySlug(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID, slug string) (*model.Project, error) {
	var row projectRow
	err := sqlx.GetContext(ctx, q, &row, `SELECT * FROM projects WHERE user_id = ? AND slug = ?`, userID, slug)
	if err != nil {
		return nil, mapReadErr(err)
	}
	p := row.model()
	return &p, nil
}

// List returns the user's projects ordered by local id.
func (r *ProjectRepo) List(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	var rows []projectRow
	if err := r.db.x.SelectContext(ctx, &rows, `SELECT * FROM projects WHERE user_id = ? ORDER BY local_id`, userID); err != nil {
		return nil, err
	}
	out := make([]model.Project, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// Delete removes a project; credentials and tasks cascade.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "projects", id)
}

// CredentialRepo implements CredentialRepository on SQLite.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

// MaxLocalID returns the largest credential local id of the scope's project.
func (r *CredentialRepo) MaxLocalID(ctx context.Context, scope ident.Scope) (int64, error) {
	return maxLocalID(ctx, r.db, scope)
}

// Create inserts a credential.
func (r *CredentialRepo) Create(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials (id, project_id, local_id, email, password, service_name, username, phone_number, login_url)
VALUES (:id, :project_id, :local_id, :email, :password, :service_name, :username, :phone_number, :login_url)`
	_, err := r.db.x.NamedExecContext(ctx, q, fromCredential(c))
	return mapWriteErr(err)
}

// Update writes every mutable credential field.
func (r *CredentialRepo) Update(ctx context.Context, c *model.Credential) error {
	const q = `
UPDATE credentials
SET email = :email, password = :password, service_name = :service_name,
    username = :username, phone_number = :phone_number, login_url = :login_url
WHERE id = :id`
	return expectOne(r.db.x.NamedExecContext(ctx, q, fromCredential(c)))
}

// Get selects a credential by project and local id.
func (r *CredentialRepo) Get(ctx context.Context, projectID uuid.UUID, localID int64) (*model.Credential, error) {
	var row credentialRow
	err := r.db.x.GetContext(ctx, &row, `SELECT * FROM credentials WHERE project_id = ? AND local_id = ?`, projectID, localID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	c := row.model()
	return &c, nil
}

// List returns the project's credentials ordered by local id.
func (r *CredentialRepo) List(ctx context.Context, projectID uuid.UUID) ([]model.Credential, error) {
	return listCredentials(ctx, r.db.x, projectID)
}

func listCredentials(ctx context.Context, q sqlx.QueryerContext, projectID uuid.UUID) ([]model.Credential, error) {
	var rows []credentialRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT * FROM credentials WHERE project_id = ? ORDER BY local_id`, projectID); err != nil {
		return nil, err
	}
	out := make([]model.Credential, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// Delete removes a credential.
func (r *CredentialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "credentials", id)
}

// TaskRepo implements TaskRepository on SQLite.
type TaskRepo struct{ db *DB }

// NewTaskRepo constructs a task repository.
func NewTaskRepo(db *DB) *TaskRepo { return &TaskRepo{db: db} }

// MaxLocalID returns the largest task local id of the scope's project.
func (r *TaskRepo) MaxLocalID(ctx context.Context, scope ident.Scope) (int64, error) {
	return maxLocalID(ctx, r.db, scope)
}

// Create inserts a task.
func (r *TaskRepo) Create(ctx context.Context, t *model.Task) error {
	const q = `
INSERT INTO tasks (id, project_id, local_id, title, description, remind_at, is_active)
VALUES (:id, :project_id, :local_id, :title, :description, :remind_at, :is_active)`
	_, err := r.db.x.NamedExecContext(ctx, q, fromTask(t))
	return mapWriteErr(err)
}

// Update writes every mutable task field.
func (r *TaskRepo) Update(ctx context.Context, t *model.Task) error {
	const q = `
UPDATE tasks SET title = :title, description = :description, remind_at = :remind_at, is_active = :is_active
WHERE id = :id`
	return expectOne(r.db.x.NamedExecContext(ctx, q, fromTask(t)))
}

// Get selects a task by project and local id.
func (r *TaskRepo) Get(ctx context.Context, projectID uuid.UUID, localID int64) (*model.Task, error) {
	var row taskRow
	err := r.db.x.GetContext(ctx, &row, `SELECT * FROM tasks WHERE project_id = ? AND local_id = ?`, projectID, localID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	t := row.model()
	return &t, nil
}

// List returns the project's tasks ordered by local id.
func (r *TaskRepo) List(ctx context.Context, projectID uuid.UUID) ([]model.Task, error) {
	return listTasks(ctx, r.db.x, projectID)
}

func listTasks(ctx context.Context, q sqlx.QueryerContext, projectID uuid.UUID) ([]model.Task, error) {
	var rows []taskRow
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT * FROM tasks WHERE project_id = ? ORDER BY local_id`, projectID); err != nil {
		return nil, err
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

// Delete removes a task.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "tasks", id)
}
