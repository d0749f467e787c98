package postgres

import (
	"context"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// CredentialRepo implements CredentialRepository using PostgreSQL.
// Password values arrive and leave as ciphertext.
type CredentialRepo struct{ db *DB }

// NewCredentialRepo constructs a credential repository.
func NewCredentialRepo(db *DB) *CredentialRepo { return &CredentialRepo{db: db} }

const credentialCols = `id, project_id, local_id, email, password, service_name, username, phone_number, login_url`

// MaxLocalID returns the largest credential local id of the scope's project.
func (r *CredentialRepo) MaxLocalID(ctx context.Context, scope ident.Scope) (int64, error) {
	return maxLocalID(ctx, r.db, scope)
}

// Create inserts a credential.
func (r *CredentialRepo) Create(ctx context.Context, c *model.Credential) error {
	const q = `
INSERT INTO credentials (id, project_id, local_id, email, password, service_name, username, phone_number, login_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Pool.Exec(ctx, q,
		c.ID, c.ProjectID, c.LocalID, c.Email, c.Password, c.ServiceName, c.Username, c.PhoneNumber, c.LoginURL)
	return mapWriteErr(err)
}

// Update writes every mutable credential field.
func (r *CredentialRepo) Update(ctx context.Context, c *model.Credential) error {
	const q = `
UPDATE credentials
SET email=$2, password=$3, service_name=$4, username=$5, phone_number=$6, login_url=$7
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, c.ID, c.Email, c.Password, c.ServiceName, c.Username, c.PhoneNumber, c.LoginURL)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Get selects a credential by project and local id.
func (r *CredentialRepo) Get(ctx context.Context, projectID uuid.UUID, localID int64) (*model.Credential, error) {
	q := `SELECT ` + credentialCols + ` FROM credentials WHERE project_id=$1 AND local_id=$2`
	c, err := scanCredential(r.db.Pool.QueryRow(ctx, q, projectID, localID))
	if err != nil {
		return nil, mapReadErr(err)
	}
	return c, nil
}

// List returns the project's credentials ordered by local id.
func (r *CredentialRepo) List(ctx context.Context, projectID uuid.UUID) ([]model.Credential, error) {
	return listCredentials(ctx, r.db.Pool, projectID)
}

func listCredentials(ctx context.Context, q querier, projectID uuid.UUID) ([]model.Credential, error) {
	rows, err := q.Query(ctx, `SELECT `+credentialCols+` FROM credentials WHERE project_id=$1 ORDER BY local_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Delete removes a credential.
func (r *CredentialRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "credentials", id)
}

func scanCredential(row pgx.Row) (*model.Credential, error) {
	var c model.Credential
	if err := row.Scan(&c.ID, &c.ProjectID, &c.LocalID, &c.Email, &c.Password, &c.ServiceName,
		&c.Username, &c.PhoneNumber, &c.LoginURL); err != nil {
		return nil, err
	}
	return &c, nil
}
