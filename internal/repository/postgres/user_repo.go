package postgres

import (
	"context"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, email, username, first_name, last_name, telegram_id, pwd_hash, salt_auth, created_at`

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, username, first_name, last_name, telegram_id, pwd_hash, salt_auth)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.Username, u.FirstName, u.LastName, u.TelegramID, u.PwdHash, u.SaltAuth)
	return mapWriteErr(err)
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE id=$1`
	return r.scanOne(ctx, q, id)
}

// GetByEmail selects a user by login email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users WHERE email=$1`
	return r.scanOne(ctx, q, email)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	err := r.db.Pool.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.TelegramID, &u.PwdHash, &u.SaltAuth, &u.CreatedAt,
	)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return &u, nil
}

// Update writes profile fields. Email and password hash are not touched.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	const q = `
UPDATE users SET username=$2, first_name=$3, last_name=$4, telegram_id=$5
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, u.ID, u.Username, u.FirstName, u.LastName, u.TelegramID)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes a user; owned rows cascade.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, "users", id)
}
