// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Tokens collects issued access/refresh tokens.
type Tokens struct {
	AccessToken      string
	ExpiresAt        time.Time // access token expiry (for diagnostics)
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// User is the identity root. Email is the login identifier.
type User struct {
	ID         uuid.UUID // PK
	Email      string    // unique
	Username   string
	FirstName  string
	LastName   string
	TelegramID *int64
	PwdHash    []byte // Argon2id(password, SaltAuth)
	SaltAuth   []byte // per-user auth salt
	CreatedAt  time.Time
}

// UserUpdate is a partial update of profile fields; nil means unchanged.
type UserUpdate struct {
	Username   *string
	FirstName  *string
	LastName   *string
	TelegramID *int64
}

// Project is a named workspace owned by a single user.
// Slug and LocalID are assigned once on creation and never change.
type Project struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	LocalID     int64
	Slug        string
	Title       string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
}

// ProjectDetail is a project together with its credentials and tasks,
// read at one point in time.
type ProjectDetail struct {
	Project     Project
	Credentials []Credential
	Tasks       []Task
}

// ProjectUpdate carries the mutable project fields only.
type ProjectUpdate struct {
	Title       *string
	Description *string
	IsActive    *bool
}

// Credential is a service secret belonging to a project.
// Password holds ciphertext once persisted.
type Credential struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	LocalID     int64
	Email       string
	Password    string
	ServiceName string
	Username    *string
	PhoneNumber *string
	LoginURL    *string

	// NewPassword marks Password as freshly assigned plaintext that must be encrypted
	// before the next write. It is never persisted.
	NewPassword bool
}

// NewCredential builds an unsaved credential holding a plaintext password.
func NewCredential(projectID uuid.UUID, email, password, serviceName string) *Credential {
	return &Credential{
		ProjectID:   projectID,
		Email:       email,
		Password:    password,
		ServiceName: serviceName,
		NewPassword: true,
	}
}

// SetPassword assigns a new plaintext password.
func (c *Credential) SetPassword(plaintext string) {
	c.Password = plaintext
	c.NewPassword = true
}

// CredentialUpdate carries the mutable credential fields only. Password is plaintext.
type CredentialUpdate struct {
	Email       *string
	Password    *string
	ServiceName *string
	Username    *string
	PhoneNumber *string
	LoginURL    *string
}

// Task is a reminder/to-do belonging to a project.
type Task struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	LocalID     int64
	Title       string
	Description *string
	RemindAt    *time.Time
	IsActive    bool
}

// TaskUpdate carries the mutable task fields only.
type TaskUpdate struct {
	Title       *string
	Description *string
	RemindAt    *time.Time
	IsActive    *bool
}
