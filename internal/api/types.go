// Package api defines the wire messages of the AccountManager API. The same
// types are carried by gRPC (JSON codec) and by the REST gateway.
package api

import "time"

// Empty is a request or response without fields.
type Empty struct{}

// User is the public view of an account.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	TelegramID *int64 `json:"telegram_id,omitempty"`
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Password   string `json:"password"`
	TelegramID *int64 `json:"telegram_id,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken      string    `json:"access"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             User      `json:"user"`
}

// RefreshRequest exchanges a refresh token for a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh"`
}

type RefreshResponse struct {
	AccessToken string    `json:"access"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserRef addresses a user by id.
type UserRef struct {
	UserID string `json:"user_id"`
}

type UpdateUserRequest struct {
	UserID     string  `json:"user_id"`
	Username   *string `json:"username,omitempty"`
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	TelegramID *int64  `json:"telegram_id,omitempty"`
}

// Project is a user's workspace. LocalID and Slug are assigned by the server.
type Project struct {
	LocalID     int64     `json:"local_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectDetail is a project with its credentials and tasks.
type ProjectDetail struct {
	Project
	Credentials []Credential `json:"credentials"`
	Tasks       []Task       `json:"tasks"`
}

type ProjectList struct {
	Projects []Project `json:"projects"`
}

// ProjectRef addresses a user's project by slug.
type ProjectRef struct {
	UserID string `json:"user_id"`
	Slug   string `json:"slug"`
}

type CreateProjectRequest struct {
	UserID      string  `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type UpdateProjectRequest struct {
	UserID      string  `json:"user_id"`
	Slug        string  `json:"slug"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// Credential carries the decrypted password.
type Credential struct {
	LocalID     int64   `json:"local_id"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	ServiceName string  `json:"service_name"`
	Username    *string `json:"username"`
	PhoneNumber *string `json:"phone_number"`
	LoginURL    *string `json:"login_url"`
}

type CredentialList struct {
	Credentials []Credential `json:"credentials"`
}

// ItemRef addresses a credential or task by project slug and local id.
type ItemRef struct {
	UserID  string `json:"user_id"`
	Slug    string `json:"slug"`
	LocalID int64  `json:"local_id"`
}

type CreateCredentialRequest struct {
	UserID      string  `json:"user_id"`
	Slug        string  `json:"slug"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	ServiceName string  `json:"service_name"`
	Username    *string `json:"username,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	LoginURL    *string `json:"login_url,omitempty"`
}

type UpdateCredentialRequest struct {
	UserID      string  `json:"user_id"`
	Slug        string  `json:"slug"`
	LocalID     int64   `json:"local_id"`
	Email       *string `json:"email,omitempty"`
	Password    *string `json:"password,omitempty"`
	ServiceName *string `json:"service_name,omitempty"`
	Username    *string `json:"username,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	LoginURL    *string `json:"login_url,omitempty"`
}

type Task struct {
	LocalID     int64      `json:"local_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	RemindAt    *time.Time `json:"remind_at"`
	IsActive    bool       `json:"is_active"`
}

type TaskList struct {
	Tasks []Task `json:"tasks"`
}

type CreateTaskRequest struct {
	UserID      string     `json:"user_id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	RemindAt    *time.Time `json:"remind_at,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}

type UpdateTaskRequest struct {
	UserID      string     `json:"user_id"`
	Slug        string     `json:"slug"`
	LocalID     int64      `json:"local_id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	RemindAt    *time.Time `json:"remind_at,omitempty"`
	IsActive    *bool      `json:"is_active,omitempty"`
}
