package sqlite

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/account-manager/internal/model"
)

type userRow struct {
	ID         uuid.UUID `db:"id"`
	Email      string    `db:"email"`
	Username   string    `db:"username"`
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	TelegramID *int64    `db:"telegram_id"`
	PwdHash    []byte    `db:"pwd_hash"`
	SaltAuth   []byte    `db:"salt_auth"`
	CreatedAt  time.Time `db:"created_at"`
}

func fromUser(u *model.User) userRow {
	return userRow{
		ID: u.ID, Email: u.Email, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName,
		TelegramID: u.TelegramID, PwdHash: u.PwdHash, SaltAuth: u.SaltAuth, CreatedAt: u.CreatedAt,
	}
}

func (r userRow) model() *model.User {
	return &model.User{
		ID: r.ID, Email: r.Email, Username: r.Username, FirstName: r.FirstName, LastName: r.LastName,
		TelegramID: r.TelegramID, PwdHash: r.PwdHash, SaltAuth: r.SaltAuth, CreatedAt: r.CreatedAt,
	}
}

type projectRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	LocalID     int64     `db:"local_id"`
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

func fromProject(p *model.Project) projectRow {
	return projectRow{
		ID: p.ID, UserID: p.UserID, LocalID: p.LocalID, Slug: p.Slug, Title: p.Title,
		Description: p.Description, IsActive: p.IsActive, CreatedAt: p.CreatedAt,
	}
}

func (r projectRow) model() model.Project {
	return model.Project{
		ID: r.ID, UserID: r.UserID, LocalID: r.LocalID, Slug: r.Slug, Title: r.Title,
		Description: r.Description, IsActive: r.IsActive, CreatedAt: r.CreatedAt,
	}
}

type credentialRow struct {
	ID          uuid.UUID `db:"id"`
	ProjectID   uuid.UUID `db:"project_id"`
	LocalID     int64     `db:"local_id"`
	Email       string    `db:"email"`
	Password    string    `db:"password"`
	ServiceName string    `db:"service_name"`
	Username    *string   `db:"username"`
	PhoneNumber *string   `db:"phone_number"`
	LoginURL    *string   `db:"login_url"`
}

func fromCredential(c *model.Credential) credentialRow {
	return credentialRow{
		ID: c.ID, ProjectID: c.ProjectID, LocalID: c.LocalID, Email: c.Email, Password: c.Password,
		ServiceName: c.ServiceName, Username: c.Username, PhoneNumber: c.PhoneNumber, LoginURL: c.LoginURL,
	}
}

func (r credentialRow) model() model.Credential {
	return model.Credential{
		ID: r.ID, ProjectID: r.ProjectID, LocalID: r.LocalID, Email: r.Email, Password: r.Password,
		ServiceName: r.ServiceName, Username: r.Username, PhoneNumber: r.PhoneNumber, LoginURL: r.LoginURL,
	}
}

type taskRow struct {
	ID          uuid.UUID  `db:"id"`
	ProjectID   uuid.UUID  `db:"project_id"`
	LocalID     int64      `db:"local_id"`
	Title       string     `db:"title"`
	Description *string    `db:"description"`
	RemindAt    *time.Time `db:"remind_at"`
	IsActive    bool       `db:"is_active"`
}

func fromTask(t *model.Task) taskRow {
	return taskRow{
		ID: t.ID, ProjectID: t.ProjectID, LocalID: t.LocalID, Title: t.Title,
		Description: t.Description, RemindAt: t.RemindAt, IsActive: t.IsActive,
	}
}

func (r taskRow) model() model.Task {
	return model.Task{
		ID: r.ID, ProjectID: r.ProjectID, LocalID: r.LocalID, Title: r.Title,
		Description: r.Description, RemindAt: r.RemindAt, IsActive: r.IsActive,
	}
}
