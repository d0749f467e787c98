// Package convert maps domain models to API messages and API requests to
// service inputs.
package convert

import (
	"fmt"

	"github.com/and161185/account-manager/internal/api"
	"github.com/and161185/account-manager/internal/errs"
	model "github.com/and161185/account-manager/internal/model"
	"github.com/and161185/account-manager/internal/service"
	u "github.com/gofrs/uuid/v5"
)

// --- ids ---

// ParseUserID parses a path or request user id. A malformed id is a validation error.
func ParseUserID(s string) (u.UUID, error) {
	id, err := u.FromString(s)
	if err != nil || id == u.Nil {
		return u.Nil, fmt.Errorf("%w: bad user id %q", errs.ErrValidation, s)
	}
	return id, nil
}

// --- users ---

// ToAPIUser exposes profile fields only; hashes and salts never leave the server.
func ToAPIUser(m model.User) api.User {
	return api.User{
		ID:         m.ID.String(),
		Email:      m.Email,
		Username:   m.Username,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		TelegramID: m.TelegramID,
	}
}

// FromAPIRegister converts a sign-up request.
func FromAPIRegister(in *api.RegisterRequest) service.RegisterInput {
	return service.RegisterInput{
		Email:      in.Email,
		Username:   in.Username,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Password:   in.Password,
		TelegramID: in.TelegramID,
	}
}

// FromAPIUserUpdate converts a profile patch.
func FromAPIUserUpdate(in *api.UpdateUserRequest) model.UserUpdate {
	return model.UserUpdate{
		Username:   in.Username,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		TelegramID: in.TelegramID,
	}
}

// --- projects ---

func ToAPIProject(m model.Project) api.Project {
	return api.Project{
		LocalID:     m.LocalID,
		Slug:        m.Slug,
		Title:       m.Title,
		Description: m.Description,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
	}
}

func ToAPIProjects(ms []model.Project) []api.Project {
	out := make([]api.Project, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToAPIProject(m))
	}
	return out
}

// ToAPIProjectDetail nests the project's credentials and tasks.
func ToAPIProjectDetail(d model.ProjectDetail) api.ProjectDetail {
	return api.ProjectDetail{
		Project:     ToAPIProject(d.Project),
		Credentials: ToAPICredentials(d.Credentials),
		Tasks:       ToAPITasks(d.Tasks),
	}
}

func FromAPICreateProject(in *api.CreateProjectRequest) service.ProjectInput {
	return service.ProjectInput{Title: in.Title, Description: in.Description, IsActive: in.IsActive}
}

// FromAPIUpdateProject converts a patch. Slug in the request addresses the project
// and is never written.
func FromAPIUpdateProject(in *api.UpdateProjectRequest) model.ProjectUpdate {
	return model.ProjectUpdate{Title: in.Title, Description: in.Description, IsActive: in.IsActive}
}

// --- credentials ---

// ToAPICredential expects m.Password to be already decrypted by the service.
func ToAPICredential(m model.Credential) api.Credential {
	return api.Credential{
		LocalID:     m.LocalID,
		Email:       m.Email,
		Password:    m.Password,
		ServiceName: m.ServiceName,
		Username:    m.Username,
		PhoneNumber: m.PhoneNumber,
		LoginURL:    m.LoginURL,
	}
}

func ToAPICredentials(ms []model.Credential) []api.Credential {
	out := make([]api.Credential, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToAPICredential(m))
	}
	return out
}

func FromAPICreateCredential(in *api.CreateCredentialRequest) service.CredentialInput {
	return service.CredentialInput{
		Email:       in.Email,
		Password:    in.Password,
		ServiceName: in.ServiceName,
		Username:    in.Username,
		PhoneNumber: in.PhoneNumber,
		LoginURL:    in.LoginURL,
	}
}

func FromAPIUpdateCredential(in *api.UpdateCredentialRequest) model.CredentialUpdate {
	return model.CredentialUpdate{
		Email:       in.Email,
		Password:    in.Password,
		ServiceName: in.ServiceName,
		Username:    in.Username,
		PhoneNumber: in.PhoneNumber,
		LoginURL:    in.LoginURL,
	}
}

// --- tasks ---

func ToAPITask(m model.Task) api.Task {
	return api.Task{
		LocalID:     m.LocalID,
		Title:       m.Title,
		Description: m.Description,
		RemindAt:    m.RemindAt,
		IsActive:    m.IsActive,
	}
}

func ToAPITasks(ms []model.Task) []api.Task {
	out := make([]api.Task, 0, len(ms))
	for _, m := range ms {
		out = append(out, ToAPITask(m))
	}
	return out
}

func FromAPICreateTask(in *api.CreateTaskRequest) service.TaskInput {
	return service.TaskInput{Title: in.Title, Description: in.Description, RemindAt: in.RemindAt, IsActive: in.IsActive}
}

func FromAPIUpdateTask(in *api.UpdateTaskRequest) model.TaskUpdate {
	return model.TaskUpdate{Title: in.Title, Description: in.Description, RemindAt: in.RemindAt, IsActive: in.IsActive}
}
