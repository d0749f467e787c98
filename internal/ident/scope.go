// Package ident allocates the per-scope identifiers exposed in URLs:
// sequential local ids and collision-free slugs.
package ident

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
)

// Kind names a family of sibling rows.
type Kind int

const (
	// UserProjects are projects sharing an owning user.
	UserProjects Kind = iota + 1
	// ProjectCredentials are credentials sharing a project.
	ProjectCredentials
	// ProjectTasks are tasks sharing a project.
	ProjectTasks
)

func (k Kind) String() string {
	switch k {
	case UserProjects:
		return "user_projects"
	case ProjectCredentials:
		return "project_credentials"
	case ProjectTasks:
		return "project_tasks"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Scope bounds uniqueness of a local id or slug: a kind of sibling rows under one parent.
type Scope struct {
	Kind     Kind
	ParentID uuid.UUID
}

func (s Scope) String() string { return s.Kind.String() + ":" + s.ParentID.String() }

// Projects returns the scope of a user's projects.
func Projects(userID uuid.UUID) Scope { return Scope{Kind: UserProjects, ParentID: userID} }

// Credentials returns the scope of a project's credentials.
func Credentials(projectID uuid.UUID) Scope { return Scope{Kind: ProjectCredentials, ParentID: projectID} }

// Tasks returns the scope of a project's tasks.
func Tasks(projectID uuid.UUID) Scope { return Scope{Kind: ProjectTasks, ParentID: projectID} }

// LocalIDSource reads the current sibling set of a scope.
type LocalIDSource interface {
	// MaxLocalID returns the largest local id in scope, or 0 when the scope is empty.
	MaxLocalID(ctx context.Context, scope Scope) (int64, error)
}

// SlugSource reads sibling slugs of a scope.
type SlugSource interface {
	// SlugsLike returns slugs in scope equal to base or starting with base + "-".
	SlugsLike(ctx context.Context, scope Scope, base string) ([]string, error)
}
