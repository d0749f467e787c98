// Package lifecycle runs the save-time steps that fill derived entity fields:
// row ids, scoped slugs and local ids, and credential password encryption.
//
// Before*Create hooks run once per entity, before its first insert. Derived fields
// that are already populated are left alone, so slug and local id are write-once.
// On failure the entity is left unmodified.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/account-manager/internal/ident"
	"github.com/and161185/account-manager/internal/model"
)

// Cipher is the part of the credential codec the hooks need.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	IsCiphertext(value string) bool
}

// ProjectSiblings reads the sibling set of a user's projects.
type ProjectSiblings interface {
	ident.LocalIDSource
	ident.SlugSource
}

// Hooks holds the collaborators of the save-time steps.
type Hooks struct {
	cipher      Cipher
	projects    ProjectSiblings
	credentials ident.LocalIDSource
	tasks       ident.LocalIDSource
}

// New constructs Hooks.
func New(cipher Cipher, projects ProjectSiblings, credentials, tasks ident.LocalIDSource) *Hooks {
	return &Hooks{cipher: cipher, projects: projects, credentials: credentials, tasks: tasks}
}

// BeforeProjectCreate assigns id, slug (from Title) and local id within the owning user.
func (h *Hooks) BeforeProjectCreate(ctx context.Context, p *model.Project) error {
	scope := ident.Projects(p.UserID)

	id, err := ensureID(p.ID)
	if err != nil {
		return err
	}
	slug := p.Slug
	if slug == "" {
		if slug, err = ident.NextSlug(ctx, h.projects, scope, p.Title); err != nil {
			return err
		}
	}
	localID := p.LocalID
	if localID == 0 {
		if localID, err = ident.NextLocalID(ctx, h.projects, scope); err != nil {
			return err
		}
	}

	p.ID, p.Slug, p.LocalID = id, slug, localID
	return nil
}

// BeforeCredentialSave runs before every credential write. It makes sure Password
// holds ciphertext and, for a new credential, assigns id and local id within the project.
func (h *Hooks) BeforeCredentialSave(ctx context.Context, c *model.Credential) error {
	password, err := h.sealPassword(c)
	if err != nil {
		return err
	}
	id, err := ensureID(c.ID)
	if err != nil {
		return err
	}
	localID := c.LocalID
	if localID == 0 {
		if localID, err = ident.NextLocalID(ctx, h.credentials, ident.Credentials(c.ProjectID)); err != nil {
			return err
		}
	}

	c.ID, c.LocalID = id, localID
	c.Password, c.NewPassword = password, false
	return nil
}

// sealPassword encrypts a freshly assigned password exactly once. Without the
// NewPassword flag it falls back to probing, so stored ciphertext passes through unchanged.
func (h *Hooks) sealPassword(c *model.Credential) (string, error) {
	if !c.NewPassword && h.cipher.IsCiphertext(c.Password) {
		return c.Password, nil
	}
	sealed, err := h.cipher.Encrypt(c.Password)
	if err != nil {
		return "", fmt.Errorf("encrypt password: %w", err)
	}
	return sealed, nil
}

// BeforeTaskCreate assigns id and local id within the owning project.
func (h *Hooks) BeforeTaskCreate(ctx context.Context, t *model.Task) error {
	id, err := ensureID(t.ID)
	if err != nil {
		return err
	}
	localID := t.LocalID
	if localID == 0 {
		if localID, err = ident.NextLocalID(ctx, h.tasks, ident.Tasks(t.ProjectID)); err != nil {
			return err
		}
	}

	t.ID, t.LocalID = id, localID
	return nil
}

func ensureID(id uuid.UUID) (uuid.UUID, error) {
	if id != uuid.Nil {
		return id, nil
	}
	return uuid.NewV4()
}
