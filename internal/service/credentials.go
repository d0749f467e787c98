package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/lifecycle"
	"github.com/and161185/account-manager/internal/model"
	"github.com/and161185/account-manager/internal/repository"
)

// Decrypter opens stored credential passwords.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// CredentialInput carries the caller-supplied fields of a new credential.
// Password is plaintext.
type CredentialInput struct {
	Email       string
	Password    string
	ServiceName string
	Username    *string
	PhoneNumber *string
	LoginURL    *string
}

// CredentialService defines credential operations within a project.
// Returned credentials carry the decrypted password.
type CredentialService interface {
	List(ctx context.Context, actor, userID uuid.UUID, slug string) ([]model.Credential, error)
	Create(ctx context.Context, actor, userID uuid.UUID, slug string, in CredentialInput) (*model.Credential, error)
	Get(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) (*model.Credential, error)
	Update(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64, upd model.CredentialUpdate) (*model.Credential, error)
	Delete(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) error
}

type CredentialServiceImpl struct {
	projects repository.ProjectRepository
	repo     repository.CredentialRepository
	hooks    *lifecycle.Hooks
	codec    Decrypter
	retries  int
	log      *zap.Logger
}

// NewCredentialService constructs CredentialService.
func NewCredentialService(
	projects repository.ProjectRepository, repo repository.CredentialRepository,
	hooks *lifecycle.Hooks, codec Decrypter, retries int, log *zap.Logger,
) *CredentialServiceImpl {
	return &CredentialServiceImpl{projects: projects, repo: repo, hooks: hooks, codec: codec, retries: retries, log: log}
}

// List returns the project's credentials ordered by local id.
func (s *CredentialServiceImpl) List(ctx context.Context, actor, userID uuid.UUID, slug string) ([]model.Credential, error) {
	p, err := resolveProject(ctx, s.projects, actor, userID, slug)
	if err != nil {
		return nil, err
	}
	cs, err := s.repo.List(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	for i := range cs {
		if err := s.reveal(&cs[i]); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// Create validates input, encrypts the password, allocates a local id and inserts.
func (s *CredentialServiceImpl) Create(ctx context.Context, actor, userID uuid.UUID, slug string, in CredentialInput) (*model.Credential, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.ServiceName) == "" {
		return nil, fmt.Errorf("%w: email, password and service name are required", errs.ErrValidation)
	}
	p, err := resolveProject(ctx, s.projects, actor, userID, slug)
	if err != nil {
		return nil, err
	}

	var c *model.Credential
	err = createWithRetry(ctx, s.log, s.retries, "credential", func() error {
		c = model.NewCredential(p.ID, in.Email, in.Password, in.ServiceName)
		c.Username, c.PhoneNumber, c.LoginURL = in.Username, in.PhoneNumber, in.LoginURL
		if err := s.hooks.BeforeCredentialSave(ctx, c); err != nil {
			return err
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	if err := s.reveal(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one credential by local id.
func (s *CredentialServiceImpl) Get(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) (*model.Credential, error) {
	c, err := s.load(ctx, actor, userID, slug, localID)
	if err != nil {
		return nil, err
	}
	if err := s.reveal(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update patches mutable fields. A new password is encrypted before the write;
// an untouched one is stored as is.
func (s *CredentialServiceImpl) Update(
	ctx context.Context, actor, userID uuid.UUID, slug string, localID int64, upd model.CredentialUpdate,
) (*model.Credential, error) {
	for _, f := range []*string{upd.Email, upd.Password, upd.ServiceName} {
		if f != nil && !nonEmpty(f) {
			return nil, fmt.Errorf("%w: email, password and service name cannot be blank", errs.ErrValidation)
		}
	}
	c, err := s.load(ctx, actor, userID, slug, localID)
	if err != nil {
		return nil, err
	}
	if upd.Email != nil {
		c.Email = *upd.Email
	}
	if upd.Password != nil {
		c.SetPassword(*upd.Password)
	}
	if upd.ServiceName != nil {
		c.ServiceName = *upd.ServiceName
	}
	if upd.Username != nil {
		c.Username = upd.Username
	}
	if upd.PhoneNumber != nil {
		c.PhoneNumber = upd.PhoneNumber
	}
	if upd.LoginURL != nil {
		c.LoginURL = upd.LoginURL
	}

	if err := s.hooks.BeforeCredentialSave(ctx, c); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	if err := s.reveal(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes one credential.
func (s *CredentialServiceImpl) Delete(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) error {
	c, err := s.load(ctx, actor, userID, slug, localID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, c.ID)
}

func (s *CredentialServiceImpl) load(ctx context.Context, actor, userID uuid.UUID, slug string, localID int64) (*model.Credential, error) {
	p, err := resolveProject(ctx, s.projects, actor, userID, slug)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.Get(ctx, p.ID, localID)
	if err != nil {
		return nil, fmt.Errorf("credential %d: %w", localID, err)
	}
	return c, nil
}

// reveal replaces the stored ciphertext with plaintext for the response.
// A value that does not decrypt is fatal, never passed through.
func (s *CredentialServiceImpl) reveal(c *model.Credential) error {
	return revealPassword(s.codec, s.log, c)
}

// revealPassword replaces the stored ciphertext of c with its plaintext.
func revealPassword(codec Decrypter, log *zap.Logger, c *model.Credential) error {
	plain, err := codec.Decrypt(c.Password)
	if err != nil {
		log.Error("credential password does not decrypt",
			zap.String("credential_id", c.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("credential %d: %w", c.LocalID, err)
	}
	c.Password = plain
	return nil
}

func nonEmpty(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }

var _ CredentialService = (*CredentialServiceImpl)(nil)
