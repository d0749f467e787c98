// Package service contains application services for accounts, projects,
// credentials and tasks.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgcrypto "github.com/and161185/account-manager/internal/crypto"
	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/model"
	"github.com/and161185/account-manager/internal/repository"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
)

// RegisterInput carries sign-up fields.
type RegisterInput struct {
	Email      string
	Username   string
	FirstName  string
	LastName   string
	Password   string
	TelegramID *int64
}

// AuthService defines account and authentication operations.
type AuthService interface {
	// Register creates a new user with secure password hashing.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	// Login authenticates by email and password and issues an access/refresh pair.
	Login(ctx context.Context, email, password string) (model.Tokens, model.User, error)
	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (model.Tokens, error)
	// Authenticate verifies an access token and returns its user id.
	Authenticate(token string) (uuid.UUID, error)
	// GetUser returns the user's own profile.
	GetUser(ctx context.Context, actor, userID uuid.UUID) (*model.User, error)
	// UpdateUser patches the user's own profile.
	UpdateUser(ctx context.Context, actor, userID uuid.UUID, upd model.UserUpdate) (*model.User, error)
	// DeleteUser removes the user with everything they own.
	DeleteUser(ctx context.Context, actor, userID uuid.UUID) error
}

// Token types carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenClaims are the claims of issued tokens. Access and refresh tokens share
// the signing key, so Type keeps one from being accepted as the other.
type TokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type AuthServiceImpl struct {
	users      repository.UserRepository
	signKey    []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL, refreshTTL time.Duration) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Register creates a new user record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	pwdHash, saltAuth, err := pkgcrypto.HashAccountPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:         uid,
		Email:      in.Email,
		Username:   in.Username,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		TelegramID: in.TelegramID,
		PwdHash:    pwdHash,
		SaltAuth:   saltAuth,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login authenticates by email. Unknown email and wrong password look the same.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (model.Tokens, model.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, model.User{}, errs.ErrUnauthorized
		}
		return model.Tokens{}, model.User{}, err
	}
	if !pkgcrypto.VerifyAccountPassword(password, u.SaltAuth, u.PwdHash) {
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	access, exp, err := s.issueToken(u.ID, TokenAccess, s.accessTTL)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	refresh, refreshExp, err := s.issueToken(u.ID, TokenRefresh, s.refreshTTL)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: exp, RefreshToken: refresh, RefreshExpiresAt: refreshExp}, *u, nil
}

// Refresh issues a new access token for the subject of a valid refresh token.
// The refresh token itself is not rotated. A deleted user cannot refresh.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (model.Tokens, error) {
	claims, err := s.verify(refreshToken, TokenRefresh)
	if err != nil {
		return model.Tokens{}, err
	}
	userID, err := uuid.FromString(claims.Subject)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Tokens{}, fmt.Errorf("%w: unknown user", errs.ErrUnauthorized)
		}
		return model.Tokens{}, err
	}

	access, exp, err := s.issueToken(userID, TokenAccess, s.accessTTL)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{
		AccessToken:      access,
		ExpiresAt:        exp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// issueToken creates a signed HS256 JWT of the given type for the subject.
func (s *AuthServiceImpl) issueToken(userID uuid.UUID, typ string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := TokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	return signed, exp, err
}

// verify checks signature, expiry and token type.
func (s *AuthServiceImpl) verify(token, typ string) (*TokenClaims, error) {
	var claims TokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", errs.ErrUnauthorized)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: want %s token", errs.ErrUnauthorized, typ)
	}
	return &claims, nil
}

// Authenticate verifies an HS256 access token and returns its subject as a user id.
func (s *AuthServiceImpl) Authenticate(token string) (uuid.UUID, error) {
	claims, err := s.verify(token, TokenAccess)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", errs.ErrUnauthorized)
	}
	return id, nil
}

// GetUser returns the user's own profile.
func (s *AuthServiceImpl) GetUser(ctx context.Context, actor, userID uuid.UUID) (*model.User, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateUser patches profile fields; email and password are not editable here.
func (s *AuthServiceImpl) UpdateUser(ctx context.Context, actor, userID uuid.UUID, upd model.UserUpdate) (*model.User, error) {
	if err := authorize(actor, userID); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.TelegramID != nil {
		u.TelegramID = upd.TelegramID
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the user; projects, credentials and tasks cascade.
func (s *AuthServiceImpl) DeleteUser(ctx context.Context, actor, userID uuid.UUID) error {
	if err := authorize(actor, userID); err != nil {
		return err
	}
	return s.users.Delete(ctx, userID)
}

// authorize allows a user to address only their own resources.
func authorize(actor, owner uuid.UUID) error {
	if actor == uuid.Nil {
		return errs.ErrUnauthorized
	}
	if actor != owner {
		return errs.ErrForbidden
	}
	return nil
}

var _ AuthService = (*AuthServiceImpl)(nil)
