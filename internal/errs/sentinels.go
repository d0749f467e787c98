// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity (or the scope it belongs to) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the authenticated user does not own the addressed resource.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a unique constraint violation on a natural key (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrValidation indicates a required field is missing or malformed.
	ErrValidation = errors.New("validation")
)

// Credential codec and identifier allocation sentinels.
var (
	// ErrInvalidCiphertext indicates a value was not produced by the codec under the current key.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrMissingEncryptionKey indicates ENCRYPTION_KEY is absent; fatal at startup.
	ErrMissingEncryptionKey = errors.New("missing encryption key")

	// ErrIdentifierCollision indicates a (scope, local_id) or (user, slug) uniqueness violation.
	ErrIdentifierCollision = errors.New("identifier collision")
)
