package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/and161185/account-manager/internal/errs"
)

// EnvEncryptionKey is the environment variable holding the codec secret.
const EnvEncryptionKey = "ENCRYPTION_KEY"

const hkdfInfo = "account-manager/credential-codec"

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadKey reads the process-wide codec key through lookup.
//
// A value that decodes from base64 (URL or standard alphabet, with or without
// padding) to exactly 32 bytes is used as is. Any other non-empty value is
// stretched to 32 bytes with HKDF-SHA256.
func LoadKey(lookup LookupFunc) ([]byte, error) {
	raw, ok := lookup(EnvEncryptionKey)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, errs.ErrMissingEncryptionKey
	}
	if key, ok := decodeKey(raw); ok {
		return key, nil
	}
	return deriveKey([]byte(raw))
}

// GenerateKey returns a new random key in the encoding accepted by LoadKey.
func GenerateKey() (string, error) {
	k, err := RandBytes(chacha20poly1305.KeySize)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(k), nil
}

func decodeKey(s string) ([]byte, bool) {
	for _, enc := range []*base64.Encoding{
		base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding, base64.RawStdEncoding,
	} {
		if b, err := enc.DecodeString(s); err == nil && len(b) == chacha20poly1305.KeySize {
			return b, true
		}
	}
	return nil, false
}

func deriveKey(secret []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(hkdfInfo))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := r.Read(key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
