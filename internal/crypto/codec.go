package crypto

import (
	"crypto/cipher"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/and161185/account-manager/internal/errs"
)

const (
	codecVersion = "v1"
	codecPrefix  = codecVersion + "."
)

// Codec encrypts credential secrets with XChaCha20-Poly1305 under one
// process-wide key. Safe for concurrent use.
//
// Ciphertext format: "v1." + base64url(nonce || sealed), AAD = "v1".
type Codec struct {
	aead cipher.AEAD
}

// NewCodec constructs a codec for a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, errs.ErrMissingEncryptionKey
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce, so equal inputs produce
// different outputs.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce, err := RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+c.aead.Overhead())
	out = append(out, nonce...)
	out = c.aead.Seal(out, nonce, []byte(plaintext), []byte(codecVersion))
	return codecPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Decrypt opens a value produced by Encrypt. Any malformed input, wrong key or
// tampered data yields errs.ErrInvalidCiphertext.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	body, ok := strings.CutPrefix(ciphertext, codecPrefix)
	if !ok {
		return "", errs.ErrInvalidCiphertext
	}
	blob, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", errs.ErrInvalidCiphertext
	}
	if len(blob) < chacha20poly1305.NonceSizeX+c.aead.Overhead() {
		return "", errs.ErrInvalidCiphertext
	}
	nonce := blob[:chacha20poly1305.NonceSizeX]
	ct := blob[chacha20poly1305.NonceSizeX:]
	pt, err := c.aead.Open(nil, nonce, ct, []byte(codecVersion))
	if err != nil {
		return "", errs.ErrInvalidCiphertext
	}
	return string(pt), nil
}

// IsCiphertext reports whether value decrypts under the current key.
// It costs one decryption attempt and has no side effects.
func (c *Codec) IsCiphertext(value string) bool {
	_, err := c.Decrypt(value)
	return err == nil
}
