package crypto

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/and161185/account-manager/internal/errs"
)

func testKey(t *testing.T, fill byte) []byte {
	t.Helper()
	return bytes.Repeat([]byte{fill}, 32)
}

func newTestCodec(t *testing.T, fill byte) *Codec {
	t.Helper()
	c, err := NewCodec(testKey(t, fill))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, 7)

	for _, p := range []string{"", "password", "пароль с пробелами", strings.Repeat("x", 4096), "v1.not-really"} {
		ct, err := c.Encrypt(p)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", p, err)
		}
		got, err := c.Decrypt(ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != p {
			t.Fatalf("round trip: got %q, want %q", got, p)
		}
	}
}

func TestCodec_EncryptIsNonDeterministic(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, 7)

	a, err := c.Encrypt("same")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := c.Encrypt("same")
	if err != nil {
		t.Fatalf("Encrypt(2): %v", err)
	}
	if a == b {
		t.Fatalf("two encryptions of the same plaintext are equal: %s", a)
	}
}

func TestCodec_Decrypt_Invalid(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, 7)
	other := newTestCodec(t, 9)

	ct, err := c.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	tampered := []byte(ct)
	tampered[len(tampered)-2] ^= 0x01

	cases := map[string]string{
		"plaintext":  "secret",
		"no prefix":  strings.TrimPrefix(ct, codecPrefix),
		"bad base64": codecPrefix + "!!!",
		"too short":  codecPrefix + base64.RawURLEncoding.EncodeToString([]byte("short")),
		"tampered":   string(tampered),
		"empty":      "",
	}
	for name, in := range cases {
		if _, err := c.Decrypt(in); !errors.Is(err, errs.ErrInvalidCiphertext) {
			t.Fatalf("%s: want ErrInvalidCiphertext, got %v", name, err)
		}
	}

	if _, err := other.Decrypt(ct); !errors.Is(err, errs.ErrInvalidCiphertext) {
		t.Fatalf("wrong key: want ErrInvalidCiphertext, got %v", err)
	}
}

func TestCodec_IsCiphertext(t *testing.T) {
	t.Parallel()
	c := newTestCodec(t, 7)

	ct, err := c.Encrypt("hunter2")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !c.IsCiphertext(ct) {
		t.Fatalf("IsCiphertext(encrypt(p)) = false")
	}
	if c.IsCiphertext("hunter2") {
		t.Fatalf("IsCiphertext(plaintext) = true")
	}
	if newTestCodec(t, 9).IsCiphertext(ct) {
		t.Fatalf("IsCiphertext under another key = true")
	}
}

func TestNewCodec_KeyErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewCodec(nil); !errors.Is(err, errs.ErrMissingEncryptionKey) {
		t.Fatalf("nil key: want ErrMissingEncryptionKey, got %v", err)
	}
	if _, err := NewCodec([]byte("short")); err == nil {
		t.Fatalf("short key: want error")
	}
}
