package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "account-manager")
}

func Test_cfgDir_And_Paths(t *testing.T) {
	_ = withTmpConfig(t)
	got := cfgDir()
	base := os.Getenv("XDG_CONFIG_HOME") + "/account-manager"
	if got != base {
		t.Fatalf("cfgDir=%q, want %q", got, base)
	}
	if !strings.HasPrefix(tokenPath(), base) || !strings.HasSuffix(tokenPath(), "token.json") {
		t.Fatalf("tokenPath unexpected: %s", tokenPath())
	}
}

func Test_token_SaveLoad(t *testing.T) {
	base := withTmpConfig(t)

	if _, err := loadToken(); err == nil {
		t.Fatalf("expected error when token file missing")
	}
	in := tokenFile{AccessToken: "tok", ExpiresAt: time.Now().Add(time.Minute), UserID: "u-1"}
	if err := saveToken(in); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	got, err := loadToken()
	if err != nil || got.AccessToken != "tok" || got.UserID != "u-1" {
		t.Fatalf("loadToken: tf=%+v err=%v", got, err)
	}
	st, err := os.Stat(filepath.Join(base, "token.json"))
	if err != nil || st.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode: %v %v", st, err)
	}

	if err := saveToken(tokenFile{AccessToken: "tok2", ExpiresAt: time.Now().Add(-time.Minute), UserID: "u-1"}); err != nil {
		t.Fatalf("saveToken expired: %v", err)
	}
	if _, err := loadToken(); err == nil {
		t.Fatalf("want error for expired token")
	}

	stale := tokenFile{
		AccessToken: "tok2", ExpiresAt: time.Now().Add(-time.Minute), UserID: "u-1",
		RefreshToken: "ref", RefreshExpiresAt: time.Now().Add(time.Hour),
	}
	if err := saveToken(stale); err != nil {
		t.Fatalf("saveToken stale: %v", err)
	}
	got, err = loadToken()
	if !errors.Is(err, errAccessExpired) || got.RefreshToken != "ref" {
		t.Fatalf("want refreshable token with errAccessExpired, got tf=%+v err=%v", got, err)
	}

	if err := saveToken(tokenFile{AccessToken: "tok3", ExpiresAt: time.Now().Add(time.Minute)}); err != nil {
		t.Fatalf("saveToken no user: %v", err)
	}
	if _, err := loadToken(); err == nil {
		t.Fatalf("want error for token without user id")
	}
}

func Test_readAll_File_And_Stdin(t *testing.T) {
	// file path
	tmp := filepath.Join(t.TempDir(), "f.txt")
	_ = os.WriteFile(tmp, []byte("hello"), 0o600)
	b, err := readAll(tmp)
	if err != nil || string(b) != "hello" {
		t.Fatalf("readAll(file): %q %v", b, err)
	}

	// stdin
	r, w, _ := os.Pipe()
	old := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = old }()
	go func() { _, _ = io.WriteString(w, "from-stdin"); _ = w.Close() }()
	b, err = readAll("-")
	if err != nil || string(b) != "from-stdin" {
		t.Fatalf("readAll(stdin): %q %v", b, err)
	}
}

func Test_printJSON_WritesPretty(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() { os.Stdout = old }()

	printJSON(map[string]any{"a": 1})
	_ = w.Close()
	out, _ := io.ReadAll(r)

	var m map[string]any
	if json.Unmarshal(out, &m) != nil || m["a"] != float64(1) {
		t.Fatalf("printJSON produced invalid json: %s", string(out))
	}
	if !bytes.Contains(out, []byte("\n")) {
		t.Fatalf("printJSON should indent")
	}
}

func Test_tsString(t *testing.T) {
	t.Parallel()

	if tsString(nil) != "" || tsString(&time.Time{}) != "" {
		t.Fatalf("nil or zero time should be empty string")
	}
	now := time.Now().UTC().Truncate(time.Second)
	s := tsString(&now)
	if !strings.Contains(s, now.Format("2006-01-02")) {
		t.Fatalf("tsString output unexpected: %s", s)
	}
}

func Test_bearerCreds_Metadata(t *testing.T) {
	t.Parallel()

	b := bearerCreds{token: "T", secure: true}
	md, err := b.GetRequestMetadata(context.Background())
	if err != nil {
		t.Fatalf("GetRequestMetadata: %v", err)
	}
	if md["authorization"] != "Bearer T" {
		t.Fatalf("auth header mismatch: %v", md)
	}
	if !b.RequireTransportSecurity() {
		t.Fatalf("bearerCreds must require TLS unless plaintext")
	}
	if (bearerCreds{token: "T"}).RequireTransportSecurity() {
		t.Fatalf("plaintext bearerCreds must not require TLS")
	}
}

func Test_loadTLS_Variants(t *testing.T) {
	t.Parallel()

	// insecure
	creds, err := loadTLS("", true)
	if err != nil || creds == nil {
		t.Fatalf("insecure: %v %v", creds, err)
	}

	// system default (no caPath)
	creds, err = loadTLS("", false)
	if err != nil || creds == nil {
		t.Fatalf("default tls: %v %v", creds, err)
	}

	// bad CA file
	tmp := filepath.Join(t.TempDir(), "bad.pem")
	_ = os.WriteFile(tmp, []byte("not pem"), 0o600)
	creds, err = loadTLS(tmp, false)
	if err == nil || creds != nil {
		t.Fatalf("bad CA should error, got creds=%v err=%v", creds, err)
	}
}

func Test_subcommand(t *testing.T) {
	t.Parallel()

	action, rest := subcommand([]string{"add", "-title", "x"})
	if action != "add" || len(rest) != 2 {
		t.Fatalf("subcommand: %q %v", action, rest)
	}
}
