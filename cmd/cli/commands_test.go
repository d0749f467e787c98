package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/and161185/account-manager/internal/api"
)

func parsed(t *testing.T, args ...string) (*flag.FlagSet, *credFlags) {
	t.Helper()
	fs := flag.NewFlagSet("t", flag.ContinueOnError)
	var f credFlags
	fs.StringVar(&f.email, "email", "", "")
	fs.StringVar(&f.password, "p", "", "")
	fs.StringVar(&f.service, "service", "", "")
	fs.StringVar(&f.username, "username", "", "")
	fs.StringVar(&f.phone, "phone", "", "")
	fs.StringVar(&f.url, "url", "", "")
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse: %v", err)
	}
	return fs, &f
}

func Test_credentialPatch_OnlyGivenFlags(t *testing.T) {
	t.Parallel()

	fs, f := parsed(t, "-p", "new", "-username", "")
	ref := &api.ItemRef{UserID: "u", Slug: "s", LocalID: 3}
	req := credentialPatch(ref, setFlags(fs), *f)

	if req.LocalID != 3 || req.Slug != "s" || req.UserID != "u" {
		t.Fatalf("ref mismatch: %+v", req)
	}
	if req.Password == nil || *req.Password != "new" {
		t.Fatalf("password must be set: %+v", req.Password)
	}
	if req.Username == nil || *req.Username != "" {
		t.Fatalf("explicit empty username must be sent to clear it")
	}
	if req.Email != nil || req.ServiceName != nil || req.PhoneNumber != nil || req.LoginURL != nil {
		t.Fatalf("unset flags must stay nil: %+v", req)
	}
}

func Test_projectPatch(t *testing.T) {
	t.Parallel()

	set := map[string]bool{"active": true}
	req := projectPatch("u", "work", set, "ignored", "ignored", false)
	if req.Title != nil || req.Description != nil {
		t.Fatalf("unset fields leaked: %+v", req)
	}
	if req.IsActive == nil || *req.IsActive {
		t.Fatalf("active=false must be sent")
	}
}

func Test_parseRemindAt(t *testing.T) {
	t.Parallel()

	if got, err := parseRemindAt(""); err != nil || got != nil {
		t.Fatalf("empty: %v %v", got, err)
	}
	got, err := parseRemindAt("2030-01-02T03:04:05Z")
	if err != nil || !got.Equal(time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("rfc3339: %v %v", got, err)
	}
	got, err = parseRemindAt("2030-01-02 03:04")
	if err != nil || got.Hour() != 3 || got.Location() != time.Local {
		t.Fatalf("local: %v %v", got, err)
	}
	if _, err := parseRemindAt("tomorrow"); err == nil {
		t.Fatalf("want error on free text")
	}
}

func Test_passwordArg(t *testing.T) {
	t.Parallel()

	if p, err := passwordArg("x", ""); err != nil || p != "x" {
		t.Fatalf("flag: %q %v", p, err)
	}
	file := filepath.Join(t.TempDir(), "pw")
	_ = os.WriteFile(file, []byte("from file\n"), 0o600)
	if p, err := passwordArg("", file); err != nil || p != "from file" {
		t.Fatalf("file: %q %v", p, err)
	}
	if _, err := passwordArg("x", file); err == nil {
		t.Fatalf("want error when both given")
	}
}

func Test_canRefresh_And_renewed(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tf := tokenFile{AccessToken: "old", UserID: "u", RefreshToken: "ref", RefreshExpiresAt: now.Add(time.Hour)}
	if !tf.canRefresh(now) {
		t.Fatalf("valid refresh token should be usable")
	}
	if tf.canRefresh(now.Add(2 * time.Hour)) {
		t.Fatalf("expired refresh token must not be usable")
	}
	if (tokenFile{RefreshExpiresAt: now.Add(time.Hour)}).canRefresh(now) {
		t.Fatalf("missing refresh token must not be usable")
	}

	exp := now.Add(15 * time.Minute)
	got := renewed(tf, &api.RefreshResponse{AccessToken: "new", ExpiresAt: exp})
	if got.AccessToken != "new" || !got.ExpiresAt.Equal(exp) || got.RefreshToken != "ref" || got.UserID != "u" {
		t.Fatalf("renewed: %+v", got)
	}
}
