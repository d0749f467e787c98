package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"

	"github.com/and161185/account-manager/internal/api"
	pkgcrypto "github.com/and161185/account-manager/internal/crypto"
)

// ------- session -------

type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	cc     *grpc.ClientConn
	cli    *api.Client
	userID string
}

func (s *session) close() {
	_ = s.cc.Close()
	s.cancel()
}

// openSession dials with the saved token, renewing it first when only the
// access token has expired.
func openSession(c conn) *session {
	tf, err := loadToken()
	if errors.Is(err, errAccessExpired) {
		tf, err = refreshToken(c, tf)
	}
	if err != nil {
		fail(err)
	}
	ctx, cancel := withTimeout()
	cc, cli, err := c.dial(ctx, tf.AccessToken)
	if err != nil {
		cancel()
		fail(err)
	}
	return &session{ctx: ctx, cancel: cancel, cc: cc, cli: cli, userID: tf.UserID}
}

// ------- flag helpers -------

// setFlags reports the flags given on the command line, so patches carry only those.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func optStr(set map[string]bool, name, v string) *string {
	if !set[name] {
		return nil
	}
	return &v
}

func optBool(set map[string]bool, name string, v bool) *bool {
	if !set[name] {
		return nil
	}
	return &v
}

// parseRemindAt accepts RFC 3339 or "2006-01-02 15:04" in local time.
func parseRemindAt(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("bad -remind %q: want RFC3339 or YYYY-MM-DD HH:MM", s)
	}
	return &t, nil
}

// passwordArg returns -p, or the content of -p-file ('-' = stdin) without the trailing newline.
func passwordArg(p, file string) (string, error) {
	if file == "" {
		return p, nil
	}
	if p != "" {
		return "", errors.New("use either -p or -p-file")
	}
	b, err := readAll(file)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}

// ------- account -------

func cmdKeygen() {
	k, err := pkgcrypto.GenerateKey()
	if err != nil {
		fail(err)
	}
	fmt.Printf("%s=%s\n", pkgcrypto.EnvEncryptionKey, k)
}

func cmdRegister(c conn, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("e", "", "email")
	p := fs.String("p", "", "password")
	username := fs.String("username", "", "username")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	telegram := fs.Int64("telegram", 0, "telegram id")
	_ = fs.Parse(args)
	need(*email != "" && *p != "", "need -e and -p")

	req := &api.RegisterRequest{Email: *email, Password: *p, Username: *username, FirstName: *first, LastName: *last}
	if setFlags(fs)["telegram"] {
		req.TelegramID = telegram
	}

	ctx, cancel := withTimeout()
	defer cancel()
	cc, cli, err := c.dial(ctx, "")
	if err != nil {
		fail(err)
	}
	defer cc.Close()

	u, err := cli.Register(ctx, req)
	if err != nil {
		fail(err)
	}
	printJSON(u)
}

func cmdLogin(c conn, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("e", "", "email")
	p := fs.String("p", "", "password")
	_ = fs.Parse(args)
	need(*email != "" && *p != "", "need -e and -p")

	ctx, cancel := withTimeout()
	defer cancel()
	cc, cli, err := c.dial(ctx, "")
	if err != nil {
		fail(err)
	}
	defer cc.Close()

	resp, err := cli.Login(ctx, &api.LoginRequest{Email: *email, Password: *p})
	if err != nil {
		fail(err)
	}
	tf := tokenFile{
		AccessToken:      resp.AccessToken,
		ExpiresAt:        resp.ExpiresAt,
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresAt: resp.RefreshExpiresAt,
		UserID:           resp.User.ID,
	}
	if err := saveToken(tf); err != nil {
		fail(err)
	}
	fmt.Printf("ok, token valid until %s\n", tsString(&resp.ExpiresAt))
}

// refreshToken exchanges the saved refresh token and stores the new access token.
func refreshToken(c conn, tf tokenFile) (tokenFile, error) {
	ctx, cancel := withTimeout()
	defer cancel()
	cc, cli, err := c.dial(ctx, "")
	if err != nil {
		return tokenFile{}, err
	}
	defer cc.Close()

	resp, err := cli.Refresh(ctx, &api.RefreshRequest{RefreshToken: tf.RefreshToken})
	if err != nil {
		return tokenFile{}, err
	}
	tf = renewed(tf, resp)
	return tf, saveToken(tf)
}

func renewed(tf tokenFile, resp *api.RefreshResponse) tokenFile {
	tf.AccessToken, tf.ExpiresAt = resp.AccessToken, resp.ExpiresAt
	return tf
}

func cmdRefresh(c conn) {
	tf, err := loadToken()
	if err != nil && !errors.Is(err, errAccessExpired) {
		fail(err)
	}
	need(tf.canRefresh(time.Now()), "no refresh token (login required)")
	if tf, err = refreshToken(c, tf); err != nil {
		fail(err)
	}
	fmt.Printf("ok, token valid until %s\n", tsString(&tf.ExpiresAt))
}

func cmdWhoami(c conn) {
	s := openSession(c)
	defer s.close()
	u, err := s.cli.GetUser(s.ctx, &api.UserRef{UserID: s.userID})
	if err != nil {
		fail(err)
	}
	printJSON(u)
}

// ------- projects -------

func cmdProjects(c conn, args []string) {
	action, args := subcommand(args)
	fs := flag.NewFlagSet("projects "+action, flag.ExitOnError)
	slug := fs.String("slug", "", "project slug")
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	active := fs.Bool("active", true, "is active")
	_ = fs.Parse(args)
	set := setFlags(fs)

	s := openSession(c)
	defer s.close()
	ref := &api.ProjectRef{UserID: s.userID, Slug: *slug}

	var (
		out any
		err error
	)
	switch action {
	case "list":
		var l *api.ProjectList
		if l, err = s.cli.ListProjects(s.ctx, &api.UserRef{UserID: s.userID}); err == nil {
			out = l.Projects
		}
	case "add":
		need(*title != "", "need -title")
		out, err = s.cli.CreateProject(s.ctx, &api.CreateProjectRequest{
			UserID: s.userID, Title: *title, Description: optStr(set, "desc", *desc), IsActive: optBool(set, "active", *active),
		})
	case "show":
		need(*slug != "", "need -slug")
		out, err = s.cli.GetProject(s.ctx, ref)
	case "edit":
		need(*slug != "", "need -slug")
		out, err = s.cli.UpdateProject(s.ctx, projectPatch(s.userID, *slug, set, *title, *desc, *active))
	case "rm":
		need(*slug != "", "need -slug")
		out, err = s.cli.DeleteProject(s.ctx, ref)
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func projectPatch(userID, slug string, set map[string]bool, title, desc string, active bool) *api.UpdateProjectRequest {
	return &api.UpdateProjectRequest{
		UserID:      userID,
		Slug:        slug,
		Title:       optStr(set, "title", title),
		Description: optStr(set, "desc", desc),
		IsActive:    optBool(set, "active", active),
	}
}

// ------- credentials -------

// credFlags are the credential fields settable from the command line.
type credFlags struct {
	email, password, passwordFile, service, username, phone, url string
}

func cmdCreds(c conn, args []string) {
	action, args := subcommand(args)
	fs := flag.NewFlagSet("creds "+action, flag.ExitOnError)
	slug := fs.String("slug", "", "project slug")
	id := fs.Int64("id", 0, "credential local id")
	var f credFlags
	fs.StringVar(&f.email, "email", "", "account email")
	fs.StringVar(&f.password, "p", "", "password")
	fs.StringVar(&f.passwordFile, "p-file", "", "read password from file ('-'=stdin)")
	fs.StringVar(&f.service, "service", "", "service name")
	fs.StringVar(&f.username, "username", "", "username")
	fs.StringVar(&f.phone, "phone", "", "phone number")
	fs.StringVar(&f.url, "url", "", "login url")
	_ = fs.Parse(args)
	set := setFlags(fs)
	need(*slug != "", "need -slug")

	pw, err := passwordArg(f.password, f.passwordFile)
	if err != nil {
		fail(err)
	}
	if set["p-file"] {
		set["p"] = true
	}
	f.password = pw

	s := openSession(c)
	defer s.close()
	ref := &api.ItemRef{UserID: s.userID, Slug: *slug, LocalID: *id}

	var out any
	switch action {
	case "list":
		var l *api.CredentialList
		if l, err = s.cli.ListCredentials(s.ctx, &api.ProjectRef{UserID: s.userID, Slug: *slug}); err == nil {
			out = l.Credentials
		}
	case "add":
		need(f.email != "" && f.password != "" && f.service != "", "need -email, -p (or -p-file) and -service")
		out, err = s.cli.CreateCredential(s.ctx, &api.CreateCredentialRequest{
			UserID: s.userID, Slug: *slug, Email: f.email, Password: f.password, ServiceName: f.service,
			Username: optStr(set, "username", f.username), PhoneNumber: optStr(set, "phone", f.phone), LoginURL: optStr(set, "url", f.url),
		})
	case "show":
		need(*id > 0, "need -id")
		out, err = s.cli.GetCredential(s.ctx, ref)
	case "edit":
		need(*id > 0, "need -id")
		out, err = s.cli.UpdateCredential(s.ctx, credentialPatch(ref, set, f))
	case "rm":
		need(*id > 0, "need -id")
		out, err = s.cli.DeleteCredential(s.ctx, ref)
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
	printJSON(out)
}

func credentialPatch(ref *api.ItemRef, set map[string]bool, f credFlags) *api.UpdateCredentialRequest {
	return &api.UpdateCredentialRequest{
		UserID:      ref.UserID,
		Slug:        ref.Slug,
		LocalID:     ref.LocalID,
		Email:       optStr(set, "email", f.email),
		Password:    optStr(set, "p", f.password),
		ServiceName: optStr(set, "service", f.service),
		Username:    optStr(set, "username", f.username),
		PhoneNumber: optStr(set, "phone", f.phone),
		LoginURL:    optStr(set, "url", f.url),
	}
}

// ------- tasks -------

func cmdTasks(c conn, args []string) {
	action, args := subcommand(args)
	fs := flag.NewFlagSet("tasks "+action, flag.ExitOnError)
	slug := fs.String("slug", "", "project slug")
	id := fs.Int64("id", 0, "task local id")
	title := fs.String("title", "", "title")
	desc := fs.String("desc", "", "description")
	remind := fs.String("remind", "", "reminder time")
	active := fs.Bool("active", true, "is active")
	_ = fs.Parse(args)
	set := setFlags(fs)
	need(*slug != "", "need -slug")

	remindAt, err := parseRemindAt(*remind)
	if err != nil {
		fail(err)
	}

	s := openSession(c)
	defer s.close()
	ref := &api.ItemRef{UserID: s.userID, Slug: *slug, LocalID: *id}

	var out any
	switch action {
	case "list":
		var l *api.TaskList
		if l, err = s.cli.ListTasks(s.ctx, &api.ProjectRef{UserID: s.userID, Slug: *slug}); err == nil {
			out = l.Tasks
		}
	case "add":
		need(*title != "", "need -title")
		out, err = s.cli.CreateTask(s.ctx, &api.CreateTaskRequest{
			UserID: s.userID, Slug: *slug, Title: *title,
			Description: optStr(set, "desc", *desc), RemindAt: remindAt, IsActive: optBool(set, "active", *active),
		})
	case "show":
		need(*id > 0, "need -id")
		out, err = s.cli.GetTask(s.ctx, ref)
	case "edit":
		need(*id > 0, "need -id")
		out, err = s.cli.UpdateTask(s.ctx, &api.UpdateTaskRequest{
			UserID: ref.UserID, Slug: ref.Slug, LocalID: ref.LocalID,
			Title:       optStr(set, "title", *title),
			Description: optStr(set, "desc", *desc),
			RemindAt:    remindAt,
			IsActive:    optBool(set, "active", *active),
		})
	case "rm":
		need(*id > 0, "need -id")
		out, err = s.cli.DeleteTask(s.ctx, ref)
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
	printJSON(out)
}
