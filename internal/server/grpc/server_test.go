package grpcserver

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/and161185/account-manager/internal/api"
	pkgcrypto "github.com/and161185/account-manager/internal/crypto"
	"github.com/and161185/account-manager/internal/lifecycle"
	"github.com/and161185/account-manager/internal/repository/sqlite"
	"github.com/and161185/account-manager/internal/service"
)

const bufSize = 1 << 20

type stack struct {
	srv      *Server
	codec    *pkgcrypto.Codec
	projects *sqlite.ProjectRepo
	creds    *sqlite.CredentialRepo
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	codec, err := pkgcrypto.NewCodec(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	log := zaptest.NewLogger(t)
	users := sqlite.NewUserRepo(db)
	projects := sqlite.NewProjectRepo(db)
	creds := sqlite.NewCredentialRepo(db)
	tasks := sqlite.NewTaskRepo(db)
	hooks := lifecycle.New(codec, projects, creds, tasks)

	srv := New(
		service.NewAuthService(users, []byte("test-secret"), time.Minute, time.Hour),
		service.NewProjectService(projects, hooks, codec, 0, log),
		service.NewCredentialService(projects, creds, hooks, codec, 0, log),
		service.NewTaskService(projects, tasks, hooks, 0, log),
		log,
	)
	return &stack{srv: srv, codec: codec, projects: projects, creds: creds}
}

func startBufGRPC(t *testing.T, srv *Server) (*api.Client, func()) {
	t.Helper()
	log := zaptest.NewLogger(t)
	lis := bufconn.Listen(bufSize)
	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoverUnary(log),
		LoggingUnary(log),
		AuthUnary(srv.auth),
	))
	api.RegisterAccountManagerServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	dialer := func(context.Context, string) (net.Conn, error) { return lis.Dial() }
	//nolint:staticcheck // DialContext is supported through 1.x; migrate when grpc.NewClient is stable
	cc, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	stop := func() { _ = cc.Close(); gs.Stop(); _ = lis.Close() }
	return api.NewClient(cc), stop
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if st, ok := status.FromError(err); !ok || st.Code() != code {
		t.Fatalf("want %s, got %v", code, err)
	}
}

// signup registers and logs in, returning the user id and an authorized context.
func signup(t *testing.T, cl *api.Client, email string) (string, context.Context) {
	t.Helper()
	ctx := context.Background()
	u, err := cl.Register(ctx, &api.RegisterRequest{Email: email, Username: "u", Password: "p"})
	if err != nil || u.ID == "" {
		t.Fatalf("register: %v, resp=%+v", err, u)
	}
	lr, err := cl.Login(ctx, &api.LoginRequest{Email: email, Password: "p"})
	if err != nil || lr.AccessToken == "" || lr.User.ID != u.ID {
		t.Fatalf("login: %v, resp=%+v", err, lr)
	}
	return u.ID, metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+lr.AccessToken)
}

func TestServer_E2E_BasicFlow(t *testing.T) {
	t.Parallel()

	st := newStack(t)
	cl, stop := startBufGRPC(t, st.srv)
	defer stop()

	uid, ctx := signup(t, cl, "owner@example.com")

	me, err := cl.GetUser(ctx, &api.UserRef{UserID: uid})
	if err != nil || me.Email != "owner@example.com" {
		t.Fatalf("get user: %v, resp=%+v", err, me)
	}

	p1, err := cl.CreateProject(ctx, &api.CreateProjectRequest{UserID: uid, Title: "Work Accounts"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p1.Slug != "work-accounts" || p1.LocalID != 1 || !p1.IsActive {
		t.Fatalf("bad project: %+v", p1)
	}
	p2, err := cl.CreateProject(ctx, &api.CreateProjectRequest{UserID: uid, Title: "Work accounts"})
	if err != nil || p2.Slug != "work-accounts-1" || p2.LocalID != 2 {
		t.Fatalf("second project: %v, resp=%+v", err, p2)
	}

	c, err := cl.CreateCredential(ctx, &api.CreateCredentialRequest{
		UserID: uid, Slug: p1.Slug, Email: "me@mail.io", Password: "hunter2", ServiceName: "mail",
	})
	if err != nil || c.LocalID != 1 || c.Password != "hunter2" {
		t.Fatalf("create credential: %v, resp=%+v", err, c)
	}
	if _, err := cl.CreateTask(ctx, &api.CreateTaskRequest{UserID: uid, Slug: p1.Slug, Title: "rotate"}); err != nil {
		t.Fatalf("create task: %v", err)
	}

	d, err := cl.GetProject(ctx, &api.ProjectRef{UserID: uid, Slug: p1.Slug})
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if d.Slug != p1.Slug || len(d.Credentials) != 1 || len(d.Tasks) != 1 || d.Credentials[0].Password != "hunter2" {
		t.Fatalf("bad detail: %+v", d)
	}

	title := "Renamed"
	up, err := cl.UpdateProject(ctx, &api.UpdateProjectRequest{UserID: uid, Slug: p1.Slug, Title: &title})
	if err != nil || up.Title != "Renamed" || up.Slug != p1.Slug || up.LocalID != p1.LocalID {
		t.Fatalf("update project: %v, resp=%+v", err, up)
	}

	pw := "correct horse"
	uc, err := cl.UpdateCredential(ctx, &api.UpdateCredentialRequest{UserID: uid, Slug: p1.Slug, LocalID: 1, Password: &pw})
	if err != nil || uc.Password != pw {
		t.Fatalf("update credential: %v, resp=%+v", err, uc)
	}

	if _, err := cl.DeleteTask(ctx, &api.ItemRef{UserID: uid, Slug: p1.Slug, LocalID: 1}); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	_, err = cl.GetTask(ctx, &api.ItemRef{UserID: uid, Slug: p1.Slug, LocalID: 1})
	wantCode(t, err, codes.NotFound)

	if _, err := cl.DeleteProject(ctx, &api.ProjectRef{UserID: uid, Slug: p1.Slug}); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	list, err := cl.ListProjects(ctx, &api.UserRef{UserID: uid})
	if err != nil || len(list.Projects) != 1 || list.Projects[0].Slug != p2.Slug {
		t.Fatalf("list after delete: %v, resp=%+v", err, list)
	}
}

func TestServer_StoresCiphertext(t *testing.T) {
	t.Parallel()

	st := newStack(t)
	cl, stop := startBufGRPC(t, st.srv)
	defer stop()

	uid, ctx := signup(t, cl, "enc@example.com")
	p, err := cl.CreateProject(ctx, &api.CreateProjectRequest{UserID: uid, Title: "Vault"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := cl.CreateCredential(ctx, &api.CreateCredentialRequest{
		UserID: uid, Slug: p.Slug, Email: "e", Password: "plain", ServiceName: "s",
	}); err != nil {
		t.Fatalf("create credential: %v", err)
	}

	all, err := cl.ListCredentials(ctx, &api.ProjectRef{UserID: uid, Slug: p.Slug})
	if err != nil || len(all.Credentials) != 1 || all.Credentials[0].Password != "plain" {
		t.Fatalf("list credentials: %v, resp=%+v", err, all)
	}

	stored, err := st.projects.GetBySlug(context.Background(), uuid.FromStringOrNil(uid), p.Slug)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	c, err := st.creds.Get(context.Background(), stored.ID, 1)
	if err != nil {
		t.Fatalf("load credential: %v", err)
	}
	if c.Password == "plain" || !st.codec.IsCiphertext(c.Password) {
		t.Fatalf("password stored in clear: %q", c.Password)
	}
	if got, err := st.codec.Decrypt(c.Password); err != nil || got != "plain" {
		t.Fatalf("decrypt stored: got=%q err=%v", got, err)
	}
}

func TestServer_ErrorCodes(t *testing.T) {
	t.Parallel()

	st := newStack(t)
	cl, stop := startBufGRPC(t, st.srv)
	defer stop()

	uid, ctx := signup(t, cl, "a@example.com")
	other, _ := signup(t, cl, "b@example.com")

	_, err := cl.Register(context.Background(), &api.RegisterRequest{Email: "a@example.com", Password: "x"})
	wantCode(t, err, codes.AlreadyExists)

	_, err = cl.Register(context.Background(), &api.RegisterRequest{Email: "c@example.com"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = cl.Login(context.Background(), &api.LoginRequest{Email: "a@example.com", Password: "wrong"})
	wantCode(t, err, codes.Unauthenticated)

	_, err = cl.Login(context.Background(), &api.LoginRequest{})
	wantCode(t, err, codes.InvalidArgument)

	_, err = cl.ListProjects(context.Background(), &api.UserRef{UserID: uid})
	wantCode(t, err, codes.Unauthenticated)

	_, err = cl.ListProjects(ctx, &api.UserRef{UserID: other})
	wantCode(t, err, codes.PermissionDenied)

	_, err = cl.ListProjects(ctx, &api.UserRef{UserID: "bad"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = cl.GetProject(ctx, &api.ProjectRef{UserID: uid, Slug: "missing"})
	wantCode(t, err, codes.NotFound)

	_, err = cl.CreateProject(ctx, &api.CreateProjectRequest{UserID: uid, Title: "   "})
	wantCode(t, err, codes.InvalidArgument)

	_, err = cl.CreateCredential(ctx, &api.CreateCredentialRequest{UserID: uid, Slug: "missing", Email: "e", Password: "p", ServiceName: "s"})
	wantCode(t, err, codes.NotFound)
}

func TestServer_DeleteUserCascades(t *testing.T) {
	t.Parallel()

	st := newStack(t)
	cl, stop := startBufGRPC(t, st.srv)
	defer stop()

	uid, ctx := signup(t, cl, "gone@example.com")
	if _, err := cl.CreateProject(ctx, &api.CreateProjectRequest{UserID: uid, Title: "P"}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if _, err := cl.DeleteUser(ctx, &api.UserRef{UserID: uid}); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	_, err := cl.GetUser(ctx, &api.UserRef{UserID: uid})
	wantCode(t, err, codes.NotFound)
	_, err = cl.Login(context.Background(), &api.LoginRequest{Email: "gone@example.com", Password: "p"})
	wantCode(t, err, codes.Unauthenticated)
}

func TestServer_Refresh(t *testing.T) {
	t.Parallel()

	st := newStack(t)
	cl, stop := startBufGRPC(t, st.srv)
	defer stop()

	ctx := context.Background()
	if _, err := cl.Register(ctx, &api.RegisterRequest{Email: "r@example.com", Password: "p"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	lr, err := cl.Login(ctx, &api.LoginRequest{Email: "r@example.com", Password: "p"})
	if err != nil || lr.RefreshToken == "" {
		t.Fatalf("login: %v, resp=%+v", err, lr)
	}

	rr, err := cl.Refresh(ctx, &api.RefreshRequest{RefreshToken: lr.RefreshToken})
	if err != nil || rr.AccessToken == "" {
		t.Fatalf("refresh: %v, resp=%+v", err, rr)
	}
	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+rr.AccessToken)
	if _, err := cl.GetUser(authed, &api.UserRef{UserID: lr.User.ID}); err != nil {
		t.Fatalf("get user with refreshed token: %v", err)
	}

	_, err = cl.Refresh(ctx, &api.RefreshRequest{RefreshToken: lr.AccessToken})
	wantCode(t, err, codes.Unauthenticated)
	_, err = cl.Refresh(ctx, &api.RefreshRequest{})
	wantCode(t, err, codes.InvalidArgument)

	asRefresh := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+lr.RefreshToken)
	_, err = cl.GetUser(asRefresh, &api.UserRef{UserID: lr.User.ID})
	wantCode(t, err, codes.Unauthenticated)
}
