package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/account-manager/internal/api"
	pkgcrypto "github.com/and161185/account-manager/internal/crypto"
	"github.com/and161185/account-manager/internal/lifecycle"
	"github.com/and161185/account-manager/internal/repository/sqlite"
	"github.com/and161185/account-manager/internal/service"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	codec, err := pkgcrypto.NewCodec(bytes.Repeat([]byte{9}, 32))
	require.NoError(t, err)

	log := zaptest.NewLogger(t)
	projects := sqlite.NewProjectRepo(db)
	creds := sqlite.NewCredentialRepo(db)
	tasks := sqlite.NewTaskRepo(db)
	hooks := lifecycle.New(codec, projects, creds, tasks)

	return New(
		service.NewAuthService(sqlite.NewUserRepo(db), []byte("http-secret"), time.Minute, time.Hour),
		service.NewProjectService(projects, hooks, codec, 0, log),
		service.NewCredentialService(projects, creds, hooks, codec, 0, log),
		service.NewTaskService(projects, tasks, hooks, 0, log),
		log,
	)
}

// do sends a JSON request and decodes the response into out when non-nil.
func do(t *testing.T, e *echo.Echo, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func signIn(t *testing.T, e *echo.Echo, email string) (string, string) {
	t.Helper()
	var u api.User
	rec := do(t, e, http.MethodPost, "/sign-up/", "", api.RegisterRequest{Email: email, Password: "pw"}, &u)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var lr api.LoginResponse
	rec = do(t, e, http.MethodPost, "/sign-in", "", api.LoginRequest{Email: email, Password: "pw"}, &lr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, u.ID, lr.User.ID)
	return u.ID, lr.AccessToken
}

func TestREST_ProjectLifecycle(t *testing.T) {
	e := newTestServer(t)
	uid, tok := signIn(t, e, "rest@example.com")
	base := "/users/" + uid + "/projects/"

	var p api.Project
	rec := do(t, e, http.MethodPost, base, tok, api.CreateProjectRequest{Title: "Home Wi-Fi"}, &p)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, "home-wi-fi", p.Slug)
	require.EqualValues(t, 1, p.LocalID)

	var c api.Credential
	rec = do(t, e, http.MethodPost, base+p.Slug+"/credentials/", tok,
		api.CreateCredentialRequest{Email: "e@x.io", Password: "s3cret", ServiceName: "router"}, &c)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.EqualValues(t, 1, c.LocalID)
	require.Equal(t, "s3cret", c.Password)

	var task api.Task
	rec = do(t, e, http.MethodPost, base+p.Slug+"/tasks/", tok, api.CreateTaskRequest{Title: "renew"}, &task)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.True(t, task.IsActive)

	var d api.ProjectDetail
	rec = do(t, e, http.MethodGet, base+p.Slug+"/", tok, nil, &d)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, d.Credentials, 1)
	require.Len(t, d.Tasks, 1)
	require.Equal(t, "s3cret", d.Credentials[0].Password)

	var up api.Project
	rec = do(t, e, http.MethodPatch, base+p.Slug+"/", tok, map[string]any{"title": "Office", "slug": "hijack"}, &up)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Office", up.Title)
	require.Equal(t, p.Slug, up.Slug)

	var uc api.Credential
	rec = do(t, e, http.MethodPatch, base+p.Slug+"/credentials/1/", tok, map[string]any{"service_name": "modem"}, &uc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "s3cret", uc.Password)
	require.Equal(t, "modem", uc.ServiceName)

	rec = do(t, e, http.MethodDelete, base+p.Slug+"/credentials/1/", tok, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodDelete, base+p.Slug+"/", tok, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, base+p.Slug+"/tasks/1/", tok, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var list []api.Project
	rec = do(t, e, http.MethodGet, base, tok, nil, &list)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, list)
}

func TestREST_Errors(t *testing.T) {
	e := newTestServer(t)
	uid, tok := signIn(t, e, "a@example.com")
	other, _ := signIn(t, e, "b@example.com")

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"duplicate email", http.MethodPost, "/sign-up/", "", api.RegisterRequest{Email: "a@example.com", Password: "x"}, http.StatusConflict},
		{"missing password", http.MethodPost, "/sign-up/", "", api.RegisterRequest{Email: "c@example.com"}, http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/sign-in/", "", api.LoginRequest{Email: "a@example.com", Password: "nope"}, http.StatusUnauthorized},
		{"no token", http.MethodGet, "/users/" + uid + "/", "", nil, http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/users/" + uid + "/", "garbage", nil, http.StatusUnauthorized},
		{"foreign user", http.MethodGet, "/users/" + other + "/projects/", tok, nil, http.StatusForbidden},
		{"bad user id", http.MethodGet, "/users/xyz/projects/", tok, nil, http.StatusBadRequest},
		{"missing project", http.MethodGet, "/users/" + uid + "/projects/nope/", tok, nil, http.StatusNotFound},
		{"blank title", http.MethodPost, "/users/" + uid + "/projects/", tok, api.CreateProjectRequest{Title: " "}, http.StatusBadRequest},
		{"bad local id", http.MethodGet, "/users/" + uid + "/projects/p/credentials/zero/", tok, nil, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, e, tc.method, tc.path, tc.token, tc.body, nil)
			require.Equal(t, tc.want, rec.Code, rec.Body.String())

			var env ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.False(t, env.Success)
			require.NotEmpty(t, env.Message)
		})
	}
}

func TestREST_ProfileAndDelete(t *testing.T) {
	e := newTestServer(t)
	uid, tok := signIn(t, e, "me@example.com")

	var u api.User
	rec := do(t, e, http.MethodPatch, "/users/"+uid+"/", tok, map[string]any{"first_name": "Ann"}, &u)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Ann", u.FirstName)
	require.Equal(t, "me@example.com", u.Email)

	rec = do(t, e, http.MethodDelete, "/users/"+uid+"/", tok, nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, e, http.MethodGet, "/users/"+uid+"/", tok, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", bearerToken("Bearer abc"))
	require.Equal(t, "abc", bearerToken("  bearer   abc "))
	require.Empty(t, bearerToken("Basic abc"))
	require.Empty(t, bearerToken("Bearer "))
	require.Empty(t, bearerToken(""))
}

func TestResponseError_Envelope(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, ResponseError(c, http.StatusTeapot, "short and stout", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), `"message":"short and stout"`))
	require.False(t, strings.Contains(rec.Body.String(), `"error"`))
}

func TestREST_TokenRefresh(t *testing.T) {
	e := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/sign-up/", "", api.RegisterRequest{Email: "r@example.com", Password: "pw"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var lr api.LoginResponse
	rec = do(t, e, http.MethodPost, "/sign-in/", "", api.LoginRequest{Email: "r@example.com", Password: "pw"}, &lr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, lr.RefreshToken)
	require.True(t, lr.RefreshExpiresAt.After(lr.ExpiresAt))

	var rr api.RefreshResponse
	rec = do(t, e, http.MethodPost, "/token-refresh", "", api.RefreshRequest{RefreshToken: lr.RefreshToken}, &rr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, rr.AccessToken)

	rec = do(t, e, http.MethodGet, "/users/"+lr.User.ID+"/", rr.AccessToken, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// tokens are not interchangeable
	rec = do(t, e, http.MethodPost, "/token-refresh/", "", api.RefreshRequest{RefreshToken: lr.AccessToken}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, e, http.MethodGet, "/users/"+lr.User.ID+"/", lr.RefreshToken, nil, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodPost, "/token-refresh/", "", api.RefreshRequest{}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
