// Package grpcserver exposes the AccountManager gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/and161185/account-manager/internal/api"
	"github.com/and161185/account-manager/internal/convert"
	"github.com/and161185/account-manager/internal/errs"
	"github.com/and161185/account-manager/internal/service"
)

// Server wires services into gRPC handlers.
type Server struct {
	auth        service.AuthService
	projects    service.ProjectService
	credentials service.CredentialService
	tasks       service.TaskService
	log         *zap.Logger
}

// New constructs a gRPC server with injected services.
func New(
	auth service.AuthService,
	projects service.ProjectService,
	credentials service.CredentialService,
	tasks service.TaskService,
	log *zap.Logger,
) *Server {
	return &Server{auth: auth, projects: projects, credentials: credentials, tasks: tasks, log: log}
}

var _ api.AccountManagerServer = (*Server)(nil)

// toStatus maps service errors to gRPC codes. Unknown errors are logged and hidden.
func (s *Server) toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case errors.Is(err, errs.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, errs.ErrIdentifierCollision):
		return status.Error(codes.Aborted, "identifier collision, retry")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	}
	s.log.Error(op, zap.Error(err))
	return status.Error(codes.Internal, "internal")
}

// --- Users ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *api.RegisterRequest) (*api.User, error) {
	u, err := s.auth.Register(ctx, convert.FromAPIRegister(req))
	if err != nil {
		return nil, s.toStatus("register", err)
	}
	out := convert.ToAPIUser(*u)
	return &out, nil
}

// Login authenticates by email and password and returns an access token.
func (s *Server) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	tok, u, err := s.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, "bad credentials")
		}
		return nil, s.toStatus("login", err)
	}
	return &api.LoginResponse{
		AccessToken:      tok.AccessToken,
		ExpiresAt:        tok.ExpiresAt,
		RefreshToken:     tok.RefreshToken,
		RefreshExpiresAt: tok.RefreshExpiresAt,
		User:             convert.ToAPIUser(u),
	}, nil
}

// Refresh issues a new access token for a refresh token.
func (s *Server) Refresh(ctx context.Context, req *api.RefreshRequest) (*api.RefreshResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token required")
	}
	tok, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus("refresh", err)
	}
	return &api.RefreshResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt}, nil
}

func (s *Server) GetUser(ctx context.Context, req *api.UserRef) (*api.User, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("get user", err)
	}
	u, err := s.auth.GetUser(ctx, actor, owner)
	if err != nil {
		return nil, s.toStatus("get user", err)
	}
	out := convert.ToAPIUser(*u)
	return &out, nil
}

func (s *Server) UpdateUser(ctx context.Context, req *api.UpdateUserRequest) (*api.User, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("update user", err)
	}
	u, err := s.auth.UpdateUser(ctx, actor, owner, convert.FromAPIUserUpdate(req))
	if err != nil {
		return nil, s.toStatus("update user", err)
	}
	out := convert.ToAPIUser(*u)
	return &out, nil
}

func (s *Server) DeleteUser(ctx context.Context, req *api.UserRef) (*api.Empty, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("delete user", err)
	}
	if err := s.auth.DeleteUser(ctx, actor, owner); err != nil {
		return nil, s.toStatus("delete user", err)
	}
	return &api.Empty{}, nil
}

// --- Projects ---

func (s *Server) ListProjects(ctx context.Context, req *api.UserRef) (*api.ProjectList, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("list projects", err)
	}
	ps, err := s.projects.List(ctx, actor, owner)
	if err != nil {
		return nil, s.toStatus("list projects", err)
	}
	return &api.ProjectList{Projects: convert.ToAPIProjects(ps)}, nil
}

// CreateProject assigns slug and local id on the server; the response carries both.
func (s *Server) CreateProject(ctx context.Context, req *api.CreateProjectRequest) (*api.Project, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("create project", err)
	}
	p, err := s.projects.Create(ctx, actor, owner, convert.FromAPICreateProject(req))
	if err != nil {
		return nil, s.toStatus("create project", err)
	}
	out := convert.ToAPIProject(*p)
	return &out, nil
}

// GetProject returns the project together with its credentials and tasks.
func (s *Server) GetProject(ctx context.Context, req *api.ProjectRef) (*api.ProjectDetail, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("get project", err)
	}
	d, err := s.projects.Detail(ctx, actor, owner, req.Slug)
	if err != nil {
		return nil, s.toStatus("get project", err)
	}
	out := convert.ToAPIProjectDetail(*d)
	return &out, nil
}

func (s *Server) UpdateProject(ctx context.Context, req *api.UpdateProjectRequest) (*api.Project, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("update project", err)
	}
	p, err := s.projects.Update(ctx, actor, owner, req.Slug, convert.FromAPIUpdateProject(req))
	if err != nil {
		return nil, s.toStatus("update project", err)
	}
	out := convert.ToAPIProject(*p)
	return &out, nil
}

func (s *Server) DeleteProject(ctx context.Context, req *api.ProjectRef) (*api.Empty, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("delete project", err)
	}
	if err := s.projects.Delete(ctx, actor, owner, req.Slug); err != nil {
		return nil, s.toStatus("delete project", err)
	}
	return &api.Empty{}, nil
}

// --- Credentials ---

func (s *Server) ListCredentials(ctx context.Context, req *api.ProjectRef) (*api.CredentialList, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("list credentials", err)
	}
	cs, err := s.credentials.List(ctx, actor, owner, req.Slug)
	if err != nil {
		return nil, s.toStatus("list credentials", err)
	}
	return &api.CredentialList{Credentials: convert.ToAPICredentials(cs)}, nil
}

func (s *Server) CreateCredential(ctx context.Context, req *api.CreateCredentialRequest) (*api.Credential, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("create credential", err)
	}
	c, err := s.credentials.Create(ctx, actor, owner, req.Slug, convert.FromAPICreateCredential(req))
	if err != nil {
		return nil, s.toStatus("create credential", err)
	}
	out := convert.ToAPICredential(*c)
	return &out, nil
}

func (s *Server) GetCredential(ctx context.Context, req *api.ItemRef) (*api.Credential, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("get credential", err)
	}
	c, err := s.credentials.Get(ctx, actor, owner, req.Slug, req.LocalID)
	if err != nil {
		return nil, s.toStatus("get credential", err)
	}
	out := convert.ToAPICredential(*c)
	return &out, nil
}

func (s *Server) UpdateCredential(ctx context.Context, req *api.UpdateCredentialRequest) (*api.Credential, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("update credential", err)
	}
	c, err := s.credentials.Update(ctx, actor, owner, req.Slug, req.LocalID, convert.FromAPIUpdateCredential(req))
	if err != nil {
		return nil, s.toStatus("update credential", err)
	}
	out := convert.ToAPICredential(*c)
	return &out, nil
}

func (s *Server) DeleteCredential(ctx context.Context, req *api.ItemRef) (*api.Empty, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("delete credential", err)
	}
	if err := s.credentials.Delete(ctx, actor, owner, req.Slug, req.LocalID); err != nil {
		return nil, s.toStatus("delete credential", err)
	}
	return &api.Empty{}, nil
}

// --- Tasks ---

func (s *Server) ListTasks(ctx context.Context, req *api.ProjectRef) (*api.TaskList, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("list tasks", err)
	}
	ts, err := s.tasks.List(ctx, actor, owner, req.Slug)
	if err != nil {
		return nil, s.toStatus("list tasks", err)
	}
	return &api.TaskList{Tasks: convert.ToAPITasks(ts)}, nil
}

func (s *Server) CreateTask(ctx context.Context, req *api.CreateTaskRequest) (*api.Task, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("create task", err)
	}
	t, err := s.tasks.Create(ctx, actor, owner, req.Slug, convert.FromAPICreateTask(req))
	if err != nil {
		return nil, s.toStatus("create task", err)
	}
	out := convert.ToAPITask(*t)
	return &out, nil
}

func (s *Server) GetTask(ctx context.Context, req *api.ItemRef) (*api.Task, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("get task", err)
	}
	t, err := s.tasks.Get(ctx, actor, owner, req.Slug, req.LocalID)
	if err != nil {
		return nil, s.toStatus("get task", err)
	}
	out := convert.ToAPITask(*t)
	return &out, nil
}

func (s *Server) UpdateTask(ctx context.Context, req *api.UpdateTaskRequest) (*api.Task, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("update task", err)
	}
	t, err := s.tasks.Update(ctx, actor, owner, req.Slug, req.LocalID, convert.FromAPIUpdateTask(req))
	if err != nil {
		return nil, s.toStatus("update task", err)
	}
	out := convert.ToAPITask(*t)
	return &out, nil
}

func (s *Server) DeleteTask(ctx context.Context, req *api.ItemRef) (*api.Empty, error) {
	actor, owner, err := subject(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus("delete task", err)
	}
	if err := s.tasks.Delete(ctx, actor, owner, req.Slug, req.LocalID); err != nil {
		return nil, s.toStatus("delete task", err)
	}
	return &api.Empty{}, nil
}
