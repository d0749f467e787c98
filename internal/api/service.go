package api

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "accountmanager.v1.AccountManager"

// FullMethod returns the gRPC path of a method, e.g. "/accountmanager.v1.AccountManager/Login".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// AccountManagerServer is the server API. Every method except Register, Login
// and Refresh expects an authenticated caller.
type AccountManagerServer interface {
	Register(context.Context, *RegisterRequest) (*User, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Refresh(context.Context, *RefreshRequest) (*RefreshResponse, error)
	GetUser(context.Context, *UserRef) (*User, error)
	UpdateUser(context.Context, *UpdateUserRequest) (*User, error)
	DeleteUser(context.Context, *UserRef) (*Empty, error)

	ListProjects(context.Context, *UserRef) (*ProjectList, error)
	CreateProject(context.Context, *CreateProjectRequest) (*Project, error)
	GetProject(context.Context, *ProjectRef) (*ProjectDetail, error)
	UpdateProject(context.Context, *UpdateProjectRequest) (*Project, error)
	DeleteProject(context.Context, *ProjectRef) (*Empty, error)

	ListCredentials(context.Context, *ProjectRef) (*CredentialList, error)
	CreateCredential(context.Context, *CreateCredentialRequest) (*Credential, error)
	GetCredential(context.Context, *ItemRef) (*Credential, error)
	UpdateCredential(context.Context, *UpdateCredentialRequest) (*Credential, error)
	DeleteCredential(context.Context, *ItemRef) (*Empty, error)

	ListTasks(context.Context, *ProjectRef) (*TaskList, error)
	CreateTask(context.Context, *CreateTaskRequest) (*Task, error)
	GetTask(context.Context, *ItemRef) (*Task, error)
	UpdateTask(context.Context, *UpdateTaskRequest) (*Task, error)
	DeleteTask(context.Context, *ItemRef) (*Empty, error)
}

// PublicMethods lists the full method names callable without a token.
var PublicMethods = map[string]bool{
	FullMethod("Register"): true,
	FullMethod("Login"):    true,
	FullMethod("Refresh"):  true,
}

// ServiceDesc describes AccountManager for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountManagerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", AccountManagerServer.Register),
		unary("Login", AccountManagerServer.Login),
		unary("Refresh", AccountManagerServer.Refresh),
		unary("GetUser", AccountManagerServer.GetUser),
		unary("UpdateUser", AccountManagerServer.UpdateUser),
		unary("DeleteUser", AccountManagerServer.DeleteUser),
		unary("ListProjects", AccountManagerServer.ListProjects),
		unary("CreateProject", AccountManagerServer.CreateProject),
		unary("GetProject", AccountManagerServer.GetProject),
		unary("UpdateProject", AccountManagerServer.UpdateProject),
		unary("DeleteProject", AccountManagerServer.DeleteProject),
		unary("ListCredentials", AccountManagerServer.ListCredentials),
		unary("CreateCredential", AccountManagerServer.CreateCredential),
		unary("GetCredential", AccountManagerServer.GetCredential),
		unary("UpdateCredential", AccountManagerServer.UpdateCredential),
		unary("DeleteCredential", AccountManagerServer.DeleteCredential),
		unary("ListTasks", AccountManagerServer.ListTasks),
		unary("CreateTask", AccountManagerServer.CreateTask),
		unary("GetTask", AccountManagerServer.GetTask),
		unary("UpdateTask", AccountManagerServer.UpdateTask),
		unary("DeleteTask", AccountManagerServer.DeleteTask),
	},
	Metadata: "accountmanager/v1/account_manager.json",
}

// RegisterAccountManagerServer registers srv on s.
func RegisterAccountManagerServer(s grpc.ServiceRegistrar, srv AccountManagerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req, Resp any](
	method string, call func(AccountManagerServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AccountManagerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AccountManagerServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client is the client side of AccountManager. Calls use the JSON codec.
type Client struct{ cc grpc.ClientConnInterface }

// NewClient wraps a connection.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c, "Register", in, opts)
}

func (c *Client) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c, "Login", in, opts)
}

func (c *Client) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*RefreshResponse, error) {
	return invoke[RefreshResponse](ctx, c, "Refresh", in, opts)
}

func (c *Client) GetUser(ctx context.Context, in *UserRef, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c, "GetUser", in, opts)
}

func (c *Client) UpdateUser(ctx context.Context, in *UpdateUserRequest, opts ...grpc.CallOption) (*User, error) {
	return invoke[User](ctx, c, "UpdateUser", in, opts)
}

func (c *Client) DeleteUser(ctx context.Context, in *UserRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteUser", in, opts)
}

func (c *Client) ListProjects(ctx context.Context, in *UserRef, opts ...grpc.CallOption) (*ProjectList, error) {
	return invoke[ProjectList](ctx, c, "ListProjects", in, opts)
}

func (c *Client) CreateProject(ctx context.Context, in *CreateProjectRequest, opts ...grpc.CallOption) (*Project, error) {
	return invoke[Project](ctx, c, "CreateProject", in, opts)
}

func (c *Client) GetProject(ctx context.Context, in *ProjectRef, opts ...grpc.CallOption) (*ProjectDetail, error) {
	return invoke[ProjectDetail](ctx, c, "GetProject", in, opts)
}

func (c *Client) UpdateProject(ctx context.Context, in *UpdateProjectRequest, opts ...grpc.CallOption) (*Project, error) {
	return invoke[Project](ctx, c, "UpdateProject", in, opts)
}

func (c *Client) DeleteProject(ctx context.Context, in *ProjectRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteProject", in, opts)
}

func (c *Client) ListCredentials(ctx context.Context, in *ProjectRef, opts ...grpc.CallOption) (*CredentialList, error) {
	return invoke[CredentialList](ctx, c, "ListCredentials", in, opts)
}

func (c *Client) CreateCredential(ctx context.Context, in *CreateCredentialRequest, opts ...grpc.CallOption) (*Credential, error) {
	return invoke[Credential](ctx, c, "CreateCredential", in, opts)
}

func (c *Client) GetCredential(ctx context.Context, in *ItemRef, opts ...grpc.CallOption) (*Credential, error) {
	return invoke[Credential](ctx, c, "GetCredential", in, opts)
}

func (c *Client) UpdateCredential(ctx context.Context, in *UpdateCredentialRequest, opts ...grpc.CallOption) (*Credential, error) {
	return invoke[Credential](ctx, c, "UpdateCredential", in, opts)
}

func (c *Client) DeleteCredential(ctx context.Context, in *ItemRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteCredential", in, opts)
}

func (c *Client) ListTasks(ctx context.Context, in *ProjectRef, opts ...grpc.CallOption) (*TaskList, error) {
	return invoke[TaskList](ctx, c, "ListTasks", in, opts)
}

func (c *Client) CreateTask(ctx context.Context, in *CreateTaskRequest, opts ...grpc.CallOption) (*Task, error) {
	return invoke[Task](ctx, c, "CreateTask", in, opts)
}

func (c *Client) GetTask(ctx context.Context, in *ItemRef, opts ...grpc.CallOption) (*Task, error) {
	return invoke[Task](ctx, c, "GetTask", in, opts)
}

func (c *Client) UpdateTask(ctx context.Context, in *UpdateTaskRequest, opts ...grpc.CallOption) (*Task, error) {
	return invoke[Task](ctx, c, "UpdateTask", in, opts)
}

func (c *Client) DeleteTask(ctx context.Context, in *ItemRef, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c, "DeleteTask", in, opts)
}
