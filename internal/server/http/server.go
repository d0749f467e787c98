// Package httpserver exposes the AccountManager API over REST using echo.
package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/service"
)

// Handler serves REST routes backed by the services.
type Handler struct {
	auth        service.AuthService
	projects    service.ProjectService
	credentials service.CredentialService
	tasks       service.TaskService
	log         *zap.Logger
}

// New builds an echo instance with middlewares and routes registered.
func New(
	auth service.AuthService,
	projects service.ProjectService,
	credentials service.CredentialService,
	tasks service.TaskService,
	log *zap.Logger,
) *echo.Echo {
	h := &Handler{auth: auth, projects: projects, credentials: credentials, tasks: tasks, log: log}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.errorHandler

	e.Pre(middleware.AddTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(RequestLogger(log))

	h.RegisterRoutes(e)
	return e
}

// RegisterRoutes mounts the public and authenticated routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/sign-up/", h.SignUp)
	e.POST("/sign-in/", h.SignIn)
	e.POST("/token-refresh/", h.RefreshToken)

	users := e.Group("/users/:user_id", RequireAuth(h.auth))
	users.GET("/", h.GetUser)
	users.PATCH("/", h.UpdateUser)
	users.DELETE("/", h.DeleteUser)

	users.GET("/projects/", h.ListProjects)
	users.POST("/projects/", h.CreateProject)
	users.GET("/projects/:slug/", h.GetProject)
	users.PATCH("/projects/:slug/", h.UpdateProject)
	users.DELETE("/projects/:slug/", h.DeleteProject)

	users.GET("/projects/:slug/credentials/", h.ListCredentials)
	users.POST("/projects/:slug/credentials/", h.CreateCredential)
	users.GET("/projects/:slug/credentials/:id/", h.GetCredential)
	users.PATCH("/projects/:slug/credentials/:id/", h.UpdateCredential)
	users.DELETE("/projects/:slug/credentials/:id/", h.DeleteCredential)

	users.GET("/projects/:slug/tasks/", h.ListTasks)
	users.POST("/projects/:slug/tasks/", h.CreateTask)
	users.GET("/projects/:slug/tasks/:id/", h.GetTask)
	users.PATCH("/projects/:slug/tasks/:id/", h.UpdateTask)
	users.DELETE("/projects/:slug/tasks/:id/", h.DeleteTask)
}
