package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"

	"github.com/and161185/account-manager/internal/api"
	"github.com/and161185/account-manager/internal/convert"
	"github.com/and161185/account-manager/internal/errs"
)

// bind decodes the JSON body; a malformed body is a validation error.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return fmt.Errorf("%w: malformed body", errs.ErrValidation)
	}
	return nil
}

// subject returns the caller and the owner addressed by :user_id.
func subject(c echo.Context) (actor, owner uuid.UUID, err error) {
	owner, err = convert.ParseUserID(c.Param("user_id"))
	return actorFrom(c), owner, err
}

func localID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: bad id %q", errs.ErrValidation, c.Param("id"))
	}
	return id, nil
}

// --- Users ---

func (h *Handler) SignUp(c echo.Context) error {
	var req api.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.auth.Register(c.Request().Context(), convert.FromAPIRegister(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convert.ToAPIUser(*u))
}

func (h *Handler) SignIn(c echo.Context) error {
	var req api.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return fmt.Errorf("%w: email and password are required", errs.ErrValidation)
	}
	tok, u, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.LoginResponse{
		AccessToken:      tok.AccessToken,
		ExpiresAt:        tok.ExpiresAt,
		RefreshToken:     tok.RefreshToken,
		RefreshExpiresAt: tok.RefreshExpiresAt,
		User:             convert.ToAPIUser(u),
	})
}

func (h *Handler) RefreshToken(c echo.Context) error {
	var req api.RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.RefreshToken == "" {
		return fmt.Errorf("%w: refresh is required", errs.ErrValidation)
	}
	tok, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.RefreshResponse{AccessToken: tok.AccessToken, ExpiresAt: tok.ExpiresAt})
}

func (h *Handler) GetUser(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	u, err := h.auth.GetUser(c.Request().Context(), actor, owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPIUser(*u))
}

func (h *Handler) UpdateUser(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	var req api.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.auth.UpdateUser(c.Request().Context(), actor, owner, convert.FromAPIUserUpdate(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPIUser(*u))
}

func (h *Handler) DeleteUser(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteUser(c.Request().Context(), actor, owner); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Projects ---

func (h *Handler) ListProjects(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	ps, err := h.projects.List(c.Request().Context(), actor, owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPIProjects(ps))
}

func (h *Handler) CreateProject(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	var req api.CreateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.projects.Create(c.Request().Context(), actor, owner, convert.FromAPICreateProject(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convert.ToAPIProject(*p))
}

func (h *Handler) GetProject(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	d, err := h.projects.Detail(c.Request().Context(), actor, owner, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPIProjectDetail(*d))
}

func (h *Handler) UpdateProject(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	var req api.UpdateProjectRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.projects.Update(c.Request().Context(), actor, owner, c.Param("slug"), convert.FromAPIUpdateProject(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPIProject(*p))
}

func (h *Handler) DeleteProject(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	if err := h.projects.Delete(c.Request().Context(), actor, owner, c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Credentials ---

func (h *Handler) ListCredentials(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	cs, err := h.credentials.List(c.Request().Context(), actor, owner, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPICredentials(cs))
}

func (h *Handler) CreateCredential(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	var req api.CreateCredentialRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cr, err := h.credentials.Create(c.Request().Context(), actor, owner, c.Param("slug"), convert.FromAPICreateCredential(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convert.ToAPICredential(*cr))
}

func (h *Handler) GetCredential(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	id, err := localID(c)
	if err != nil {
		return err
	}
	cr, err := h.credentials.Get(c.Request().Context(), actor, owner, c.Param("slug"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPICredential(*cr))
}

func (h *Handler) UpdateCredential(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	id, err := localID(c)
	if err != nil {
		return err
	}
	var req api.UpdateCredentialRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cr, err := h.credentials.Update(c.Request().Context(), actor, owner, c.Param("slug"), id, convert.FromAPIUpdateCredential(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPICredential(*cr))
}

func (h *Handler) DeleteCredential(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	id, err := localID(c)
	if err != nil {
		return err
	}
	if err := h.credentials.Delete(c.Request().Context(), actor, owner, c.Param("slug"), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Tasks ---

func (h *Handler) ListTasks(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	ts, err := h.tasks.List(c.Request().Context(), actor, owner, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPITasks(ts))
}

func (h *Handler) CreateTask(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	var req api.CreateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.tasks.Create(c.Request().Context(), actor, owner, c.Param("slug"), convert.FromAPICreateTask(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convert.ToAPITask(*t))
}

func (h *Handler) GetTask(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	id, err := localID(c)
	if err != nil {
		return err
	}
	t, err := h.tasks.Get(c.Request().Context(), actor, owner, c.Param("slug"), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPITask(*t))
}

func (h *Handler) UpdateTask(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	id, err := localID(c)
	if err != nil {
		return err
	}
	var req api.UpdateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	t, err := h.tasks.Update(c.Request().Context(), actor, owner, c.Param("slug"), id, convert.FromAPIUpdateTask(&req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToAPITask(*t))
}

func (h *Handler) DeleteTask(c echo.Context) error {
	actor, owner, err := subject(c)
	if err != nil {
		return err
	}
	id, err := localID(c)
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.Request().Context(), actor, owner, c.Param("slug"), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
