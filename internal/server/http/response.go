package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/errs"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "validation failed"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrAlreadyExists):
		return http.StatusConflict, "already exists"
	case errors.Is(err, errs.ErrIdentifierCollision):
		return http.StatusConflict, "identifier collision, retry"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled"
	}
	return http.StatusInternalServerError, "internal"
}

// errorHandler renders errors returned by handlers and middlewares.
func (h *Handler) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		_ = ResponseError(c, he.Code, msg, nil)
		return
	}

	code, msg := statusOf(err)
	if code == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("route", c.Path()), zap.Error(err))
		_ = ResponseError(c, code, msg, nil)
		return
	}
	if code == http.StatusBadRequest {
		_ = ResponseError(c, code, msg, err)
		return
	}
	_ = ResponseError(c, code, msg, nil)
}

// ResponseError writes the error envelope. err is exposed to the client, so
// pass it only for caller mistakes.
func ResponseError(c echo.Context, code int, msg string, err error) error {
	resp := ErrorResponse{Success: false, Message: msg}
	if err != nil {
		resp.Error = err.Error()
	}
	if c.Request().Method == http.MethodHead {
		return c.NoContent(code)
	}
	return c.JSON(code, resp)
}
