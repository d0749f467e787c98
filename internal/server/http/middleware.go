package httpserver

import (
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/account-manager/internal/errs"
)

const userIDKey = "am.userID"

// TokenVerifier resolves an access token to the caller's user id.
type TokenVerifier interface {
	Authenticate(token string) (uuid.UUID, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id in the echo context.
func RequireAuth(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if tok == "" {
				return errs.ErrUnauthorized
			}
			id, err := v.Authenticate(tok)
			if err != nil {
				return err
			}
			c.Set(userIDKey, id)
			return next(c)
		}
	}
}

// actorFrom returns the authenticated caller or uuid.Nil.
func actorFrom(c echo.Context) uuid.UUID {
	id, _ := c.Get(userIDKey).(uuid.UUID)
	return id
}

func bearerToken(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// RequestLogger logs one line per request. Bodies are never logged.
func RequestLogger(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Info("http",
				zap.String("method", req.Method),
				zap.String("route", c.Path()),
				zap.Int("status", c.Response().Status),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", c.RealIP()),
			)
			return nil
		}
	}
}
