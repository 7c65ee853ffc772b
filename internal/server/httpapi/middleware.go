package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/clinic-keeper/internal/model"
)

// TokenVerifier resolves a bearer token to the current user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (model.User, error)
}

// Logging logs one line per request: metadata only, never bodies.
func Logging(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
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

// Recover turns a handler panic into a 500 and logs the stack.
func Recover(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic",
						zap.String("reason", fmt.Sprint(r)),
						zap.ByteString("stack", debug.Stack()),
						zap.String("route", c.Path()),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal")
				}
			}()
			return next(c)
		}
	}
}

// RequireSession rejects requests without a bearer token matching the
// current session and puts the session user into the request context.
func RequireSession(v TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(auth, "Bearer ")
			if !found || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			u, err := v.Verify(c.Request().Context(), raw)
			if err != nil {
				return toHTTP(err)
			}
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), u)))
			return next(c)
		}
	}
}
