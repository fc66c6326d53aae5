package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/veriton/identity-system/internal/api/metrics"
	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/ports"
)

// Context keys under which the authenticated identity is stored.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// Auth validates the bearer access token and injects the decoded identity
// claims into the request context. Any verification failure short-circuits
// the route with 401; the handler behind it is never invoked.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.VerifyAccess(parts[1])
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(verdict(err)).Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			metrics.TokenVerificationsTotal.WithLabelValues("valid").Inc()

			c.Set(CtxUserID, claims.Subject)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxRole, claims.Role)

			return next(c)
		}
	}
}

func verdict(err error) string {
	if errors.Is(err, domain.ErrTokenExpired) {
		return "expired"
	}
	return "invalid"
}
