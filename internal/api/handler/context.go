package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriton/identity-system/internal/api/middleware"
	"github.com/veriton/identity-system/internal/core/domain"
)

// ctxClaims extracts the identity claims injected by the Auth middleware and
// performs a fast-fail check before any service call: subject and role must
// both be present (presence proves the middleware ran).
func ctxClaims(c echo.Context) (domain.Claims, error) {
	sub, _ := c.Get(middleware.CtxUserID).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	if sub == "" || role == "" {
		return domain.Claims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	username, _ := c.Get(middleware.CtxUsername).(string)
	return domain.Claims{Subject: sub, Username: username, Role: role}, nil
}
