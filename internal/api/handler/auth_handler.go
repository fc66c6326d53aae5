package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/veriton/identity-system/internal/api/metrics"
	"github.com/veriton/identity-system/internal/core/domain"
	"github.com/veriton/identity-system/internal/core/ports"
)

const refreshCookieName = "refresh_token"

// AuthHandler handles HTTP requests for the session lifecycle. The refresh
// token travels only in an httpOnly cookie; the access token only in the
// response body.
type AuthHandler struct {
	sessions   ports.SessionService
	refreshTTL time.Duration
	production bool
}

func NewAuthHandler(sessions ports.SessionService, refreshTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{sessions: sessions, refreshTTL: refreshTTL, production: production}
}

// SignUp registers a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signUpRequest  true  "Registration details"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /auth/sign-up [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.sessions.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
		} else {
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, messageResponse{Message: "User registered successfully"})
}

// SignIn authenticates a user and starts a session.
//
// @Summary      Login with username or email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signInRequest  true  "Login credentials"
// @Success      200   {object}  accessTokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /auth/sign-in [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.sessions.Login(c.Request().Context(), ports.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.LoginsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	c.SetCookie(h.refreshCookie(pair.RefreshToken, int(h.refreshTTL.Seconds())))
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: pair.AccessToken})
}

// Refresh exchanges the refresh cookie for a new access token.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  accessTokenResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /auth/refresh [get]
func (h *AuthHandler) Refresh(c echo.Context) error {
	access, err := h.sessions.Refresh(c.Request().Context(), h.cookieValue(c))
	if err != nil {
		if errors.Is(err, domain.ErrTokenMissing) || errors.Is(err, domain.ErrTokenExpired) || errors.Is(err, domain.ErrTokenInvalid) {
			metrics.TokenRefreshesTotal.WithLabelValues("rejected").Inc()
		} else {
			metrics.TokenRefreshesTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: access})
}

// Logout ends the session. Idempotent: an empty or unknown cookie still
// yields 204 and the cookie is cleared either way.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	_ = h.sessions.Logout(c.Request().Context(), h.cookieValue(c))
	c.SetCookie(h.refreshCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) cookieValue(c echo.Context) string {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// refreshCookie builds the session cookie. Cross-site attributes (Secure,
// SameSite=None) apply only in production; local development keeps lax mode
// so the cookie works without TLS.
func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.production {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
