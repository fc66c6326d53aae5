package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriton/identity-system/internal/core/ports"
)

// UserHandler handles the role-gated account query/update endpoints. Role
// membership is enforced by the route middleware before these run.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Update patches an account's name, email and/or role.
//
// @Summary      Update user credentials and privileges
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        id    path      string             true   "User id"
// @Param        body  body      updateUserRequest  true   "Fields to update"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Security     BearerAuth
// @Router       /auth/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.users.Update(c.Request().Context(), c.Param("id"), ports.UpdateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "User updated successfully"})
}

// Search lists accounts matching exact name/email filters, sanitized.
//
// @Summary      Search users by name and/or email
// @Tags         auth
// @Produce      json
// @Param        name   query     string  false  "Exact display name"
// @Param        email  query     string  false  "Exact email"
// @Success      200    {array}   ports.SearchResult
// @Failure      403    {object}  errorResponse
// @Security     BearerAuth
// @Router       /auth/search [get]
func (h *UserHandler) Search(c echo.Context) error {
	results, err := h.users.Search(c.Request().Context(), c.QueryParam("name"), c.QueryParam("email"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

// GetByID returns the safe projection of one account.
//
// @Summary      Get user by id
// @Tags         auth
// @Produce      json
// @Param        id  path      string  true  "User id"
// @Success      200  {object}  domain.SafeUser
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Security     BearerAuth
// @Router       /auth/{id} [get]
func (h *UserHandler) GetByID(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), claims, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
