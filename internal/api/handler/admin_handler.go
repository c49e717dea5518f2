package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vartalang/vartalang-api/internal/core/ports"
)

// AdminHandler serves the /admin/users routes. The router restricts it to admins.
type AdminHandler struct {
	adminService ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type usersData struct {
	Users any `json:"users"`
}

// ListUsers
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  Response{data=usersData}
// @Failure      403  {object}  Response
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.adminService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", usersData{Users: users})
}

// UpdateRole
//
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  Response{data=userData}
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Router       /admin/users/{id}/role [patch]
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.adminService.UpdateRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", userData{User: user})
}

// ToggleStatus
//
// @Summary      Activate or deactivate a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Response{data=userData}
// @Failure      404  {object}  Response
// @Router       /admin/users/{id}/toggle [patch]
func (h *AdminHandler) ToggleStatus(c echo.Context) error {
	user, err := h.adminService.ToggleStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", userData{User: user})
}

// DeleteUser
//
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	if err := h.adminService.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted.", nil)
}
