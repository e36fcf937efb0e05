package handler

import (
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	userService service.UserService
}

func NewRoleHandler(userService service.UserService) *RoleHandler {
	return &RoleHandler{userService: userService}
}

// GetRoles returns all available roles
// GET /api/v1/admin/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles, err := h.userService.GetRoles(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, roles)
}

// GetPrivileges lists every privilege code
// GET /api/v1/admin/privileges
func (h *RoleHandler) GetPrivileges(c *fiber.Ctx) error {
	privileges, err := h.userService.GetPrivileges(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, privileges)
}
