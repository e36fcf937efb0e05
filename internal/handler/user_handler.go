package handler

import (
	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser handles user creation
// POST /api/v1/admin/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	user, err := h.userService.CreateUser(c.UserContext(), &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return created(c, user.ToResponse())
}

// UpdateUserPrivileges handles privilege assignment
// PUT /api/v1/admin/users/:id/privileges
func (h *UserHandler) UpdateUserPrivileges(c *fiber.Ctx) error {
	userID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid user ID")
	}

	var req struct {
		Privileges []string `json:"privileges"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	user, err := h.userService.UpdateUserPrivileges(c.UserContext(), userID, req.Privileges, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, user.ToResponse())
}

// GetUsers returns all users; ?staff=true leaves out shoppers
// GET /api/v1/admin/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext(), c.QueryBool("staff", false))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, users)
}

// GetUser returns a single user by ID
// GET /api/v1/admin/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, user)
}

// UpdateUser handles user update
// PUT /api/v1/admin/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid user ID")
	}

	var req service.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	user, err := h.userService.UpdateUser(c.UserContext(), userID, &req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, user.ToResponse())
}

// DeleteUser handles user deletion
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, valid := paramUUID(c, "id")
	if !valid {
		return badRequest(c, "Invalid user ID")
	}

	if err := h.userService.DeleteUser(c.UserContext(), userID, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return ok(c, fiber.Map{"message": "User deleted successfully"})
}
