package middleware

import (
	"strings"

	"go-roastery-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth validates the bearer token against the live user record and
// sets user info in context for downstream handlers
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return deny(c, fiber.StatusUnauthorized, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return deny(c, fiber.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>")
		}

		return authenticate(c, authService, parts[1])
	}
}

// RequireWSAuth is RequireAuth for websocket upgrades, where browsers cannot
// set headers; the token comes from the "token" query parameter
func RequireWSAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Query("token")
		if token == "" {
			return deny(c, fiber.StatusUnauthorized, "Missing authorization token")
		}
		return authenticate(c, authService, token)
	}
}

func authenticate(c *fiber.Ctx, authService service.AuthService, token string) error {
	session, err := authService.ValidateToken(c.UserContext(), token)
	if err != nil {
		return deny(c, fiber.StatusUnauthorized, strings.TrimPrefix(err.Error(), service.ErrNotAuthenticated.Error()+": "))
	}

	c.Locals("user_id", session.User.ID.String())
	c.Locals("user_email", session.User.Email)
	c.Locals("user_name", session.User.FullName)
	c.Locals("user_privileges", session.Privileges)

	return c.Next()
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return RequireAnyPrivilege(requiredPrivilege)
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals("user_privileges").([]string)
		if !ok {
			return deny(c, fiber.StatusForbidden, "No privileges found")
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		if len(requiredPrivileges) == 1 {
			return deny(c, fiber.StatusForbidden, "Forbidden: requires '"+requiredPrivileges[0]+"' privilege")
		}
		return deny(c, fiber.StatusForbidden,
			"Forbidden: requires one of "+strings.Join(requiredPrivileges, ", ")+" privileges")
	}
}

func deny(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "error": msg})
}
