package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "botshop/internal/log"
	"botshop/internal/services"
)

// RequireAdmin resolves the session cookie into an identity and rejects
// anything that is not an ADMIN. The resolved user is stashed in Locals for
// handlers to pass along as the audit actor.
func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
		}
		u, err := auth.CurrentUser(c.Context(), sid)
		if err != nil || u == nil || u.Role != "ADMIN" {
			applog.Security(c, "access.denied.admin", nil)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}
