// roles.go — Role-based access control middleware.
// The app has three roles: admin, organizer, player. These middleware
// functions are applied to routes that require specific permissions:
// schedule mutation needs organizer-or-admin, the lock escape hatches are
// admin-only.
package middleware

import "github.com/gofiber/fiber/v2"

// RequireRole returns a middleware handler that allows only users whose role
// matches one of the provided roles, responding 403 Forbidden otherwise:
//
//	api.Post("/weeks/:weekId/schedule", middleware.RequireRole("admin", "organizer"), ...)
//
// RequireRole must be used AFTER the Auth middleware, because Auth is what
// populates the "userRole" value in the request context via c.Locals.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals("userRole").(string)
		if !ok || userRole == "" {
			// No readable role means Auth wasn't applied or failed silently —
			// deny with 403 (the user may be authenticated, just roleless).
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		for _, role := range roles {
			if userRole == role {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}
