// Package middleware contains HTTP middleware functions for the League
// Scheduler API. Middleware sits between the HTTP server and route handlers —
// it runs on every request that passes through it, making it the right place
// for cross-cutting concerns like authentication and access control.
package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	// jwt parses JSON Web Tokens from the Authorization header.
	"github.com/golang-jwt/jwt/v5"
	"github.com/trentd187/league-scheduler/internal/config"
	"github.com/trentd187/league-scheduler/internal/models"
	"gorm.io/gorm"
)

// Claims defines the data we expect inside the identity provider's JWT
// payload: the standard registered fields plus custom claims carrying the
// user's role, email, and display name. Without the custom claims configured
// in the provider, role defaults to "player" and email/name fall back to
// deterministic placeholders.
type Claims struct {
	jwt.RegisteredClaims        // Standard JWT fields: Subject (user ID), ExpiresAt, IssuedAt, etc.
	Role                 string `json:"role"`  // Custom claim: "admin", "organizer", or "player"
	Email                string `json:"email"` // Custom claim: the user's primary email address
	Name                 string `json:"name"`  // Custom claim: the user's full name
}

// Auth returns a Fiber middleware handler that:
//  1. Validates the JWT from the "Authorization: Bearer <token>" header
//  2. Finds the matching user in our database (or creates one on first visit)
//  3. Syncs the user's role from the JWT into the database
//  4. Stores the user's internal UUID and role in the request context
//     (c.Locals) so downstream handlers can read them without re-parsing
//     the token
func Auth(cfg *config.Config, db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or invalid authorization header",
			})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		// TODO: replace ParseUnverified with full JWKS signature verification.
		// ParseUnverified skips signature checking — fine for development but
		// MUST be replaced before production.
		token, _, err := jwt.NewParser().ParseUnverified(tokenStr, &Claims{})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token claims",
			})
		}

		subjectID := claims.Subject
		if subjectID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "token missing subject",
			})
		}

		// Lazy user sync: the first time a user hits any authenticated
		// endpoint we create their record; afterwards we just look them up.
		role := roleFromClaim(claims.Role)

		email := claims.Email
		if email == "" {
			// Deterministic placeholder, unique per subject, clearly not real.
			email = fmt.Sprintf("%s@league.local", subjectID)
		}

		name := claims.Name
		if name == "" {
			name = "Player"
		}

		var user models.User
		result := db.Where("subject_id = ?", subjectID).First(&user)

		if result.Error != nil {
			if result.Error != gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "database error",
				})
			}

			user = models.User{
				SubjectID:   &subjectID,
				DisplayName: name,
				Email:       email,
				Role:        role,
			}
			if err := db.Create(&user).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to create user record",
				})
			}
		} else {
			// Sync the role in case it changed at the identity provider.
			if user.Role != role && claims.Role != "" {
				db.Model(&user).Update("role", role)
				user.Role = role
			}
		}

		c.Locals("userID", user.ID.String())
		c.Locals("userRole", string(user.Role))

		return c.Next()
	}
}

// roleFromClaim converts the raw role string from the JWT into our typed
// UserRole enum, defaulting to the least-privileged "player".
func roleFromClaim(s string) models.UserRole {
	switch s {
	case "admin":
		return models.UserRoleAdmin
	case "organizer":
		return models.UserRoleOrganizer
	default:
		return models.UserRolePlayer
	}
}
