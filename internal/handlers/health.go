// Package handlers contains the HTTP route handler functions for the League
// Scheduler API. Each handler corresponds to one endpoint and is responsible
// for reading the request, calling into the scheduling core, and writing a
// response. Handlers follow the factory pattern — each takes its dependencies
// and returns a fiber.Handler — so nothing here relies on globals.
package handlers

import "github.com/gofiber/fiber/v2"

// HealthCheck handles GET /health.
// Intentionally lightweight — no database queries, no authentication — so
// load balancers and container probes can poll it cheaply.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
