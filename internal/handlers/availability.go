// availability.go — handler for recording a player's availability answer for
// a week. Availability is mutated independently of schedule generation: a
// player can flip their answer after a schedule exists, and the change is
// picked up the next time the week is regenerated.
package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/league-scheduler/internal/store"
	"github.com/trentd187/league-scheduler/internal/websocket"
)

// SetAvailabilityRequest is the JSON body for PUT .../availability/:playerId.
// Available is a pointer with a required tag so an empty body fails
// validation instead of silently meaning "unavailable".
type SetAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

// SetAvailability returns a handler for
// PUT /api/v1/weeks/:weekId/availability/:playerId.
func SetAvailability(weeks store.WeekStore, hub *websocket.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekID, ok := parseUUIDParam(c, "weekId")
		if !ok {
			return nil
		}
		playerID, ok := parseUUIDParam(c, "playerId")
		if !ok {
			return nil
		}

		var req SetAvailabilityRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "available is required",
			})
		}

		if err := weeks.SetPlayerAvailability(c.Context(), weekID, playerID, *req.Available); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "week not found",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to set availability",
			})
		}

		broadcastScheduleEvent(hub, weekID, "availability_changed", fiber.Map{
			"player_id": playerID.String(),
			"available": *req.Available,
		})
		return c.JSON(fiber.Map{
			"week_id":   weekID.String(),
			"player_id": playerID.String(),
			"available": *req.Available,
		})
	}
}
