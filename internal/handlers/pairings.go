// pairings.go — handler for the pairing-history report: who a player has
// been grouped with this season and how often. Read-only; the history itself
// is written by the Manager after each committed schedule.
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trentd187/league-scheduler/internal/pairing"
)

// PartnerCountResponse is one row of the report.
type PartnerCountResponse struct {
	PartnerID string `json:"partner_id"`
	Count     int    `json:"count"`
}

// GetPlayerPairings returns a handler for
// GET /api/v1/seasons/:seasonId/players/:playerId/pairings.
// A player with no history gets an empty list, not a 404.
func GetPlayerPairings(tracker *pairing.Tracker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		seasonID, ok := parseUUIDParam(c, "seasonId")
		if !ok {
			return nil
		}
		playerID, ok := parseUUIDParam(c, "playerId")
		if !ok {
			return nil
		}

		partners, err := tracker.AllPairingsForPlayer(c.Context(), seasonID, playerID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load pairing history",
			})
		}

		resp := make([]PartnerCountResponse, 0, len(partners))
		for _, p := range partners {
			resp = append(resp, PartnerCountResponse{
				PartnerID: p.PartnerID.String(),
				Count:     p.Count,
			})
		}
		return c.JSON(resp)
	}
}
