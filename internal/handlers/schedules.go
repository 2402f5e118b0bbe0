// schedules.go — handlers for the weekly schedule routes: creating and
// reading schedules, regeneration with its status and lock management, and
// backup history.
//
// Mutating routes are guarded by middleware.RequireRole("admin", "organizer")
// at registration time; the force-release and cleanup escape hatches are
// admin-only. Regeneration confirmation is the UI's job: by the time a
// request reaches RegenerateSchedule the user has already confirmed, so the
// Manager can take the week's lock with committed intent.
package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/backup"
	"github.com/trentd187/league-scheduler/internal/generator"
	"github.com/trentd187/league-scheduler/internal/models"
	"github.com/trentd187/league-scheduler/internal/scheduler"
	"github.com/trentd187/league-scheduler/internal/store"
	"github.com/trentd187/league-scheduler/internal/websocket"
)

// validate checks request DTOs against their struct tags. One shared instance
// is the validator library's recommended usage — it caches struct metadata.
var validate = validator.New()

// FoursomeResponse is one playing group in a schedule response.
type FoursomeResponse struct {
	ID        string   `json:"id"`
	TimeSlot  string   `json:"time_slot"`
	Position  int      `json:"position"`
	PlayerIDs []string `json:"player_ids"`
}

// ScheduleResponse is what we send back for a week's schedule. Foursomes are
// split into the two session buckets the tee sheet displays.
type ScheduleResponse struct {
	ID        string             `json:"id"`
	WeekID    string             `json:"week_id"`
	Morning   []FoursomeResponse `json:"morning"`
	Afternoon []FoursomeResponse `json:"afternoon"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
}

// GenerationOptionsRequest mirrors generator.Options in the request body.
// Pointers distinguish "not sent" (use the default, true) from "sent false".
type GenerationOptionsRequest struct {
	PrioritizeCompleteGroups *bool `json:"prioritize_complete_groups"`
	BalanceTimeSlots         *bool `json:"balance_time_slots"`
	OptimizePairings         *bool `json:"optimize_pairings"`
}

func (r *GenerationOptionsRequest) apply(opts *generator.Options) {
	if r == nil {
		return
	}
	if r.PrioritizeCompleteGroups != nil {
		opts.PrioritizeCompleteGroups = *r.PrioritizeCompleteGroups
	}
	if r.BalanceTimeSlots != nil {
		opts.BalanceTimeSlots = *r.BalanceTimeSlots
	}
	if r.OptimizePairings != nil {
		opts.OptimizePairings = *r.OptimizePairings
	}
}

// CreateScheduleRequest is the optional JSON body for POST .../schedule.
type CreateScheduleRequest struct {
	Options *GenerationOptionsRequest `json:"options"`
}

// RegenerateScheduleRequest is the optional JSON body for POST .../regenerate.
type RegenerateScheduleRequest struct {
	Options             *GenerationOptionsRequest `json:"options"`
	ForceOverwrite      bool                      `json:"force_overwrite"`
	PreserveManualEdits bool                      `json:"preserve_manual_edits"`
}

func scheduleToResponse(s *models.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:        s.ID.String(),
		WeekID:    s.WeekID.String(),
		Morning:   []FoursomeResponse{},
		Afternoon: []FoursomeResponse{},
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, f := range s.Foursomes {
		fr := FoursomeResponse{
			ID:        f.ID.String(),
			TimeSlot:  string(f.TimeSlot),
			Position:  f.Position,
			PlayerIDs: []string{},
		}
		for _, id := range f.PlayerIDs() {
			fr.PlayerIDs = append(fr.PlayerIDs, id.String())
		}
		if f.TimeSlot == models.TimeSlotAfternoon {
			resp.Afternoon = append(resp.Afternoon, fr)
		} else {
			resp.Morning = append(resp.Morning, fr)
		}
	}
	return resp
}

// parseUUIDParam reads a UUID route parameter, writing a 400 response and
// returning false when it is malformed.
func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": name + " must be a valid UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// GetSchedule returns a handler for GET /api/v1/weeks/:weekId/schedule.
// 404 means the week's schedule has not been generated yet.
func GetSchedule(mgr *scheduler.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekID, ok := parseUUIDParam(c, "weekId")
		if !ok {
			return nil
		}

		schedule, err := mgr.GetSchedule(c.Context(), weekID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load schedule",
			})
		}
		if schedule == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "schedule not generated yet",
			})
		}
		return c.JSON(scheduleToResponse(schedule))
	}
}

// CreateSchedule returns a handler for POST /api/v1/weeks/:weekId/schedule.
// Creation is idempotent: if the week already has a schedule it is returned
// with 200 rather than 201.
func CreateSchedule(mgr *scheduler.Manager, hub *websocket.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekID, ok := parseUUIDParam(c, "weekId")
		if !ok {
			return nil
		}

		opts := scheduler.DefaultCreateOptions()
		if len(c.Body()) > 0 {
			var req CreateScheduleRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid request body",
				})
			}
			req.Options.apply(&opts.Generation)
		}

		existing, err := mgr.GetSchedule(c.Context(), weekID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load schedule",
			})
		}

		schedule, err := mgr.CreateWeeklySchedule(c.Context(), weekID, opts)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "week not found",
				})
			case errors.Is(err, scheduler.ErrPreconditionFailed):
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
					"error": err.Error(),
				})
			default:
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "failed to create schedule",
				})
			}
		}

		resp := scheduleToResponse(schedule)
		status := fiber.StatusCreated
		if existing != nil {
			// Idempotent create: same schedule handed back unchanged.
			status = fiber.StatusOK
		} else {
			broadcastScheduleEvent(hub, weekID, "schedule_created", resp)
		}
		return c.Status(status).JSON(resp)
	}
}

// RegenerateSchedule returns a handler for
// POST /api/v1/weeks/:weekId/schedule/regenerate.
// A 409 signals a concurrent regeneration already in flight for this week.
func RegenerateSchedule(mgr *scheduler.Manager, hub *websocket.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekID, ok := parseUUIDParam(c, "weekId")
		if !ok {
			return nil
		}

		opts := scheduler.DefaultRegenerateOptions()
		if len(c.Body()) > 0 {
			var req RegenerateScheduleRequest
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid request body",
				})
			}
			req.Options.apply(&opts.Generation)
			opts.ForceOverwrite = req.ForceOverwrite
			opts.PreserveManualEdits = req.PreserveManualEdits
		}

		result := mgr.RegenerateSchedule(c.Context(), weekID, opts)
		if !result.Success {
			status := fiber.StatusInternalServerError
			if result.Error == scheduler.ErrRegenerationInProgress.Error() {
				status = fiber.StatusConflict
			}
			return c.Status(status).JSON(result)
		}

		broadcastScheduleEvent(hub, weekID, "schedule_regenerated", result)
		return c.JSON(result)
	}
}

// GetRegenerationStatus returns a handler for
// GET /api/v1/weeks/:weekId/regeneration-status.
// An idle week reports {"stage": "idle"} rather than 404 — idle is a state,
// not an absence.
func GetRegenerationStatus(mgr *scheduler.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekID, ok := parseUUIDParam(c, "weekId")
		if !ok {
			return nil
		}

		status := mgr.GetRegenerationStatus(weekID)
		if status == nil {
			return c.JSON(fiber.Map{
				"week_id": weekID.String(),
				"stage":   string(scheduler.StageIdle),
				"allowed": mgr.IsRegenerationAllowed(weekID),
			})
		}
		return c.JSON(fiber.Map{
			"week_id":    status.WeekID.String(),
			"stage":      string(status.Stage),
			"started_at": status.StartedAt.UTC().Format(time.RFC3339),
			"error":      status.Error,
			"allowed":    mgr.IsRegenerationAllowed(weekID),
		})
	}
}

// ForceReleaseRegenerationLock returns a handler for
// DELETE /api/v1/weeks/:weekId/regeneration-lock. Admin-only escape hatch for
// locks orphaned by a crashed process; touches no schedule data.
func ForceReleaseRegenerationLock(mgr *scheduler.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekID, ok := parseUUIDParam(c, "weekId")
		if !ok {
			return nil
		}
		mgr.ForceReleaseRegenerationLock(weekID)
		return c.JSON(fiber.Map{"released": true})
	}
}

// CleanupRegenerationStatuses returns a handler for
// POST /api/v1/admin/regeneration-statuses/cleanup. Admin-only; wipes every
// week's status at once.
func CleanupRegenerationStatuses(mgr *scheduler.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mgr.ForceCleanupAllRegenerationStatuses()
		return c.JSON(fiber.Map{"cleaned": true})
	}
}

// ListBackups returns a handler for GET /api/v1/schedules/:scheduleId/backups,
// the snapshot history for a schedule, newest first.
func ListBackups(svc *backup.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheduleID, ok := parseUUIDParam(c, "scheduleId")
		if !ok {
			return nil
		}

		backups, err := svc.ListBackups(c.Context(), scheduleID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list backups",
			})
		}
		return c.JSON(backups)
	}
}

// broadcastScheduleEvent pushes a JSON event to everyone watching the week.
// Best effort — a marshalling problem shouldn't fail the HTTP request that
// already committed its work.
func broadcastScheduleEvent(hub *websocket.Hub, weekID uuid.UUID, event string, payload interface{}) {
	if hub == nil {
		return
	}
	data, err := json.Marshal(fiber.Map{"event": event, "payload": payload})
	if err != nil {
		return
	}
	hub.BroadcastToWeek(weekID.String(), data)
}
