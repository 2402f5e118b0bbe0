// Package scheduler owns the weekly schedule lifecycle: creation, lookup,
// constraint validation, and the backup → generate → replace regeneration
// flow. The Manager is the system's sole mutation authority for schedules —
// handlers, CLIs, and tests all go through it, never around it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/backup"
	"github.com/trentd187/league-scheduler/internal/generator"
	"github.com/trentd187/league-scheduler/internal/models"
	"github.com/trentd187/league-scheduler/internal/store"
	"go.uber.org/zap"
)

// ErrRegenerationInProgress is returned when a second regeneration is
// attempted for a week whose previous attempt has not reached a terminal
// stage. The caller may retry once the in-flight operation finishes.
var ErrRegenerationInProgress = errors.New("another regeneration operation is currently in progress")

// ErrPreconditionFailed wraps schedule-creation precondition violations,
// e.g. a week where nobody on a non-empty roster is available. Retrying
// without changing input state will fail again.
var ErrPreconditionFailed = errors.New("precondition validation failed")

// Generator is the slice of the schedule generator the Manager needs.
// internal/generator satisfies it; tests substitute blocking or failing stubs.
type Generator interface {
	GenerateForWeek(ctx context.Context, week *models.Week, players []models.Player, opts generator.Options) (*models.Schedule, error)
}

// PairingTracker is the write side of the pairing history the Manager calls
// after committing a schedule.
type PairingTracker interface {
	TrackFoursomePairings(ctx context.Context, seasonID uuid.UUID, foursome models.Foursome) error
}

// BackupService snapshots and restores schedules around regeneration.
type BackupService interface {
	CreateBackup(ctx context.Context, schedule *models.Schedule) (backup.Metadata, error)
	RestoreFromBackup(ctx context.Context, scheduleID, backupID uuid.UUID) (bool, error)
}

// Manager orchestrates schedule creation and regeneration for all weeks.
// Safe for concurrent use: the status registry is its only mutable state,
// and all schedule/week/player data is read fresh from storage per operation.
type Manager struct {
	weeks     store.WeekStore
	players   store.PlayerStore
	schedules store.ScheduleStore
	generator Generator
	tracker   PairingTracker
	backups   BackupService
	statuses  *StatusRegistry
	log       *zap.Logger
}

// NewManager wires a Manager with a fresh, instance-owned status registry.
func NewManager(
	weeks store.WeekStore,
	players store.PlayerStore,
	schedules store.ScheduleStore,
	gen Generator,
	tracker PairingTracker,
	backups BackupService,
	log *zap.Logger,
) *Manager {
	return &Manager{
		weeks:     weeks,
		players:   players,
		schedules: schedules,
		generator: gen,
		tracker:   tracker,
		backups:   backups,
		statuses:  NewStatusRegistry(),
		log:       log,
	}
}

// CreateOptions tune CreateWeeklySchedule.
type CreateOptions struct {
	Generation generator.Options `json:"generation"`

	// ValidatePreconditions gates the "misconfigured week" check. Disabled
	// only by test suites that deliberately feed degenerate inputs.
	ValidatePreconditions bool `json:"validate_preconditions"`
}

// DefaultCreateOptions enables every heuristic and the precondition check.
func DefaultCreateOptions() CreateOptions {
	return CreateOptions{
		Generation:            generator.DefaultOptions(),
		ValidatePreconditions: true,
	}
}

// RegenerateOptions tune RegenerateSchedule.
type RegenerateOptions struct {
	Generation generator.Options `json:"generation"`

	// ForceOverwrite and PreserveManualEdits are accepted for API
	// compatibility with callers that set them; the core contract stands
	// regardless: a successful regeneration fully replaces the foursome
	// contents, and a failed one restores the originals.
	ForceOverwrite      bool `json:"force_overwrite"`
	PreserveManualEdits bool `json:"preserve_manual_edits"`
}

// DefaultRegenerateOptions enables every generation heuristic.
func DefaultRegenerateOptions() RegenerateOptions {
	return RegenerateOptions{Generation: generator.DefaultOptions()}
}

// RegenerateResult is what RegenerateSchedule hands back. Regeneration
// failure is an expected, recoverable outcome the caller must branch on, so
// it is reported in the result rather than as a returned error.
type RegenerateResult struct {
	Success         bool      `json:"success"`
	ScheduleID      uuid.UUID `json:"schedule_id,omitempty"`
	BackupID        uuid.UUID `json:"backup_id,omitempty"`
	Error           string    `json:"error,omitempty"`
	ChangesDetected bool      `json:"changes_detected"`
}

// CreateWeeklySchedule generates, persists, and returns the week's schedule.
//
// Creation is idempotent: if the week already has a schedule it is returned
// unchanged, no matter what options are passed. Otherwise the available
// players are loaded, preconditions checked, the generator run, the result
// validated and persisted, and the new pairings recorded in that order.
func (m *Manager) CreateWeeklySchedule(ctx context.Context, weekID uuid.UUID, opts CreateOptions) (*models.Schedule, error) {
	week, err := m.weeks.FindByID(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("load week %s: %w", weekID, err)
	}

	existing, err := m.schedules.FindByWeekID(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("check existing schedule for week %s: %w", weekID, err)
	}
	if existing != nil {
		return existing, nil
	}

	roster, available, err := m.loadAvailablePlayers(ctx, week)
	if err != nil {
		return nil, err
	}

	if opts.ValidatePreconditions && len(roster) > 0 && len(available) == 0 {
		// A roster exists but nobody is marked available — almost always a
		// misconfigured week (availability never entered), not a legitimate
		// request for an empty schedule.
		return nil, fmt.Errorf("%w: week %s has %d players but none available", ErrPreconditionFailed, weekID, len(roster))
	}

	schedule, err := m.generator.GenerateForWeek(ctx, week, available, opts.Generation)
	if err != nil {
		return nil, fmt.Errorf("generate schedule for week %s: %w", weekID, err)
	}

	if result := m.ValidateScheduleConstraints(schedule, available, week); !result.IsValid {
		return nil, fmt.Errorf("generated schedule for week %s failed validation: %s", weekID, strings.Join(result.Errors, "; "))
	}

	if err := m.schedules.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("persist schedule for week %s: %w", weekID, err)
	}

	if err := m.trackSchedulePairings(ctx, week.SeasonID, schedule); err != nil {
		return nil, err
	}

	m.log.Info("weekly schedule created",
		zap.String("week_id", weekID.String()),
		zap.String("schedule_id", schedule.ID.String()),
		zap.Int("available_players", len(available)),
		zap.Int("foursomes", len(schedule.Foursomes)),
	)
	return schedule, nil
}

// GetSchedule returns the week's schedule, or nil when none has been
// generated yet — "not yet generated" is an expected state, not an error.
func (m *Manager) GetSchedule(ctx context.Context, weekID uuid.UUID) (*models.Schedule, error) {
	schedule, err := m.schedules.FindByWeekID(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("get schedule for week %s: %w", weekID, err)
	}
	return schedule, nil
}

// RegenerateSchedule replaces the week's schedule contents with a freshly
// generated assignment, under the per-week regeneration state machine:
//
//	backing_up: snapshot the current schedule; a backup failure aborts
//	            before anything is touched.
//	generating: re-read availability (it may have changed since creation)
//	            and run the generator. A generation failure restores the
//	            snapshot, leaving the schedule exactly as it was.
//	replacing:  persist the new foursomes into the same schedule record and
//	            record the new pairings.
//
// Callers must invoke this only with committed intent (after any user
// confirmation) — the week's lock is taken here and nowhere earlier, so an
// abandoned confirmation dialog can never orphan a lock.
func (m *Manager) RegenerateSchedule(ctx context.Context, weekID uuid.UUID, opts RegenerateOptions) RegenerateResult {
	// Entry guard: one non-terminal operation per week. Concurrent attempts
	// for the same week fail fast; different weeks proceed independently.
	if err := m.statuses.Begin(weekID); err != nil {
		return RegenerateResult{Success: false, Error: err.Error()}
	}

	week, err := m.weeks.FindByID(ctx, weekID)
	if err != nil {
		return m.failRegeneration(weekID, fmt.Errorf("load week %s: %w", weekID, err))
	}

	schedule, err := m.schedules.FindByWeekID(ctx, weekID)
	if err != nil {
		return m.failRegeneration(weekID, fmt.Errorf("load schedule for week %s: %w", weekID, err))
	}
	if schedule == nil {
		return m.failRegeneration(weekID, fmt.Errorf("week %s has no schedule to regenerate", weekID))
	}

	// backing_up: the snapshot must exist before any destructive step.
	meta, err := m.backups.CreateBackup(ctx, schedule)
	if err != nil {
		return m.failRegeneration(weekID, fmt.Errorf("backup failed: %w", err))
	}

	m.statuses.Advance(weekID, StageGenerating)

	_, available, err := m.loadAvailablePlayers(ctx, week)
	if err != nil {
		return m.failAndRestore(ctx, weekID, schedule.ID, meta, err)
	}

	fresh, err := m.generator.GenerateForWeek(ctx, week, available, opts.Generation)
	if err != nil {
		return m.failAndRestore(ctx, weekID, schedule.ID, meta, fmt.Errorf("generation failed: %w", err))
	}
	if result := m.ValidateScheduleConstraints(fresh, available, week); !result.IsValid {
		return m.failAndRestore(ctx, weekID, schedule.ID, meta,
			fmt.Errorf("generation failed: schedule validation: %s", strings.Join(result.Errors, "; ")))
	}

	// replacing: same schedule ID, contents swapped.
	m.statuses.Advance(weekID, StageReplacing)
	if err := m.schedules.ReplaceFoursomes(ctx, schedule.ID, fresh.Foursomes); err != nil {
		return m.failAndRestore(ctx, weekID, schedule.ID, meta, fmt.Errorf("replace schedule contents: %w", err))
	}
	if err := m.trackSchedulePairings(ctx, week.SeasonID, fresh); err != nil {
		// The new schedule is fully persisted at this point; only the
		// history update failed. Report it — undercounted pairings bias
		// future fairness, so this is not swallowed.
		return m.failRegeneration(weekID, err)
	}

	changes := !sameMembership(schedule, fresh)
	m.statuses.Complete(weekID)
	m.log.Info("schedule regenerated",
		zap.String("week_id", weekID.String()),
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("backup_id", meta.ID.String()),
		zap.Bool("changes_detected", changes),
	)
	return RegenerateResult{
		Success:         true,
		ScheduleID:      schedule.ID,
		BackupID:        meta.ID,
		ChangesDetected: changes,
	}
}

// failRegeneration records a terminal failure and shapes the result.
func (m *Manager) failRegeneration(weekID uuid.UUID, err error) RegenerateResult {
	m.statuses.Fail(weekID, err.Error())
	m.log.Warn("schedule regeneration failed",
		zap.String("week_id", weekID.String()),
		zap.Error(err),
	)
	return RegenerateResult{Success: false, Error: err.Error()}
}

// failAndRestore rolls the schedule back to the pre-regeneration snapshot and
// then fails with the original error. A restore that itself fails is reported
// distinctly — that is a data-loss risk, not a plain generation failure, and
// must never be masked.
func (m *Manager) failAndRestore(ctx context.Context, weekID, scheduleID uuid.UUID, meta backup.Metadata, cause error) RegenerateResult {
	restored, restoreErr := m.backups.RestoreFromBackup(ctx, scheduleID, meta.ID)
	if restoreErr != nil || !restored {
		detail := "backup not found for schedule"
		if restoreErr != nil {
			detail = restoreErr.Error()
		}
		err := fmt.Errorf("restore from backup %s failed after generation failure (data-loss risk): %s; original error: %w",
			meta.ID, detail, cause)
		result := m.failRegeneration(weekID, err)
		result.BackupID = meta.ID
		return result
	}
	result := m.failRegeneration(weekID, cause)
	result.BackupID = meta.ID
	return result
}

// ValidationResult reports schedule constraint checks.
type ValidationResult struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors,omitempty"`
}

// ValidateScheduleConstraints checks a schedule against the week's invariants:
// every scheduled player is available, nobody is double-booked, foursome sizes
// are within 1–4, and nobody plays in a slot their preference rules out.
// Used internally after every generation and exposed for diagnostics.
func (m *Manager) ValidateScheduleConstraints(schedule *models.Schedule, availablePlayers []models.Player, week *models.Week) ValidationResult {
	result := ValidationResult{IsValid: true}
	fail := func(format string, args ...interface{}) {
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	byID := make(map[uuid.UUID]models.Player, len(availablePlayers))
	for _, p := range availablePlayers {
		byID[p.ID] = p
	}

	seen := make(map[uuid.UUID]bool)
	for _, f := range schedule.Foursomes {
		if len(f.Players) < 1 || len(f.Players) > generator.MaxFoursomeSize {
			fail("foursome %s/%d has %d players, want 1-%d", f.TimeSlot, f.Position, len(f.Players), generator.MaxFoursomeSize)
		}
		for _, fp := range f.Players {
			player, ok := byID[fp.PlayerID]
			if !ok {
				fail("player %s is scheduled but not available for week %s", fp.PlayerID, week.ID)
				continue
			}
			if seen[fp.PlayerID] {
				fail("player %s appears in more than one foursome", fp.PlayerID)
			}
			seen[fp.PlayerID] = true

			switch f.TimeSlot {
			case models.TimeSlotMorning:
				if player.TimePreference == models.TimePreferencePM {
					fail("player %s prefers pm but is scheduled in the morning", player.ID)
				}
			case models.TimeSlotAfternoon:
				if player.TimePreference == models.TimePreferenceAM {
					fail("player %s prefers am but is scheduled in the afternoon", player.ID)
				}
			default:
				fail("foursome %s/%d has unrecognized time slot", f.TimeSlot, f.Position)
			}
		}
	}
	return result
}

// IsRegenerationAllowed reports whether a regeneration may begin for the
// week right now: true unless a non-terminal operation is in flight.
func (m *Manager) IsRegenerationAllowed(weekID uuid.UUID) bool {
	return m.statuses.Allowed(weekID)
}

// GetRegenerationStatus returns the week's current regeneration status, or
// nil when the week is idle.
func (m *Manager) GetRegenerationStatus(weekID uuid.UUID) *RegenerationStatus {
	return m.statuses.Get(weekID)
}

// SetRegenerationLock is the low-level lock primitive: locked sets the week
// to generating, unlocked clears it back to idle. Exposed for UI cancellation
// flows and test cleanup — normal regeneration manages the lock itself.
func (m *Manager) SetRegenerationLock(weekID uuid.UUID, locked bool) {
	if locked {
		m.statuses.Lock(weekID)
		return
	}
	m.statuses.Clear(weekID)
}

// ForceReleaseRegenerationLock clears a week's status regardless of stage.
// Operator escape hatch for a lock orphaned by a crashed process; it touches
// no schedule data.
func (m *Manager) ForceReleaseRegenerationLock(weekID uuid.UUID) {
	m.log.Warn("force-releasing regeneration lock", zap.String("week_id", weekID.String()))
	m.statuses.Clear(weekID)
}

// ForceCleanupAllRegenerationStatuses wipes every week's status. Operator- or
// test-teardown-invoked only; never called automatically.
func (m *Manager) ForceCleanupAllRegenerationStatuses() {
	m.log.Warn("force-cleaning all regeneration statuses")
	m.statuses.Reset()
}

// loadAvailablePlayers reads the season roster and filters it by the week's
// availability answers. Missing answers count as unavailable.
func (m *Manager) loadAvailablePlayers(ctx context.Context, week *models.Week) (roster, available []models.Player, err error) {
	roster, err = m.players.FindBySeasonID(ctx, week.SeasonID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roster for season %s: %w", week.SeasonID, err)
	}
	availability := week.AvailabilityMap()
	for _, p := range roster {
		if availability[p.ID] {
			available = append(available, p)
		}
	}
	return roster, available, nil
}

// trackSchedulePairings records pairings for every foursome of a committed
// schedule.
func (m *Manager) trackSchedulePairings(ctx context.Context, seasonID uuid.UUID, schedule *models.Schedule) error {
	for _, f := range schedule.Foursomes {
		if err := m.tracker.TrackFoursomePairings(ctx, seasonID, f); err != nil {
			return fmt.Errorf("record pairings for schedule %s: %w", schedule.ID, err)
		}
	}
	return nil
}

// sameMembership reports whether two schedules assign the same players to the
// same slot and position. Foursome row IDs are ignored — membership is what
// players care about.
func sameMembership(a, b *models.Schedule) bool {
	return strings.Join(membershipKeys(a), "\n") == strings.Join(membershipKeys(b), "\n")
}

func membershipKeys(s *models.Schedule) []string {
	keys := make([]string, 0, len(s.Foursomes))
	for _, f := range s.Foursomes {
		ids := make([]string, 0, len(f.Players))
		for _, fp := range f.Players {
			ids = append(ids, fp.PlayerID.String())
		}
		sort.Strings(ids)
		keys = append(keys, fmt.Sprintf("%s/%d:%s", f.TimeSlot, f.Position, strings.Join(ids, ",")))
	}
	sort.Strings(keys)
	return keys
}
