package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trentd187/league-scheduler/internal/backup"
	"github.com/trentd187/league-scheduler/internal/generator"
	"github.com/trentd187/league-scheduler/internal/models"
	"github.com/trentd187/league-scheduler/internal/pairing"
	"github.com/trentd187/league-scheduler/internal/scheduler"
	"github.com/trentd187/league-scheduler/internal/store"
)

// env bundles one shared in-memory store with a fully wired manager, the way
// main.go wires the real thing against Postgres.
type env struct {
	mem      *store.Memory
	manager  *scheduler.Manager
	tracker  *pairing.Tracker
	seasonID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mem := store.NewMemory()
	return &env{
		mem:      mem,
		manager:  newManager(mem, newGenerator(mem)),
		tracker:  pairing.NewTracker(mem.Pairings(), zap.NewNop()),
		seasonID: uuid.New(),
	}
}

// newGenerator builds a real generator reading pairing costs through a tracker
// over the shared store, as main.go does.
func newGenerator(mem *store.Memory) *generator.Generator {
	log := zap.NewNop()
	return generator.New(pairing.NewTracker(mem.Pairings(), log), log)
}

// newManager wires a manager over the shared store with the given generator,
// so tests can swap in failing or blocking generators against the same data.
func newManager(mem *store.Memory, gen scheduler.Generator) *scheduler.Manager {
	log := zap.NewNop()
	return scheduler.NewManager(
		mem.Weeks(), mem.Players(), mem.Schedules(),
		gen,
		pairing.NewTracker(mem.Pairings(), log),
		backup.NewService(mem.Backups(), mem.Schedules(), log),
		log,
	)
}

func newManagerWithBackups(mem *store.Memory, backups scheduler.BackupService) *scheduler.Manager {
	log := zap.NewNop()
	return scheduler.NewManager(
		mem.Weeks(), mem.Players(), mem.Schedules(),
		newGenerator(mem),
		pairing.NewTracker(mem.Pairings(), log),
		backups,
		log,
	)
}

func (e *env) addWeek(number int) models.Week {
	return e.mem.AddWeek(models.Week{
		SeasonID:   e.seasonID,
		WeekNumber: number,
		Date:       time.Date(2026, time.June, 1+7*number, 8, 0, 0, 0, time.UTC),
	})
}

// addPlayers seeds one player per preference, all marked available for the week.
func (e *env) addPlayers(t *testing.T, week models.Week, prefs ...models.TimePreference) []models.Player {
	t.Helper()
	players := make([]models.Player, 0, len(prefs))
	for i, pref := range prefs {
		p := e.mem.AddPlayer(models.Player{
			SeasonID:       e.seasonID,
			Name:           fmt.Sprintf("player-%02d", i),
			TimePreference: pref,
		})
		require.NoError(t, e.mem.Weeks().SetPlayerAvailability(context.Background(), week.ID, p.ID, true))
		players = append(players, p)
	}
	return players
}

func scheduledIDs(s *models.Schedule) []uuid.UUID {
	var ids []uuid.UUID
	for _, f := range s.Foursomes {
		ids = append(ids, f.PlayerIDs()...)
	}
	return ids
}

// membership flattens a schedule to slot/position → sorted member IDs, ignoring
// row IDs, so "same assignment" survives a restore that rewrites foursome rows.
func membership(s *models.Schedule) []string {
	keys := make([]string, 0, len(s.Foursomes))
	for _, f := range s.Foursomes {
		var ids []string
		for _, fp := range f.Players {
			ids = append(ids, fp.PlayerID.String())
		}
		sort.Strings(ids)
		keys = append(keys, fmt.Sprintf("%s/%d:%s", f.TimeSlot, f.Position, strings.Join(ids, ",")))
	}
	sort.Strings(keys)
	return keys
}

// --- Test doubles ---

var errGeneratorDown = errors.New("generator exploded")

type failingGenerator struct{}

func (failingGenerator) GenerateForWeek(context.Context, *models.Week, []models.Player, generator.Options) (*models.Schedule, error) {
	return nil, errGeneratorDown
}

// gatedGenerator blocks generation for one specific week until released,
// delegating everything else. This makes the "regeneration in flight" window
// deterministic instead of racing goroutines against each other.
type gatedGenerator struct {
	inner    scheduler.Generator
	gateWeek uuid.UUID
	started  chan struct{}
	release  chan struct{}
}

func newGatedGenerator(inner scheduler.Generator, gateWeek uuid.UUID) *gatedGenerator {
	return &gatedGenerator{
		inner:    inner,
		gateWeek: gateWeek,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedGenerator) GenerateForWeek(ctx context.Context, week *models.Week, players []models.Player, opts generator.Options) (*models.Schedule, error) {
	if week.ID == g.gateWeek {
		close(g.started)
		<-g.release
	}
	return g.inner.GenerateForWeek(ctx, week, players, opts)
}

var errSnapshotStore = errors.New("snapshot store unavailable")

type failingBackups struct{}

func (failingBackups) CreateBackup(context.Context, *models.Schedule) (backup.Metadata, error) {
	return backup.Metadata{}, errSnapshotStore
}

func (failingBackups) RestoreFromBackup(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

// unrestorableBackups snapshots normally but refuses every restore, simulating
// a backup record that went missing between capture and rollback.
type unrestorableBackups struct{ inner scheduler.BackupService }

func (u unrestorableBackups) CreateBackup(ctx context.Context, s *models.Schedule) (backup.Metadata, error) {
	return u.inner.CreateBackup(ctx, s)
}

func (unrestorableBackups) RestoreFromBackup(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

// --- Creation ---

func TestManager_CreateWeeklySchedule(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	players := e.addPlayers(t, week,
		models.TimePreferenceAM, models.TimePreferenceAM,
		models.TimePreferencePM, models.TimePreferencePM,
		models.TimePreferenceEither, models.TimePreferenceEither,
	)

	schedule, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Equal(t, week.ID, schedule.WeekID)
	require.NotEmpty(t, schedule.Foursomes)

	// Every available player is scheduled exactly once.
	ids := scheduledIDs(schedule)
	assert.Len(t, ids, len(players))
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "player %s double-booked", id)
		seen[id] = true
	}

	// Hard preferences are honored.
	slotByPlayer := make(map[uuid.UUID]models.TimeSlot)
	for _, f := range schedule.Foursomes {
		assert.LessOrEqual(t, len(f.Players), generator.MaxFoursomeSize)
		for _, fp := range f.Players {
			slotByPlayer[fp.PlayerID] = f.TimeSlot
		}
	}
	for _, p := range players {
		switch p.TimePreference {
		case models.TimePreferenceAM:
			assert.Equal(t, models.TimeSlotMorning, slotByPlayer[p.ID])
		case models.TimePreferencePM:
			assert.Equal(t, models.TimeSlotAfternoon, slotByPlayer[p.ID])
		}
	}

	// Teammate pairings were recorded against the season history.
	recorded := false
	for _, f := range schedule.Foursomes {
		members := f.PlayerIDs()
		if len(members) < 2 {
			continue
		}
		count, err := e.tracker.PairingCount(ctx, e.seasonID, members[0], members[1])
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		recorded = true
	}
	assert.True(t, recorded)
}

func TestManager_CreateIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week,
		models.TimePreferenceAM, models.TimePreferenceAM,
		models.TimePreferenceAM, models.TimePreferenceAM,
	)

	first, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)
	second, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, membership(first), membership(second))

	// The second call must not re-record pairings.
	members := first.Foursomes[0].PlayerIDs()
	count, err := e.tracker.PairingCount(ctx, e.seasonID, members[0], members[1])
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestManager_CreateSkipsUnavailablePlayers(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	available := e.addPlayers(t, week, models.TimePreferenceEither, models.TimePreferenceEither)

	// One explicit "no" and one player who never responded.
	declined := e.mem.AddPlayer(models.Player{SeasonID: e.seasonID, Name: "declined", TimePreference: models.TimePreferenceEither})
	require.NoError(t, e.mem.Weeks().SetPlayerAvailability(ctx, week.ID, declined.ID, false))
	silent := e.mem.AddPlayer(models.Player{SeasonID: e.seasonID, Name: "silent", TimePreference: models.TimePreferenceEither})

	schedule, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	ids := scheduledIDs(schedule)
	assert.ElementsMatch(t, []uuid.UUID{available[0].ID, available[1].ID}, ids)
	assert.NotContains(t, ids, declined.ID)
	assert.NotContains(t, ids, silent.ID)
}

func TestManager_CreatePreconditionOnEmptyAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	for i := 0; i < 3; i++ {
		p := e.mem.AddPlayer(models.Player{SeasonID: e.seasonID, Name: fmt.Sprintf("bench-%d", i)})
		require.NoError(t, e.mem.Weeks().SetPlayerAvailability(ctx, week.ID, p.ID, false))
	}

	_, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.ErrorIs(t, err, scheduler.ErrPreconditionFailed)

	// Nothing was persisted by the failed attempt.
	schedule, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	assert.Nil(t, schedule)

	// With the check disabled the week gets an empty schedule.
	opts := scheduler.DefaultCreateOptions()
	opts.ValidatePreconditions = false
	schedule, err = e.manager.CreateWeeklySchedule(ctx, week.ID, opts)
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Empty(t, schedule.Foursomes)
}

func TestManager_CreateEmptyRosterYieldsEmptySchedule(t *testing.T) {
	e := newEnv(t)
	week := e.addWeek(1)

	// No players in the season at all — not a misconfiguration, just early setup.
	schedule, err := e.manager.CreateWeeklySchedule(context.Background(), week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)
	require.NotNil(t, schedule)
	assert.Empty(t, schedule.Foursomes)
}

func TestManager_CreateUnknownWeek(t *testing.T) {
	e := newEnv(t)
	_, err := e.manager.CreateWeeklySchedule(context.Background(), uuid.New(), scheduler.DefaultCreateOptions())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestManager_GetScheduleBeforeAndAfterCreation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week, models.TimePreferenceAM, models.TimePreferenceAM)

	before, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	assert.Nil(t, before, "not yet generated is nil, not an error")

	created, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	after, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.Equal(t, created.ID, after.ID)
}

// --- Regeneration ---

func TestManager_RegenerateUsesFreshAvailability(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	players := e.addPlayers(t, week,
		models.TimePreferenceAM, models.TimePreferenceAM,
		models.TimePreferenceAM, models.TimePreferenceAM,
		models.TimePreferenceAM, models.TimePreferenceAM,
	)

	created, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)
	require.Contains(t, scheduledIDs(created), players[0].ID)

	// The first player drops out between creation and regeneration.
	require.NoError(t, e.mem.Weeks().SetPlayerAvailability(ctx, week.ID, players[0].ID, false))

	result := e.manager.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())
	require.True(t, result.Success, "regeneration error: %s", result.Error)
	assert.Equal(t, created.ID, result.ScheduleID, "regeneration keeps the schedule record")
	assert.NotEqual(t, uuid.Nil, result.BackupID)
	assert.True(t, result.ChangesDetected)

	fresh, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fresh.ID)
	assert.NotContains(t, scheduledIDs(fresh), players[0].ID)
	assert.Len(t, scheduledIDs(fresh), len(players)-1)

	// Terminal success leaves no status behind.
	assert.Nil(t, e.manager.GetRegenerationStatus(week.ID))
	assert.True(t, e.manager.IsRegenerationAllowed(week.ID))
}

func TestManager_RegenerateNoChangesDetected(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week,
		models.TimePreferenceAM, models.TimePreferenceAM,
		models.TimePreferenceAM, models.TimePreferenceAM,
	)

	created, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	// Same availability, four players in one slot — the only possible grouping
	// is the one we already have.
	result := e.manager.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())
	require.True(t, result.Success, "regeneration error: %s", result.Error)
	assert.False(t, result.ChangesDetected)

	fresh, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	assert.Equal(t, membership(created), membership(fresh))
}

func TestManager_RegenerateWithoutScheduleFails(t *testing.T) {
	e := newEnv(t)
	week := e.addWeek(1)

	result := e.manager.RegenerateSchedule(context.Background(), week.ID, scheduler.DefaultRegenerateOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no schedule to regenerate")

	// Failed is terminal: inspectable, not blocking.
	status := e.manager.GetRegenerationStatus(week.ID)
	require.NotNil(t, status)
	assert.Equal(t, scheduler.StageFailed, status.Stage)
	assert.True(t, e.manager.IsRegenerationAllowed(week.ID))
}

func TestManager_RegenerateRestoresOnGenerationFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week,
		models.TimePreferenceAM, models.TimePreferencePM,
		models.TimePreferenceEither, models.TimePreferenceEither,
	)

	created, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	broken := newManager(e.mem, failingGenerator{})
	result := broken.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "generation failed")
	assert.NotEqual(t, uuid.Nil, result.BackupID, "the snapshot taken before the failure is reported")

	// The schedule is exactly what it was before the attempt.
	after, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, after.ID)
	assert.Equal(t, membership(created), membership(after))

	status := broken.GetRegenerationStatus(week.ID)
	require.NotNil(t, status)
	assert.Equal(t, scheduler.StageFailed, status.Stage)
	assert.True(t, broken.IsRegenerationAllowed(week.ID))
}

func TestManager_RegenerateBackupFailureAbortsBeforeMutation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week, models.TimePreferenceAM, models.TimePreferenceAM, models.TimePreferenceAM)

	created, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	broken := newManagerWithBackups(e.mem, failingBackups{})
	result := broken.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "backup failed")
	assert.Equal(t, uuid.Nil, result.BackupID)

	after, err := e.manager.GetSchedule(ctx, week.ID)
	require.NoError(t, err)
	assert.Equal(t, membership(created), membership(after), "nothing is touched without a snapshot")
}

func TestManager_RegenerateReportsDataLossRiskWhenRestoreFails(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week, models.TimePreferenceAM, models.TimePreferenceAM)

	_, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	log := zap.NewNop()
	backups := unrestorableBackups{inner: backup.NewService(e.mem.Backups(), e.mem.Schedules(), log)}
	broken := scheduler.NewManager(
		e.mem.Weeks(), e.mem.Players(), e.mem.Schedules(),
		failingGenerator{},
		pairing.NewTracker(e.mem.Pairings(), log),
		backups,
		log,
	)

	result := broken.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "data-loss risk")
	assert.Contains(t, result.Error, errGeneratorDown.Error(), "the original cause stays in the report")
	assert.NotEqual(t, uuid.Nil, result.BackupID, "the operator needs the backup id to recover by hand")
}

func TestManager_RegenerateMutualExclusionPerWeek(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week1 := e.addWeek(1)
	week2 := e.addWeek(2)
	// The same four players are available both weeks.
	for _, p := range e.addPlayers(t, week1,
		models.TimePreferenceAM, models.TimePreferenceAM,
		models.TimePreferenceAM, models.TimePreferencePM,
	) {
		require.NoError(t, e.mem.Weeks().SetPlayerAvailability(ctx, week2.ID, p.ID, true))
	}

	_, err := e.manager.CreateWeeklySchedule(ctx, week1.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)
	_, err = e.manager.CreateWeeklySchedule(ctx, week2.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	gate := newGatedGenerator(newGenerator(e.mem), week1.ID)
	mgr := newManager(e.mem, gate)

	resultCh := make(chan scheduler.RegenerateResult, 1)
	go func() {
		resultCh <- mgr.RegenerateSchedule(ctx, week1.ID, scheduler.DefaultRegenerateOptions())
	}()
	<-gate.started // week1 regeneration is now parked mid-generation

	assert.False(t, mgr.IsRegenerationAllowed(week1.ID))
	status := mgr.GetRegenerationStatus(week1.ID)
	require.NotNil(t, status)
	assert.Equal(t, scheduler.StageGenerating, status.Stage)

	// A second attempt on the same week fails fast, no queueing.
	second := mgr.RegenerateSchedule(ctx, week1.ID, scheduler.DefaultRegenerateOptions())
	assert.False(t, second.Success)
	assert.Equal(t, scheduler.ErrRegenerationInProgress.Error(), second.Error)

	// A different week is independent and completes while week1 is in flight.
	other := mgr.RegenerateSchedule(ctx, week2.ID, scheduler.DefaultRegenerateOptions())
	assert.True(t, other.Success, "week2 regeneration error: %s", other.Error)

	close(gate.release)
	first := <-resultCh
	assert.True(t, first.Success, "week1 regeneration error: %s", first.Error)
	assert.Nil(t, mgr.GetRegenerationStatus(week1.ID))
	assert.True(t, mgr.IsRegenerationAllowed(week1.ID))
}

// --- Lock escape hatches ---

func TestManager_SetRegenerationLock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	week := e.addWeek(1)
	e.addPlayers(t, week, models.TimePreferenceAM, models.TimePreferenceAM)
	_, err := e.manager.CreateWeeklySchedule(ctx, week.ID, scheduler.DefaultCreateOptions())
	require.NoError(t, err)

	e.manager.SetRegenerationLock(week.ID, true)
	assert.False(t, e.manager.IsRegenerationAllowed(week.ID))

	blocked := e.manager.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())
	assert.False(t, blocked.Success)
	assert.Equal(t, scheduler.ErrRegenerationInProgress.Error(), blocked.Error)

	e.manager.SetRegenerationLock(week.ID, false)
	assert.True(t, e.manager.IsRegenerationAllowed(week.ID))

	unblocked := e.manager.RegenerateSchedule(ctx, week.ID, scheduler.DefaultRegenerateOptions())
	assert.True(t, unblocked.Success, "regeneration error: %s", unblocked.Error)
}

func TestManager_ForceReleaseRegenerationLock(t *testing.T) {
	e := newEnv(t)
	week := e.addWeek(1)

	e.manager.SetRegenerationLock(week.ID, true)
	require.False(t, e.manager.IsRegenerationAllowed(week.ID))

	e.manager.ForceReleaseRegenerationLock(week.ID)
	assert.True(t, e.manager.IsRegenerationAllowed(week.ID))
	assert.Nil(t, e.manager.GetRegenerationStatus(week.ID))
}

func TestManager_ForceCleanupAllRegenerationStatuses(t *testing.T) {
	e := newEnv(t)
	week1, week2 := e.addWeek(1), e.addWeek(2)

	e.manager.SetRegenerationLock(week1.ID, true)
	e.manager.SetRegenerationLock(week2.ID, true)

	e.manager.ForceCleanupAllRegenerationStatuses()
	assert.True(t, e.manager.IsRegenerationAllowed(week1.ID))
	assert.True(t, e.manager.IsRegenerationAllowed(week2.ID))
}

// --- Constraint validation ---

func TestManager_ValidateScheduleConstraints(t *testing.T) {
	e := newEnv(t)
	week := e.addWeek(1)
	morningFan := e.mem.AddPlayer(models.Player{SeasonID: e.seasonID, Name: "am", TimePreference: models.TimePreferenceAM})
	eveningFan := e.mem.AddPlayer(models.Player{SeasonID: e.seasonID, Name: "pm", TimePreference: models.TimePreferencePM})
	available := []models.Player{morningFan, eveningFan}

	valid := &models.Schedule{WeekID: week.ID, Foursomes: []models.Foursome{
		{TimeSlot: models.TimeSlotMorning, Position: 0, Players: []models.FoursomePlayer{{PlayerID: morningFan.ID}}},
		{TimeSlot: models.TimeSlotAfternoon, Position: 0, Players: []models.FoursomePlayer{{PlayerID: eveningFan.ID}}},
	}}
	result := e.manager.ValidateScheduleConstraints(valid, available, &week)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)

	// One schedule with every kind of violation: a pm player in the morning,
	// a double booking, and a stranger who is not on the available list.
	stranger := uuid.New()
	bad := &models.Schedule{WeekID: week.ID, Foursomes: []models.Foursome{
		{TimeSlot: models.TimeSlotMorning, Position: 0, Players: []models.FoursomePlayer{
			{PlayerID: eveningFan.ID},
			{PlayerID: morningFan.ID},
		}},
		{TimeSlot: models.TimeSlotMorning, Position: 1, Players: []models.FoursomePlayer{
			{PlayerID: morningFan.ID},
			{PlayerID: stranger},
		}},
	}}
	result = e.manager.ValidateScheduleConstraints(bad, available, &week)
	assert.False(t, result.IsValid)
	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "prefers pm")
	assert.Contains(t, joined, "more than one foursome")
	assert.Contains(t, joined, "not available")

	oversized := &models.Schedule{WeekID: week.ID, Foursomes: []models.Foursome{
		{TimeSlot: models.TimeSlotMorning, Position: 0, Players: []models.FoursomePlayer{
			{PlayerID: morningFan.ID}, {PlayerID: uuid.New()}, {PlayerID: uuid.New()},
			{PlayerID: uuid.New()}, {PlayerID: uuid.New()},
		}},
	}}
	result = e.manager.ValidateScheduleConstraints(oversized, available, &week)
	assert.False(t, result.IsValid)
	assert.Contains(t, strings.Join(result.Errors, "\n"), "players, want 1-4")
}
