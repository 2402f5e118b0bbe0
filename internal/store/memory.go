// memory.go — an in-memory implementation of every store interface.
// Used by the test suites and by local development without Postgres.
//
// The maps live behind one mutex, and every read and write deep-copies the
// record graph crossing the boundary. That mimics a real database: mutating a
// struct you got back from a lookup never silently changes what is "stored",
// which is exactly the property the backup/restore logic depends on.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/models"
)

// Memory holds all records for every store interface in plain maps.
// One Memory instance is shared across the per-interface accessors so the
// stores see a consistent world, the way they would share one database.
type Memory struct {
	mu sync.Mutex

	players       map[uuid.UUID]models.Player
	weeks         map[uuid.UUID]models.Week
	availability  map[uuid.UUID]map[uuid.UUID]bool // weekID -> playerID -> available
	schedules     map[uuid.UUID]models.Schedule
	scheduleByWek map[uuid.UUID]uuid.UUID // weekID -> scheduleID
	backups       map[uuid.UUID]models.ScheduleBackup
	pairings      map[pairKey]int

	clock func() time.Time // override in tests for deterministic timestamps
}

type pairKey struct {
	seasonID uuid.UUID
	playerA  uuid.UUID
	playerB  uuid.UUID
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		players:       make(map[uuid.UUID]models.Player),
		weeks:         make(map[uuid.UUID]models.Week),
		availability:  make(map[uuid.UUID]map[uuid.UUID]bool),
		schedules:     make(map[uuid.UUID]models.Schedule),
		scheduleByWek: make(map[uuid.UUID]uuid.UUID),
		backups:       make(map[uuid.UUID]models.ScheduleBackup),
		pairings:      make(map[pairKey]int),
		clock:         time.Now,
	}
}

// --- Seeding helpers (used by tests and dev bootstrap, not by the core) ---

// AddPlayer stores a player, assigning an ID if missing, and returns it.
func (m *Memory) AddPlayer(p models.Player) models.Player {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.players[p.ID] = p
	return p
}

// AddWeek stores a week, assigning an ID if missing, and returns it.
func (m *Memory) AddWeek(w models.Week) models.Week {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	w.Availability = nil // availability lives in its own map
	m.weeks[w.ID] = w
	if m.availability[w.ID] == nil {
		m.availability[w.ID] = make(map[uuid.UUID]bool)
	}
	return w
}

// --- PlayerStore ---

func (m *Memory) FindBySeasonID(ctx context.Context, seasonID uuid.UUID) ([]models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Player
	for _, p := range m.players {
		if p.SeasonID == seasonID {
			out = append(out, p)
		}
	}
	// Deterministic order, like the SQL store's ORDER BY name.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *Memory) FindByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

// --- WeekStore ---

// FindWeekByID is the WeekStore lookup. It carries a distinct name because
// Memory also implements PlayerStore/ScheduleStore/BackupStore; the Weeks()
// accessor adapts it back to the interface's FindByID.
func (m *Memory) FindWeekByID(ctx context.Context, id uuid.UUID) (*models.Week, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.weeks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := w
	cp.Availability = nil
	for playerID, avail := range m.availability[id] {
		cp.Availability = append(cp.Availability, models.WeekAvailability{
			WeekID:    id,
			PlayerID:  playerID,
			Available: avail,
		})
	}
	sort.Slice(cp.Availability, func(i, j int) bool {
		return cp.Availability[i].PlayerID.String() < cp.Availability[j].PlayerID.String()
	})
	return &cp, nil
}

func (m *Memory) SetPlayerAvailability(ctx context.Context, weekID, playerID uuid.UUID, available bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.weeks[weekID]; !ok {
		return ErrNotFound
	}
	if m.availability[weekID] == nil {
		m.availability[weekID] = make(map[uuid.UUID]bool)
	}
	m.availability[weekID][playerID] = available
	return nil
}

func (m *Memory) AvailablePlayerIDs(ctx context.Context, weekID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for playerID, avail := range m.availability[weekID] {
		if avail {
			ids = append(ids, playerID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// --- ScheduleStore ---

// FindScheduleByID is the ScheduleStore primary-key lookup; see FindWeekByID
// for why the name differs from the interface method.
func (m *Memory) FindScheduleByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copySchedule(s)
	return &cp, nil
}

func (m *Memory) FindByWeekID(ctx context.Context, weekID uuid.UUID) (*models.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scheduleID, ok := m.scheduleByWek[weekID]
	if !ok {
		return nil, nil // no schedule yet — expected state
	}
	cp := copySchedule(m.schedules[scheduleID])
	return &cp, nil
}

func (m *Memory) CreateSchedule(ctx context.Context, schedule *models.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	now := m.clock()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	for i := range schedule.Foursomes {
		f := &schedule.Foursomes[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.ScheduleID = schedule.ID
		f.CreatedAt = now
		for j := range f.Players {
			f.Players[j].FoursomeID = f.ID
		}
	}
	m.schedules[schedule.ID] = copySchedule(*schedule)
	m.scheduleByWek[schedule.WeekID] = schedule.ID
	return nil
}

func (m *Memory) ReplaceFoursomes(ctx context.Context, scheduleID uuid.UUID, foursomes []models.Foursome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[scheduleID]
	if !ok {
		return ErrNotFound
	}
	now := m.clock()
	s.Foursomes = nil
	for i := range foursomes {
		f := foursomes[i]
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		f.ScheduleID = scheduleID
		f.CreatedAt = now
		for j := range f.Players {
			f.Players[j].FoursomeID = f.ID
		}
		s.Foursomes = append(s.Foursomes, f)
	}
	s.UpdatedAt = now
	m.schedules[scheduleID] = copySchedule(s)
	return nil
}

// --- BackupStore ---

func (m *Memory) CreateBackup(ctx context.Context, backup *models.ScheduleBackup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if backup.ID == uuid.Nil {
		backup.ID = uuid.New()
	}
	backup.CreatedAt = m.clock()
	cp := *backup
	cp.Snapshot = append([]byte(nil), backup.Snapshot...)
	m.backups[backup.ID] = cp
	return nil
}

// FindBackupByID is the BackupStore primary-key lookup.
func (m *Memory) FindBackupByID(ctx context.Context, id uuid.UUID) (*models.ScheduleBackup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.backups[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := b
	cp.Snapshot = append([]byte(nil), b.Snapshot...)
	return &cp, nil
}

func (m *Memory) ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]models.ScheduleBackup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ScheduleBackup
	for _, b := range m.backups {
		if b.ScheduleID == scheduleID {
			cp := b
			cp.Snapshot = append([]byte(nil), b.Snapshot...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// --- PairingStore ---

func (m *Memory) IncrementPairCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairings[pairKey{seasonID, playerA, playerB}]++
	return nil
}

func (m *Memory) PairCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairings[pairKey{seasonID, playerA, playerB}], nil
}

func (m *Memory) PairCountsForPlayer(ctx context.Context, seasonID, playerID uuid.UUID) ([]models.PairingCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PairingCount
	for k, count := range m.pairings {
		if k.seasonID != seasonID || (k.playerA != playerID && k.playerB != playerID) {
			continue
		}
		out = append(out, models.PairingCount{
			SeasonID:  k.seasonID,
			PlayerAID: k.playerA,
			PlayerBID: k.playerB,
			Count:     count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].PlayerAID.String()+out[i].PlayerBID.String() <
			out[j].PlayerAID.String()+out[j].PlayerBID.String()
	})
	return out, nil
}

func (m *Memory) ResetSeason(ctx context.Context, seasonID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.pairings {
		if k.seasonID == seasonID {
			delete(m.pairings, k)
		}
	}
	return nil
}

// copySchedule deep-copies a schedule and its foursome graph.
func copySchedule(s models.Schedule) models.Schedule {
	cp := s
	cp.Foursomes = make([]models.Foursome, len(s.Foursomes))
	for i, f := range s.Foursomes {
		fc := f
		fc.Players = append([]models.FoursomePlayer(nil), f.Players...)
		cp.Foursomes[i] = fc
	}
	return cp
}

// --- Interface adapters ---
// Memory implements several interfaces whose method names collide (FindByID).
// These tiny accessors rename the colliding methods so one Memory value can
// serve as every store. The non-colliding methods pass straight through.

// Players returns the Memory as a PlayerStore.
func (m *Memory) Players() PlayerStore { return m }

// Weeks returns the Memory as a WeekStore.
func (m *Memory) Weeks() WeekStore { return memWeeks{m} }

// Schedules returns the Memory as a ScheduleStore.
func (m *Memory) Schedules() ScheduleStore { return memSchedules{m} }

// Backups returns the Memory as a BackupStore.
func (m *Memory) Backups() BackupStore { return memBackups{m} }

// Pairings returns the Memory as a PairingStore.
func (m *Memory) Pairings() PairingStore { return m }

type memWeeks struct{ m *Memory }

func (w memWeeks) FindByID(ctx context.Context, id uuid.UUID) (*models.Week, error) {
	return w.m.FindWeekByID(ctx, id)
}
func (w memWeeks) SetPlayerAvailability(ctx context.Context, weekID, playerID uuid.UUID, available bool) error {
	return w.m.SetPlayerAvailability(ctx, weekID, playerID, available)
}
func (w memWeeks) AvailablePlayerIDs(ctx context.Context, weekID uuid.UUID) ([]uuid.UUID, error) {
	return w.m.AvailablePlayerIDs(ctx, weekID)
}

type memSchedules struct{ m *Memory }

func (s memSchedules) FindByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	return s.m.FindScheduleByID(ctx, id)
}
func (s memSchedules) FindByWeekID(ctx context.Context, weekID uuid.UUID) (*models.Schedule, error) {
	return s.m.FindByWeekID(ctx, weekID)
}
func (s memSchedules) Create(ctx context.Context, schedule *models.Schedule) error {
	return s.m.CreateSchedule(ctx, schedule)
}
func (s memSchedules) ReplaceFoursomes(ctx context.Context, scheduleID uuid.UUID, foursomes []models.Foursome) error {
	return s.m.ReplaceFoursomes(ctx, scheduleID, foursomes)
}

type memBackups struct{ m *Memory }

func (b memBackups) Create(ctx context.Context, backup *models.ScheduleBackup) error {
	return b.m.CreateBackup(ctx, backup)
}
func (b memBackups) FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduleBackup, error) {
	return b.m.FindBackupByID(ctx, id)
}
func (b memBackups) ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]models.ScheduleBackup, error) {
	return b.m.ListByScheduleID(ctx, scheduleID)
}
