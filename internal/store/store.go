// Package store defines the persistence interfaces the scheduling core works
// against, plus two implementations: a GORM/Postgres store for production and
// an in-memory store for development and tests.
//
// The scheduling core (generator, pairing tracker, backup service, schedule
// manager) never touches GORM directly — it sees only these interfaces. That
// keeps the algorithmic code free of SQL concerns and lets tests run against
// the in-memory store without a database.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/models"
)

// ErrNotFound is returned by lookup methods when the record does not exist.
// Callers distinguish "missing" from real storage failures with errors.Is.
// Methods documented to return nil-without-error on a miss (FindByWeekID)
// never return this.
var ErrNotFound = errors.New("record not found")

// PlayerStore looks up season rosters.
type PlayerStore interface {
	// FindBySeasonID returns every player on the season's roster.
	// An empty roster is an empty slice, not an error.
	FindBySeasonID(ctx context.Context, seasonID uuid.UUID) ([]models.Player, error)

	// FindByID returns one player or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
}

// WeekStore looks up weeks and mutates per-player availability.
type WeekStore interface {
	// FindByID returns the week with its availability rows preloaded,
	// or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Week, error)

	// SetPlayerAvailability records (or overwrites) one player's availability
	// answer for a week.
	SetPlayerAvailability(ctx context.Context, weekID, playerID uuid.UUID, available bool) error

	// AvailablePlayerIDs returns the IDs of players who answered "available"
	// for the week. Players with no answer are excluded.
	AvailablePlayerIDs(ctx context.Context, weekID uuid.UUID) ([]uuid.UUID, error)
}

// ScheduleStore persists schedules and their foursomes.
type ScheduleStore interface {
	// FindByID returns the schedule with foursomes and their player join rows
	// preloaded, or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error)

	// FindByWeekID returns the week's schedule, or (nil, nil) when the week
	// has no schedule yet — "not generated" is an expected state, not an error.
	FindByWeekID(ctx context.Context, weekID uuid.UUID) (*models.Schedule, error)

	// Create persists a new schedule together with its foursomes and
	// membership rows, populating generated IDs on the passed struct.
	Create(ctx context.Context, schedule *models.Schedule) error

	// ReplaceFoursomes atomically swaps a schedule's foursome contents:
	// existing foursome and membership rows are deleted and the given ones
	// written in their place. The schedule row itself (ID, WeekID) is kept,
	// only its UpdatedAt changes. This is the regeneration write path — the
	// schedule ID must survive.
	ReplaceFoursomes(ctx context.Context, scheduleID uuid.UUID, foursomes []models.Foursome) error
}

// BackupStore persists schedule snapshots.
type BackupStore interface {
	// Create persists a new backup record, populating its generated ID.
	Create(ctx context.Context, backup *models.ScheduleBackup) error

	// FindByID returns one backup or ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduleBackup, error)

	// ListByScheduleID returns every backup taken of the schedule,
	// newest first.
	ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]models.ScheduleBackup, error)
}

// PairingStore persists per-season pairing co-occurrence counts.
// Callers must pass pairs in canonical order (playerA < playerB by UUID
// string); the pairing tracker is the only intended caller and handles that.
type PairingStore interface {
	// IncrementPairCount adds one to the pair's co-occurrence count,
	// creating the row with count 1 if it does not exist yet.
	IncrementPairCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) error

	// PairCount returns the pair's current count; 0 (not an error) when no
	// row exists.
	PairCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) (int, error)

	// PairCountsForPlayer returns every stored pairing involving the player
	// in the season, regardless of which canonical side the player is on.
	PairCountsForPlayer(ctx context.Context, seasonID, playerID uuid.UUID) ([]models.PairingCount, error)

	// ResetSeason deletes the season's entire pairing history. Explicit
	// season reset is the only way pairing history is ever deleted.
	ResetSeason(ctx context.Context, seasonID uuid.UUID) error
}
