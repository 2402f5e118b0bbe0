// Package models defines the data structures (models) that map to database tables.
// GORM uses these structs to generate SQL queries and map database rows back to Go values.
// The struct field tags (the backtick strings like `gorm:"..."`) tell GORM how to handle
// each field: its column type, constraints, default values, and relationships.
//
// The data model represents a recurring weekly league where:
//   - A Season owns Players and Weeks
//   - Each Week records per-player availability and carries at most one Schedule
//   - A Schedule partitions the available players into Foursomes across a
//     morning and an afternoon time slot
//   - PairingCount rows remember how often two players have shared a foursome,
//     so future schedules can spread pairings out fairly
//   - ScheduleBackup rows hold point-in-time snapshots taken before a schedule
//     is regenerated, so a failed regeneration can be rolled back
//
// There is no standalone "foursome roster" concept — FoursomePlayer join rows
// place a player into a foursome, the same way a tee sheet places a golfer
// into a tee-time group.
package models

import (
	"time"

	// uuid provides universally unique identifiers for primary keys.
	// Using UUIDs instead of auto-incrementing integers makes IDs safe to generate
	// client-side and avoids leaking record counts to end users.
	"github.com/google/uuid"
	// datatypes adds database-agnostic column types; datatypes.JSON stores the
	// backup snapshot payload as a JSONB blob without a rigid schema.
	"gorm.io/datatypes"
)

// --- Enums ---
// Go doesn't have a built-in enum keyword, so we simulate them using a named string type
// plus constants. This gives us type safety — you can't accidentally pass a TimeSlot
// where a TimePreference is expected — while keeping the values human-readable in the database.

// UserRole represents a user's global permission level across the entire platform.
type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"     // Full access: manage seasons, force-release stuck locks
	UserRoleOrganizer UserRole = "organizer" // Can create and regenerate weekly schedules
	UserRolePlayer    UserRole = "player"    // Regular league member: can view schedules and set availability
)

// TimePreference is a player's standing preference for which session they play in.
// "either" players are the flexible ones the generator uses to balance the two slots.
type TimePreference string

const (
	TimePreferenceAM     TimePreference = "am"     // Morning only
	TimePreferencePM     TimePreference = "pm"     // Afternoon only
	TimePreferenceEither TimePreference = "either" // Happy with either session
)

// Handedness is cosmetic roster information — it never influences scheduling,
// but leagues like to show it on the printed tee sheet.
type Handedness string

const (
	HandednessRight Handedness = "right"
	HandednessLeft  Handedness = "left"
)

// TimeSlot identifies which session of the day a foursome plays in.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
)

// --- Models ---
// Each struct below maps to a database table. GORM uses the struct name (snake_cased and
// pluralized) as the table name by default: Season -> seasons, Player -> players, etc.

// User represents a registered person in the system.
// Users are created automatically the first time an authenticated user hits the API.
// The SubjectID links our internal record to the identity provider's subject claim.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"` // UUID primary key; the DB generates it automatically
	SubjectID   *string   `gorm:"uniqueIndex:idx_users_subject_id"`               // Identity provider subject ("sub" claim); pointer = nullable for legacy rows
	DisplayName string    `gorm:"not null"`                                       // The name shown in the app; populated from the JWT "name" claim
	Email       string    `gorm:"uniqueIndex;not null"`                           // Unique email; populated from the JWT "email" claim
	Role        UserRole  `gorm:"type:user_role;not null;default:'player'"`       // Global role; synced from the JWT "role" claim
	CreatedAt   time.Time                                                         // GORM automatically sets this on create
	UpdatedAt   time.Time                                                         // GORM automatically updates this on every save
}

// Season is the top-level container: one recurring weekly league running for
// one calendar season. Players and weeks always belong to exactly one season,
// and pairing history is scoped per season so last year's groupings don't
// influence this year's schedules.
type Season struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"` // Display name, e.g. "Thursday Night League 2026"
	Year      int       `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Players   []Player `gorm:"foreignKey:SeasonID"` // Roster for this season
	Weeks     []Week   `gorm:"foreignKey:SeasonID"` // Play dates for this season
}

// Player is one member of a season's roster.
// Identity is by ID; a player record is immutable once scheduled except
// through an explicit update.
type Player struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SeasonID       uuid.UUID      `gorm:"type:uuid;not null"`
	Season         Season         `gorm:"foreignKey:SeasonID"`
	Name           string         `gorm:"not null"`
	Handedness     Handedness     `gorm:"type:handedness;not null;default:'right'"`       // Cosmetic only — shown on the tee sheet
	TimePreference TimePreference `gorm:"type:time_preference;not null;default:'either'"` // Which session the player wants to play in
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Week is one play date in a season.
// Availability is tracked per player in WeekAvailability join rows; a player
// with no row for a week has not decided yet, which the scheduler treats as
// unavailable. Availability changes independently of schedule generation and
// may change between a schedule's creation and its regeneration.
type Week struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SeasonID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_season_week_number"` // Combined unique index with WeekNumber
	Season       Season    `gorm:"foreignKey:SeasonID"`
	WeekNumber   int       `gorm:"not null;uniqueIndex:idx_season_week_number"` // 1 for the first week of the season, 2 for the second, etc.
	Date         time.Time `gorm:"not null"`                                    // Calendar date of play
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Availability []WeekAvailability `gorm:"foreignKey:WeekID"` // Per-player availability responses
}

// WeekAvailability records one player's answer to "are you playing this week?".
// Composite primary key prevents duplicate responses for the same player+week.
// Absence of a row means the player hasn't responded — treated as unavailable.
type WeekAvailability struct {
	WeekID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlayerID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Week      Week      `gorm:"foreignKey:WeekID"`
	Player    Player    `gorm:"foreignKey:PlayerID"`
	Available bool      `gorm:"not null"`
	UpdatedAt time.Time
}

// AvailabilityMap flattens the join rows into a playerID -> available lookup.
// Handy for the scheduler, which works in terms of sets rather than rows.
func (w *Week) AvailabilityMap() map[uuid.UUID]bool {
	m := make(map[uuid.UUID]bool, len(w.Availability))
	for _, a := range w.Availability {
		m[a.PlayerID] = a.Available
	}
	return m
}

// Schedule is the weekly assignment of players to foursomes.
// Exactly one schedule exists per week — the Schedule Manager enforces that
// logically (idempotent creation), and the unique index backs it up.
//
// Regeneration mutates a schedule in place: same schedule ID, same week ID,
// foursome contents replaced. External references to the schedule ID therefore
// stay valid across regeneration.
type Schedule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WeekID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_schedules_week_id"`
	Week      Week      `gorm:"foreignKey:WeekID"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Foursomes []Foursome `gorm:"foreignKey:ScheduleID"` // Both time slots; filter by TimeSlot for one session
}

// Foursome is one playing group of 1–4 players within a time slot.
// Position is a 0-based sequential index within the slot: the morning slot's
// foursomes are numbered 0, 1, 2... independently of the afternoon's.
// Invariant: a player appears in at most one foursome per schedule.
type Foursome struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID uuid.UUID `gorm:"type:uuid;not null"`
	TimeSlot   TimeSlot  `gorm:"type:time_slot;not null"`
	Position   int       `gorm:"not null"` // Display order within the slot: 0 tees off first
	CreatedAt  time.Time
	Players    []FoursomePlayer `gorm:"foreignKey:FoursomeID"`
}

// FoursomePlayer is a join table placing a Player into a Foursome.
// Composite primary key prevents a player from being in the same foursome twice.
type FoursomePlayer struct {
	FoursomeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	PlayerID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Foursome   Foursome  `gorm:"foreignKey:FoursomeID"`
	Player     Player    `gorm:"foreignKey:PlayerID"`
}

// PlayerIDs returns the member IDs of the foursome in join-row order.
func (f *Foursome) PlayerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(f.Players))
	for _, p := range f.Players {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// FoursomesInSlot returns the schedule's foursomes for one time slot,
// in stored order.
func (s *Schedule) FoursomesInSlot(slot TimeSlot) []Foursome {
	out := make([]Foursome, 0, len(s.Foursomes))
	for _, f := range s.Foursomes {
		if f.TimeSlot == slot {
			out = append(out, f)
		}
	}
	return out
}

// PairingCount remembers how many times two players have shared a foursome
// within a season. The pair is unordered: rows are stored canonically with
// PlayerAID < PlayerBID (comparing UUID strings) so (A,B) and (B,A) always
// land on the same row. Rows are created lazily on first pairing and updated
// after each successful schedule generation — never during speculative
// generation, so discarded candidate groupings don't pollute the history.
type PairingCount struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SeasonID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_season_pair"` // Combined unique index with both player columns
	PlayerAID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_season_pair"`
	PlayerBID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_season_pair"`
	Count     int       `gorm:"not null;default:0"` // Times this pair has played together this season
	UpdatedAt time.Time
}

// ScheduleBackup is a point-in-time snapshot of a schedule's foursome
// contents, captured immediately before a destructive regeneration.
// The Snapshot column holds a deep copy as JSON — restoring a backup never
// reaches back into live foursome rows, so later mutations of the schedule
// can't corrupt an existing snapshot. Multiple backups may exist per schedule
// (a history of snapshots); the Manager selects one by ID on restore.
type ScheduleBackup struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ScheduleID uuid.UUID      `gorm:"type:uuid;not null"`
	WeekID     uuid.UUID      `gorm:"type:uuid;not null"`
	Snapshot   datatypes.JSON `gorm:"not null"` // JSON-encoded []FoursomeSnapshot
	CreatedAt  time.Time
}

// FoursomeSnapshot is the serialised shape of one foursome inside a backup's
// Snapshot blob. It intentionally carries only what restore needs: slot,
// position, and membership. Foursome row IDs are not preserved — restore
// writes fresh rows.
type FoursomeSnapshot struct {
	TimeSlot  TimeSlot    `json:"time_slot"`
	Position  int         `json:"position"`
	PlayerIDs []uuid.UUID `json:"player_ids"`
}
