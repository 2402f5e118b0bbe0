// gorm.go — the production Store implementations backed by GORM/Postgres.
// Each store is a thin struct holding the shared *gorm.DB handle. Queries stay
// simple: primary-key lookups, Preload for relationships, and transactions
// around multi-row writes so a failure can't leave half a schedule behind.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlayerStore implements PlayerStore on Postgres.
type GormPlayerStore struct{ db *gorm.DB }

func NewGormPlayerStore(db *gorm.DB) *GormPlayerStore { return &GormPlayerStore{db: db} }

func (s *GormPlayerStore) FindBySeasonID(ctx context.Context, seasonID uuid.UUID) ([]models.Player, error) {
	var players []models.Player
	if err := s.db.WithContext(ctx).Where("season_id = ?", seasonID).Order("name").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("find players for season %s: %w", seasonID, err)
	}
	return players, nil
}

func (s *GormPlayerStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	var player models.Player
	err := s.db.WithContext(ctx).First(&player, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find player %s: %w", id, err)
	}
	return &player, nil
}

// GormWeekStore implements WeekStore on Postgres.
type GormWeekStore struct{ db *gorm.DB }

func NewGormWeekStore(db *gorm.DB) *GormWeekStore { return &GormWeekStore{db: db} }

func (s *GormWeekStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Week, error) {
	var week models.Week
	// Preload the availability rows — the scheduler always needs them to
	// filter the roster, so loading them here avoids a second round trip.
	err := s.db.WithContext(ctx).Preload("Availability").First(&week, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find week %s: %w", id, err)
	}
	return &week, nil
}

func (s *GormWeekStore) SetPlayerAvailability(ctx context.Context, weekID, playerID uuid.UUID, available bool) error {
	row := models.WeekAvailability{WeekID: weekID, PlayerID: playerID, Available: available}
	// Upsert on the composite primary key: a player changing their answer
	// overwrites the existing row rather than erroring on the unique constraint.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "week_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"available", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("set availability for player %s in week %s: %w", playerID, weekID, err)
	}
	return nil
}

func (s *GormWeekStore) AvailablePlayerIDs(ctx context.Context, weekID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.WeekAvailability{}).
		Where("week_id = ? AND available = ?", weekID, true).
		Pluck("player_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list available players for week %s: %w", weekID, err)
	}
	return ids, nil
}

// GormScheduleStore implements ScheduleStore on Postgres.
type GormScheduleStore struct{ db *gorm.DB }

func NewGormScheduleStore(db *gorm.DB) *GormScheduleStore { return &GormScheduleStore{db: db} }

func (s *GormScheduleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.db.WithContext(ctx).
		Preload("Foursomes", func(db *gorm.DB) *gorm.DB {
			// Stable ordering: morning before afternoon, then by position.
			return db.Order("time_slot desc, position")
		}).
		Preload("Foursomes.Players").
		First(&schedule, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule %s: %w", id, err)
	}
	return &schedule, nil
}

func (s *GormScheduleStore) FindByWeekID(ctx context.Context, weekID uuid.UUID) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.db.WithContext(ctx).
		Preload("Foursomes", func(db *gorm.DB) *gorm.DB {
			return db.Order("time_slot desc, position")
		}).
		Preload("Foursomes.Players").
		First(&schedule, "week_id = ?", weekID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// "Not generated yet" is an expected state — nil, not an error.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find schedule for week %s: %w", weekID, err)
	}
	return &schedule, nil
}

func (s *GormScheduleStore) Create(ctx context.Context, schedule *models.Schedule) error {
	// GORM cascades the Foursomes and their FoursomePlayer rows in one
	// transaction when given the full graph.
	if err := s.db.WithContext(ctx).Create(schedule).Error; err != nil {
		return fmt.Errorf("create schedule for week %s: %w", schedule.WeekID, err)
	}
	return nil
}

func (s *GormScheduleStore) ReplaceFoursomes(ctx context.Context, scheduleID uuid.UUID, foursomes []models.Foursome) error {
	// One transaction: delete membership rows, delete foursome rows, insert
	// the replacements, touch the schedule's updated_at. If any step fails
	// the whole swap rolls back and the old contents survive.
	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var foursomeIDs []uuid.UUID
		if err := tx.Model(&models.Foursome{}).Where("schedule_id = ?", scheduleID).Pluck("id", &foursomeIDs).Error; err != nil {
			return err
		}
		if len(foursomeIDs) > 0 {
			if err := tx.Where("foursome_id IN ?", foursomeIDs).Delete(&models.FoursomePlayer{}).Error; err != nil {
				return err
			}
			if err := tx.Where("schedule_id = ?", scheduleID).Delete(&models.Foursome{}).Error; err != nil {
				return err
			}
		}
		for i := range foursomes {
			foursomes[i].ScheduleID = scheduleID
			if err := tx.Create(&foursomes[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Schedule{}).Where("id = ?", scheduleID).Update("updated_at", tx.NowFunc()).Error
	})
	if txErr != nil {
		return fmt.Errorf("replace foursomes for schedule %s: %w", scheduleID, txErr)
	}
	return nil
}

// GormBackupStore implements BackupStore on Postgres.
type GormBackupStore struct{ db *gorm.DB }

func NewGormBackupStore(db *gorm.DB) *GormBackupStore { return &GormBackupStore{db: db} }

func (s *GormBackupStore) Create(ctx context.Context, backup *models.ScheduleBackup) error {
	if err := s.db.WithContext(ctx).Create(backup).Error; err != nil {
		return fmt.Errorf("create backup for schedule %s: %w", backup.ScheduleID, err)
	}
	return nil
}

func (s *GormBackupStore) FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduleBackup, error) {
	var backup models.ScheduleBackup
	err := s.db.WithContext(ctx).First(&backup, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find backup %s: %w", id, err)
	}
	return &backup, nil
}

func (s *GormBackupStore) ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]models.ScheduleBackup, error) {
	var backups []models.ScheduleBackup
	err := s.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("created_at desc").
		Find(&backups).Error
	if err != nil {
		return nil, fmt.Errorf("list backups for schedule %s: %w", scheduleID, err)
	}
	return backups, nil
}

// GormPairingStore implements PairingStore on Postgres.
type GormPairingStore struct{ db *gorm.DB }

func NewGormPairingStore(db *gorm.DB) *GormPairingStore { return &GormPairingStore{db: db} }

func (s *GormPairingStore) IncrementPairCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) error {
	row := models.PairingCount{SeasonID: seasonID, PlayerAID: playerA, PlayerBID: playerB, Count: 1}
	// Upsert on the (season, playerA, playerB) unique index: first pairing
	// inserts count=1, every later pairing bumps the existing row.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "season_id"}, {Name: "player_a_id"}, {Name: "player_b_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("pairing_counts.count + 1")}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("increment pairing %s/%s in season %s: %w", playerA, playerB, seasonID, err)
	}
	return nil
}

func (s *GormPairingStore) PairCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) (int, error) {
	var row models.PairingCount
	err := s.db.WithContext(ctx).
		Where("season_id = ? AND player_a_id = ? AND player_b_id = ?", seasonID, playerA, playerB).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No history for this pair yet — zero, not an error.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read pairing %s/%s in season %s: %w", playerA, playerB, seasonID, err)
	}
	return row.Count, nil
}

func (s *GormPairingStore) PairCountsForPlayer(ctx context.Context, seasonID, playerID uuid.UUID) ([]models.PairingCount, error) {
	var rows []models.PairingCount
	err := s.db.WithContext(ctx).
		Where("season_id = ? AND (player_a_id = ? OR player_b_id = ?)", seasonID, playerID, playerID).
		Order("count desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list pairings for player %s in season %s: %w", playerID, seasonID, err)
	}
	return rows, nil
}

func (s *GormPairingStore) ResetSeason(ctx context.Context, seasonID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Where("season_id = ?", seasonID).Delete(&models.PairingCount{}).Error; err != nil {
		return fmt.Errorf("reset pairing history for season %s: %w", seasonID, err)
	}
	return nil
}
