// Package backup snapshots schedules before destructive mutation and restores
// them afterwards when something goes wrong.
//
// A backup is a deep copy: the foursome contents are serialised to JSON at
// capture time, so no later change to the live schedule can reach back into
// an existing snapshot. The Manager takes a backup before every regeneration
// and restores from it if generation fails — the backup must exist before the
// first destructive step, never after.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/models"
	"github.com/trentd187/league-scheduler/internal/store"
	"go.uber.org/zap"
)

// Metadata identifies one stored snapshot without carrying its payload.
type Metadata struct {
	ID         uuid.UUID `json:"id"`
	ScheduleID uuid.UUID `json:"schedule_id"`
	WeekID     uuid.UUID `json:"week_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Service creates, lists, and restores schedule snapshots.
type Service struct {
	backups   store.BackupStore
	schedules store.ScheduleStore
	log       *zap.Logger
}

// NewService builds a backup Service on the given stores.
func NewService(backups store.BackupStore, schedules store.ScheduleStore, log *zap.Logger) *Service {
	return &Service{backups: backups, schedules: schedules, log: log}
}

// CreateBackup captures the schedule's current foursome contents into a new
// snapshot record and returns its metadata. The source schedule is not
// touched.
func (s *Service) CreateBackup(ctx context.Context, schedule *models.Schedule) (Metadata, error) {
	snapshots := make([]models.FoursomeSnapshot, 0, len(schedule.Foursomes))
	for _, f := range schedule.Foursomes {
		snapshots = append(snapshots, models.FoursomeSnapshot{
			TimeSlot:  f.TimeSlot,
			Position:  f.Position,
			PlayerIDs: f.PlayerIDs(),
		})
	}

	payload, err := json.Marshal(snapshots)
	if err != nil {
		return Metadata{}, fmt.Errorf("encode backup snapshot: %w", err)
	}

	record := models.ScheduleBackup{
		ScheduleID: schedule.ID,
		WeekID:     schedule.WeekID,
		Snapshot:   payload,
	}
	if err := s.backups.Create(ctx, &record); err != nil {
		return Metadata{}, fmt.Errorf("store backup: %w", err)
	}

	s.log.Info("schedule backup created",
		zap.String("backup_id", record.ID.String()),
		zap.String("schedule_id", schedule.ID.String()),
		zap.Int("foursomes", len(snapshots)),
	)
	return Metadata{
		ID:         record.ID,
		ScheduleID: record.ScheduleID,
		WeekID:     record.WeekID,
		CreatedAt:  record.CreatedAt,
	}, nil
}

// ListBackups returns the snapshot history for a schedule, newest first.
func (s *Service) ListBackups(ctx context.Context, scheduleID uuid.UUID) ([]Metadata, error) {
	records, err := s.backups.ListByScheduleID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	out := make([]Metadata, 0, len(records))
	for _, r := range records {
		out = append(out, Metadata{
			ID:         r.ID,
			ScheduleID: r.ScheduleID,
			WeekID:     r.WeekID,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

// RestoreFromBackup overwrites the live schedule's foursome contents with the
// backup's snapshot. It returns false (without error) when the backup ID does
// not exist or belongs to a different schedule, and an error only for real
// storage failures.
func (s *Service) RestoreFromBackup(ctx context.Context, scheduleID, backupID uuid.UUID) (bool, error) {
	record, err := s.backups.FindByID(ctx, backupID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load backup %s: %w", backupID, err)
	}
	if record.ScheduleID != scheduleID {
		// A valid backup, but for some other schedule — refuse quietly
		// rather than overwrite the wrong tee sheet.
		return false, nil
	}

	var snapshots []models.FoursomeSnapshot
	if err := json.Unmarshal(record.Snapshot, &snapshots); err != nil {
		return false, fmt.Errorf("decode backup %s: %w", backupID, err)
	}

	foursomes := make([]models.Foursome, 0, len(snapshots))
	for _, snap := range snapshots {
		f := models.Foursome{TimeSlot: snap.TimeSlot, Position: snap.Position}
		for _, playerID := range snap.PlayerIDs {
			f.Players = append(f.Players, models.FoursomePlayer{PlayerID: playerID})
		}
		foursomes = append(foursomes, f)
	}

	if err := s.schedules.ReplaceFoursomes(ctx, scheduleID, foursomes); err != nil {
		return false, fmt.Errorf("restore schedule %s from backup %s: %w", scheduleID, backupID, err)
	}

	s.log.Info("schedule restored from backup",
		zap.String("schedule_id", scheduleID.String()),
		zap.String("backup_id", backupID.String()),
	)
	return true, nil
}
