// status.go — the per-week regeneration status registry.
//
// Regeneration of a week's schedule walks through stages:
//
//	idle → backing_up → generating → replacing → completed
//
// with "failed" reachable from any of the three working stages. The registry
// is the only shared mutable state in the scheduling core: one map from week
// ID to its current status, guarded by a mutex. A week with no entry is idle.
//
// The registry is owned by a Manager instance and injectable — deliberately
// not a package-level singleton, so parallel test suites can't leak stale
// locks into each other. Reset exists as the documented test-teardown hook.
package scheduler

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage names one state of the regeneration lifecycle.
type Stage string

const (
	StageIdle       Stage = "idle"       // No regeneration underway (represented by absence from the registry)
	StageBackingUp  Stage = "backing_up" // Snapshotting the current schedule
	StageGenerating Stage = "generating" // Running the generator on fresh availability
	StageReplacing  Stage = "replacing"  // Persisting the new foursomes into the existing schedule
	StageCompleted  Stage = "completed"  // Finished successfully
	StageFailed     Stage = "failed"     // Aborted; Error carries what went wrong
)

// Terminal reports whether the stage is an end state. Terminal stages never
// block a new regeneration attempt.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// RegenerationStatus is the in-memory (never persisted) record of one week's
// regeneration attempt.
type RegenerationStatus struct {
	WeekID    uuid.UUID `json:"week_id"`
	Stage     Stage     `json:"stage"`
	StartedAt time.Time `json:"started_at"`
	Error     string    `json:"error,omitempty"` // Set only when Stage is failed
}

// StatusRegistry tracks regeneration statuses for all weeks.
// Concurrency invariant: at most one non-terminal status per week ID —
// Begin enforces it, everything else preserves it.
type StatusRegistry struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]RegenerationStatus
	clock    func() time.Time
}

// NewStatusRegistry returns an empty registry.
func NewStatusRegistry() *StatusRegistry {
	return &StatusRegistry{
		statuses: make(map[uuid.UUID]RegenerationStatus),
		clock:    time.Now,
	}
}

// Begin claims the week for a new regeneration, moving it to backing_up.
// It fails with ErrRegenerationInProgress if another attempt is still in a
// non-terminal stage — the caller must fail fast, not queue. A leftover
// terminal status from an earlier attempt is overwritten.
func (r *StatusRegistry) Begin(weekID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.statuses[weekID]; ok && !existing.Stage.Terminal() {
		return ErrRegenerationInProgress
	}
	r.statuses[weekID] = RegenerationStatus{
		WeekID:    weekID,
		Stage:     StageBackingUp,
		StartedAt: r.clock(),
	}
	return nil
}

// Advance moves the week's in-flight status to the given working stage.
// It is a no-op for a week with no entry (e.g. force-released mid-flight).
func (r *StatusRegistry) Advance(weekID uuid.UUID, stage Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[weekID]
	if !ok {
		return
	}
	status.Stage = stage
	r.statuses[weekID] = status
}

// Fail marks the week's attempt failed with the given message. Failed is
// terminal, so the week is immediately available for another attempt while
// the failure stays inspectable via Get.
func (r *StatusRegistry) Fail(weekID uuid.UUID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[weekID]
	if !ok {
		status = RegenerationStatus{WeekID: weekID, StartedAt: r.clock()}
	}
	status.Stage = StageFailed
	status.Error = message
	r.statuses[weekID] = status
}

// Complete clears the week's status after a successful regeneration —
// completed attempts leave nothing behind to block or confuse later ones.
func (r *StatusRegistry) Complete(weekID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.statuses, weekID)
}

// Clear removes the week's status unconditionally, whatever stage it is in.
// This backs the force-release escape hatch and the low-level unlock.
func (r *StatusRegistry) Clear(weekID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.statuses, weekID)
}

// Lock force-sets the week to generating. This is the low-level lock
// primitive exposed through the Manager for UI flows and test setup; normal
// regeneration never calls it.
func (r *StatusRegistry) Lock(weekID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[weekID] = RegenerationStatus{
		WeekID:    weekID,
		Stage:     StageGenerating,
		StartedAt: r.clock(),
	}
}

// Get returns a copy of the week's status, or nil when the week is idle.
func (r *StatusRegistry) Get(weekID uuid.UUID) *RegenerationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[weekID]
	if !ok {
		return nil
	}
	cp := status
	return &cp
}

// Allowed reports whether a new regeneration may begin for the week:
// true when there is no status or only a terminal one.
func (r *StatusRegistry) Allowed(weekID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[weekID]
	return !ok || status.Stage.Terminal()
}

// Reset wipes every status. Operator escape hatch for a crashed process that
// left locks behind, and the documented teardown hook for test suites.
// Never called automatically — silently discarding statuses could mask a
// genuinely running operation.
func (r *StatusRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = make(map[uuid.UUID]RegenerationStatus)
}
