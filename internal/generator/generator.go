// Package generator partitions a week's available players into foursomes.
//
// Generation is deterministic given its inputs and runs in two phases:
//
//  1. Time-slot assignment — players with an AM or PM preference go straight
//     to their slot; "either" players fill whichever slot is emptier when
//     balancing is enabled (ties go to the morning).
//
//  2. Grouping within each slot — players are packed into groups of up to
//     four. With pairing optimisation enabled, groups are formed greedily:
//     each group starts from the next unplaced player and repeatedly adds the
//     candidate whose historical pairing cost against the forming group is
//     lowest. Exact minimum-cost partitioning into fixed-size groups is
//     NP-hard, so the greedy heuristic is the contract here — it keeps
//     repeat pairings rare without promising a global optimum.
//
// The generator is pure with respect to storage: it reads pairing counts
// through a narrow interface and never writes anything. Persisting the result
// and recording the new pairings is the Schedule Manager's job.
package generator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/models"
	"go.uber.org/zap"
)

// MaxFoursomeSize is the largest playing group a tee sheet supports.
const MaxFoursomeSize = 4

// Options control the grouping heuristics.
type Options struct {
	// PrioritizeCompleteGroups packs full foursomes and leaves a single
	// smaller leftover group, instead of spreading the remainder evenly.
	// 10 players become 4+4+2 rather than 4+3+3.
	PrioritizeCompleteGroups bool `json:"prioritize_complete_groups"`

	// BalanceTimeSlots sends "either"-preference players to whichever slot
	// currently has fewer players. Greedy and O(n) — it approximately
	// balances, it does not promise an optimal split.
	BalanceTimeSlots bool `json:"balance_time_slots"`

	// OptimizePairings enables history-aware grouping: groups are chosen to
	// keep players who have already played together apart.
	OptimizePairings bool `json:"optimize_pairings"`
}

// DefaultOptions is what the Manager uses unless a caller overrides it.
func DefaultOptions() Options {
	return Options{
		PrioritizeCompleteGroups: true,
		BalanceTimeSlots:         true,
		OptimizePairings:         true,
	}
}

// PairingCounter is the slice of the pairing tracker the generator needs:
// just the cost lookup, never the write side.
type PairingCounter interface {
	PairingCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) (int, error)
}

// Generator builds schedules. Safe for concurrent use — it holds no mutable
// state between calls.
type Generator struct {
	pairings PairingCounter
	log      *zap.Logger
}

// New builds a Generator reading pairing costs from the given counter.
func New(pairings PairingCounter, log *zap.Logger) *Generator {
	return &Generator{pairings: pairings, log: log}
}

// GenerateForWeek partitions the given players into foursomes for the week.
//
// The players slice must already be filtered to the week's available players —
// the generator trusts its input and schedules everyone it is handed. Zero
// players is not an error: the result is a schedule with no foursomes. The
// returned schedule is not persisted and has no IDs assigned yet.
func (g *Generator) GenerateForWeek(ctx context.Context, week *models.Week, players []models.Player, opts Options) (*models.Schedule, error) {
	// Structural validation up front: a player with an unrecognised time
	// preference means corrupted input, and the caller treats any error from
	// here as a generation failure.
	for _, p := range players {
		switch p.TimePreference {
		case models.TimePreferenceAM, models.TimePreferencePM, models.TimePreferenceEither:
		default:
			return nil, fmt.Errorf("player %s has unrecognized time preference %q", p.ID, p.TimePreference)
		}
	}

	morning, afternoon := assignTimeSlots(players, opts)

	schedule := &models.Schedule{WeekID: week.ID}

	morningGroups, err := g.groupSlot(ctx, week.SeasonID, morning, opts)
	if err != nil {
		return nil, err
	}
	afternoonGroups, err := g.groupSlot(ctx, week.SeasonID, afternoon, opts)
	if err != nil {
		return nil, err
	}

	appendSlotFoursomes(schedule, models.TimeSlotMorning, morningGroups)
	appendSlotFoursomes(schedule, models.TimeSlotAfternoon, afternoonGroups)

	g.log.Debug("generated schedule",
		zap.String("week_id", week.ID.String()),
		zap.Int("players", len(players)),
		zap.Int("morning_foursomes", len(morningGroups)),
		zap.Int("afternoon_foursomes", len(afternoonGroups)),
	)
	return schedule, nil
}

// assignTimeSlots is phase one: split players into morning and afternoon.
// AM and PM players are fixed; "either" players are the balancing material.
func assignTimeSlots(players []models.Player, opts Options) (morning, afternoon []models.Player) {
	var flexible []models.Player
	for _, p := range players {
		switch p.TimePreference {
		case models.TimePreferenceAM:
			morning = append(morning, p)
		case models.TimePreferencePM:
			afternoon = append(afternoon, p)
		default:
			flexible = append(flexible, p)
		}
	}

	for _, p := range flexible {
		if opts.BalanceTimeSlots && len(afternoon) < len(morning) {
			afternoon = append(afternoon, p)
		} else {
			// Balancing off: flexible players all land in the default
			// (morning) slot. Balancing on: ties also go to the morning.
			morning = append(morning, p)
		}
	}
	return morning, afternoon
}

// groupSlot is phase two for one slot: decide group sizes, then fill them.
func (g *Generator) groupSlot(ctx context.Context, seasonID uuid.UUID, players []models.Player, opts Options) ([][]models.Player, error) {
	if len(players) == 0 {
		return nil, nil
	}

	sizes := groupSizes(len(players), opts.PrioritizeCompleteGroups)

	if !opts.OptimizePairings {
		// Naive mode: fill the groups in roster order.
		var groups [][]models.Player
		next := 0
		for _, size := range sizes {
			groups = append(groups, players[next:next+size])
			next += size
		}
		return groups, nil
	}

	return g.groupByPairingCost(ctx, seasonID, players, sizes)
}

// groupSizes splits n players into group sizes of at most four.
//
// Complete-groups mode packs fours and leaves one smaller remainder group,
// so at most one incomplete foursome exists per slot. Otherwise the same
// number of groups is filled as evenly as possible.
func groupSizes(n int, prioritizeComplete bool) []int {
	groupCount := (n + MaxFoursomeSize - 1) / MaxFoursomeSize

	if prioritizeComplete {
		var sizes []int
		remaining := n
		for remaining > 0 {
			size := MaxFoursomeSize
			if remaining < size {
				size = remaining
			}
			sizes = append(sizes, size)
			remaining -= size
		}
		return sizes
	}

	base := n / groupCount
	extra := n % groupCount
	sizes := make([]int, groupCount)
	for i := range sizes {
		sizes[i] = base
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// groupByPairingCost fills the given group sizes greedily: each group is
// seeded with the first unplaced player, then grown one player at a time by
// picking the candidate whose total historical pairing count against the
// current group members is lowest. Ties keep roster order, which makes
// generation deterministic for a given input and history.
func (g *Generator) groupByPairingCost(ctx context.Context, seasonID uuid.UUID, players []models.Player, sizes []int) ([][]models.Player, error) {
	remaining := append([]models.Player(nil), players...)
	var groups [][]models.Player

	for _, size := range sizes {
		group := []models.Player{remaining[0]}
		remaining = remaining[1:]

		for len(group) < size {
			bestIdx := -1
			bestCost := 0
			for i, candidate := range remaining {
				cost, err := g.marginalCost(ctx, seasonID, group, candidate)
				if err != nil {
					return nil, err
				}
				if bestIdx == -1 || cost < bestCost {
					bestIdx = i
					bestCost = cost
				}
			}
			group = append(group, remaining[bestIdx])
			remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// marginalCost is the pairing cost of adding candidate to group: the sum of
// the candidate's historical co-occurrence counts with each current member.
func (g *Generator) marginalCost(ctx context.Context, seasonID uuid.UUID, group []models.Player, candidate models.Player) (int, error) {
	total := 0
	for _, member := range group {
		count, err := g.pairings.PairingCount(ctx, seasonID, member.ID, candidate.ID)
		if err != nil {
			return 0, fmt.Errorf("pairing cost for player %s: %w", candidate.ID, err)
		}
		total += count
	}
	return total, nil
}

// appendSlotFoursomes turns the slot's groups into Foursome values with
// sequential positions starting at 0.
func appendSlotFoursomes(schedule *models.Schedule, slot models.TimeSlot, groups [][]models.Player) {
	for pos, group := range groups {
		f := models.Foursome{TimeSlot: slot, Position: pos}
		for _, p := range group {
			f.Players = append(f.Players, models.FoursomePlayer{PlayerID: p.ID})
		}
		schedule.Foursomes = append(schedule.Foursomes, f)
	}
}
