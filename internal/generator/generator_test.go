package generator_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trentd187/league-scheduler/internal/generator"
	"github.com/trentd187/league-scheduler/internal/models"
	"github.com/trentd187/league-scheduler/internal/pairing"
	"github.com/trentd187/league-scheduler/internal/store"
)

func newGenerator(t *testing.T) (*generator.Generator, *pairing.Tracker) {
	t.Helper()
	mem := store.NewMemory()
	tracker := pairing.NewTracker(mem.Pairings(), zap.NewNop())
	return generator.New(tracker, zap.NewNop()), tracker
}

func mkPlayer(name string, pref models.TimePreference) models.Player {
	return models.Player{ID: uuid.New(), Name: name, TimePreference: pref}
}

func mkWeek() *models.Week {
	return &models.Week{ID: uuid.New(), SeasonID: uuid.New()}
}

// slotOf finds which slot a player landed in; "" means unscheduled.
func slotOf(s *models.Schedule, playerID uuid.UUID) models.TimeSlot {
	for _, f := range s.Foursomes {
		for _, fp := range f.Players {
			if fp.PlayerID == playerID {
				return f.TimeSlot
			}
		}
	}
	return ""
}

func scheduledCount(s *models.Schedule) int {
	n := 0
	for _, f := range s.Foursomes {
		n += len(f.Players)
	}
	return n
}

func TestGenerator_ZeroPlayersIsEmptyNotError(t *testing.T) {
	gen, _ := newGenerator(t)

	schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(), nil, generator.DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, schedule.Foursomes)
}

func TestGenerator_FewPlayersMakeOnePartialFoursome(t *testing.T) {
	gen, _ := newGenerator(t)

	for n := 1; n <= 3; n++ {
		players := make([]models.Player, 0, n)
		for i := 0; i < n; i++ {
			players = append(players, mkPlayer(fmt.Sprintf("p%d", i), models.TimePreferenceAM))
		}
		schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(), players, generator.DefaultOptions())
		require.NoError(t, err)
		require.Len(t, schedule.Foursomes, 1, "%d players should form one partial group", n)
		assert.Len(t, schedule.Foursomes[0].Players, n)
	}
}

func TestGenerator_PreferencesPinTimeSlots(t *testing.T) {
	gen, _ := newGenerator(t)

	am := mkPlayer("am", models.TimePreferenceAM)
	pm := mkPlayer("pm", models.TimePreferencePM)
	schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(),
		[]models.Player{am, pm}, generator.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, models.TimeSlotMorning, slotOf(schedule, am.ID))
	assert.Equal(t, models.TimeSlotAfternoon, slotOf(schedule, pm.ID))
}

func TestGenerator_BalanceTimeSlotsSpreadsFlexiblePlayers(t *testing.T) {
	gen, _ := newGenerator(t)

	// Three fixed morning players and three flexible ones: balancing should
	// send the flexible players to the emptier afternoon.
	players := []models.Player{
		mkPlayer("a", models.TimePreferenceAM),
		mkPlayer("b", models.TimePreferenceAM),
		mkPlayer("c", models.TimePreferenceAM),
		mkPlayer("x", models.TimePreferenceEither),
		mkPlayer("y", models.TimePreferenceEither),
		mkPlayer("z", models.TimePreferenceEither),
	}
	opts := generator.DefaultOptions()
	schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(), players, opts)
	require.NoError(t, err)

	morning := 0
	afternoon := 0
	for _, f := range schedule.Foursomes {
		if f.TimeSlot == models.TimeSlotMorning {
			morning += len(f.Players)
		} else {
			afternoon += len(f.Players)
		}
	}
	assert.Equal(t, 3, morning)
	assert.Equal(t, 3, afternoon)
}

func TestGenerator_BalancingOffSendsFlexibleToMorning(t *testing.T) {
	gen, _ := newGenerator(t)

	players := []models.Player{
		mkPlayer("x", models.TimePreferenceEither),
		mkPlayer("y", models.TimePreferenceEither),
	}
	opts := generator.DefaultOptions()
	opts.BalanceTimeSlots = false
	schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(), players, opts)
	require.NoError(t, err)

	for _, p := range players {
		assert.Equal(t, models.TimeSlotMorning, slotOf(schedule, p.ID))
	}
}

func TestGenerator_CompleteGroupsLeaveOneRemainder(t *testing.T) {
	gen, _ := newGenerator(t)

	// 10 morning players: complete-groups mode gives 4+4+2, even mode 4+3+3.
	players := make([]models.Player, 0, 10)
	for i := 0; i < 10; i++ {
		players = append(players, mkPlayer(fmt.Sprintf("p%d", i), models.TimePreferenceAM))
	}

	opts := generator.DefaultOptions()
	schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(), players, opts)
	require.NoError(t, err)
	require.Len(t, schedule.Foursomes, 3)
	sizes := []int{len(schedule.Foursomes[0].Players), len(schedule.Foursomes[1].Players), len(schedule.Foursomes[2].Players)}
	assert.ElementsMatch(t, []int{4, 4, 2}, sizes)

	opts.PrioritizeCompleteGroups = false
	schedule, err = gen.GenerateForWeek(context.Background(), mkWeek(), players, opts)
	require.NoError(t, err)
	require.Len(t, schedule.Foursomes, 3)
	sizes = []int{len(schedule.Foursomes[0].Players), len(schedule.Foursomes[1].Players), len(schedule.Foursomes[2].Players)}
	assert.ElementsMatch(t, []int{4, 3, 3}, sizes)
}

func TestGenerator_PositionsAreSequentialPerSlot(t *testing.T) {
	gen, _ := newGenerator(t)

	players := make([]models.Player, 0, 12)
	for i := 0; i < 6; i++ {
		players = append(players, mkPlayer(fmt.Sprintf("am%d", i), models.TimePreferenceAM))
	}
	for i := 0; i < 6; i++ {
		players = append(players, mkPlayer(fmt.Sprintf("pm%d", i), models.TimePreferencePM))
	}
	schedule, err := gen.GenerateForWeek(context.Background(), mkWeek(), players, generator.DefaultOptions())
	require.NoError(t, err)

	for _, slot := range []models.TimeSlot{models.TimeSlotMorning, models.TimeSlotAfternoon} {
		foursomes := schedule.FoursomesInSlot(slot)
		require.NotEmpty(t, foursomes)
		for i, f := range foursomes {
			assert.Equal(t, i, f.Position, "positions restart at 0 per slot")
		}
	}
}

func TestGenerator_UnknownPreferenceIsAnError(t *testing.T) {
	gen, _ := newGenerator(t)

	bad := models.Player{ID: uuid.New(), Name: "bad", TimePreference: models.TimePreference("whenever")}
	_, err := gen.GenerateForWeek(context.Background(), mkWeek(), []models.Player{bad}, generator.DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "time preference")
}

func TestGenerator_OptimizePairingsAvoidsKnownPartner(t *testing.T) {
	gen, tracker := newGenerator(t)
	ctx := context.Background()
	week := mkWeek()

	// a and b have played together three times; six strangers round out two
	// foursomes. The greedy optimiser must fill a's group with strangers and
	// leave b for the other group.
	a := mkPlayer("a", models.TimePreferenceAM)
	b := mkPlayer("b", models.TimePreferenceAM)
	players := []models.Player{a, b}
	for i := 0; i < 6; i++ {
		players = append(players, mkPlayer(fmt.Sprintf("s%d", i), models.TimePreferenceAM))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, tracker.RecordPairing(ctx, week.SeasonID, a.ID, b.ID))
	}

	schedule, err := gen.GenerateForWeek(ctx, week, players, generator.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, schedule.Foursomes, 2)

	for _, f := range schedule.Foursomes {
		ids := f.PlayerIDs()
		hasA, hasB := false, false
		for _, id := range ids {
			hasA = hasA || id == a.ID
			hasB = hasB || id == b.ID
		}
		assert.False(t, hasA && hasB, "optimizer re-paired the only players with history")
	}
}

// TestGenerator_OptimizationSlowsRepeatPairings simulates a season: the same
// 8 players every week, once with history-aware grouping and once with naive
// roster-order grouping. Optimisation must spread pairings out — a lower
// maximum pair count and lower variance than the naive run on identical
// inputs.
func TestGenerator_OptimizationSlowsRepeatPairings(t *testing.T) {
	const numWeeks = 6
	ctx := context.Background()

	players := make([]models.Player, 0, 8)
	for i := 0; i < 8; i++ {
		players = append(players, mkPlayer(fmt.Sprintf("p%d", i), models.TimePreferenceEither))
	}

	runSeason := func(seasonID uuid.UUID, optimize bool) *pairing.Tracker {
		mem := store.NewMemory()
		tracker := pairing.NewTracker(mem.Pairings(), zap.NewNop())
		gen := generator.New(tracker, zap.NewNop())
		week := &models.Week{ID: uuid.New(), SeasonID: seasonID}
		opts := generator.Options{
			PrioritizeCompleteGroups: true,
			BalanceTimeSlots:         false, // keep all 8 in one slot: two foursomes
			OptimizePairings:         optimize,
		}
		for w := 0; w < numWeeks; w++ {
			schedule, err := gen.GenerateForWeek(ctx, week, players, opts)
			require.NoError(t, err)
			require.Equal(t, 8, scheduledCount(schedule))
			for _, f := range schedule.Foursomes {
				require.NoError(t, tracker.TrackFoursomePairings(ctx, seasonID, f))
			}
		}
		return tracker
	}

	stats := func(tracker *pairing.Tracker, seasonID uuid.UUID) (maxCount, sumSquares int) {
		for i := 0; i < len(players); i++ {
			for j := i + 1; j < len(players); j++ {
				count, err := tracker.PairingCount(ctx, seasonID, players[i].ID, players[j].ID)
				require.NoError(t, err)
				if count > maxCount {
					maxCount = count
				}
				sumSquares += count * count
			}
		}
		return maxCount, sumSquares
	}

	naiveSeason := uuid.New()
	optSeason := uuid.New()
	naiveTracker := runSeason(naiveSeason, false)
	optTracker := runSeason(optSeason, true)

	naiveMax, naiveSumSq := stats(naiveTracker, naiveSeason)
	optMax, optSumSq := stats(optTracker, optSeason)

	// Naive grouping repeats the identical two foursomes every week, so its
	// worst pair count equals the number of weeks.
	assert.Equal(t, numWeeks, naiveMax)
	assert.Less(t, optMax, naiveMax, "optimisation must slow the worst repeat pairing")
	assert.Less(t, optSumSq, naiveSumSq, "optimisation must reduce repeat-pairing variance")
}
