// Package pairing maintains the season's pairing history — how many times
// each pair of players has shared a foursome — and exposes it as the cost
// function the schedule generator uses to spread pairings out fairly.
//
// Pairs are unordered: Alice+Bob and Bob+Alice are the same pairing. The
// tracker canonicalises every pair before touching storage so both orderings
// always hit the same row.
//
// Storage errors always propagate to the caller. Silently dropping a pairing
// increment would undercount the pair and bias every future fairness decision
// in its favour, so there is no best-effort mode here.
package pairing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/trentd187/league-scheduler/internal/models"
	"github.com/trentd187/league-scheduler/internal/store"
	"go.uber.org/zap"
)

// PartnerCount is one row of the per-player pairing report:
// a partner and the number of times the player has been grouped with them.
type PartnerCount struct {
	PartnerID uuid.UUID `json:"partner_id"`
	Count     int       `json:"count"`
}

// Tracker records and reports pairing frequency for one storage backend.
type Tracker struct {
	pairings store.PairingStore
	log      *zap.Logger
}

// NewTracker builds a Tracker on the given pairing store.
func NewTracker(pairings store.PairingStore, log *zap.Logger) *Tracker {
	return &Tracker{pairings: pairings, log: log}
}

// canonicalPair orders two player IDs so the smaller UUID string comes first.
// Every storage access goes through this, which is what makes pairs unordered.
func canonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// RecordPairing increments the stored count for the unordered pair,
// creating the row on first pairing.
func (t *Tracker) RecordPairing(ctx context.Context, seasonID, playerA, playerB uuid.UUID) error {
	if playerA == playerB {
		return fmt.Errorf("record pairing: player %s cannot be paired with themselves", playerA)
	}
	a, b := canonicalPair(playerA, playerB)
	if err := t.pairings.IncrementPairCount(ctx, seasonID, a, b); err != nil {
		return fmt.Errorf("record pairing: %w", err)
	}
	return nil
}

// PairingCount returns how many times the pair has played together this
// season. A pair with no history has count 0 — that is an answer, not an
// error.
func (t *Tracker) PairingCount(ctx context.Context, seasonID, playerA, playerB uuid.UUID) (int, error) {
	a, b := canonicalPair(playerA, playerB)
	count, err := t.pairings.PairCount(ctx, seasonID, a, b)
	if err != nil {
		return 0, fmt.Errorf("pairing count: %w", err)
	}
	return count, nil
}

// AllPairingsForPlayer returns every partner the player has been grouped with
// this season and how often, highest count first. Used for reporting and
// inspection — the generator's hot path reads individual counts instead.
func (t *Tracker) AllPairingsForPlayer(ctx context.Context, seasonID, playerID uuid.UUID) ([]PartnerCount, error) {
	rows, err := t.pairings.PairCountsForPlayer(ctx, seasonID, playerID)
	if err != nil {
		return nil, fmt.Errorf("pairings for player: %w", err)
	}
	out := make([]PartnerCount, 0, len(rows))
	for _, row := range rows {
		partner := row.PlayerAID
		if partner == playerID {
			partner = row.PlayerBID
		}
		out = append(out, PartnerCount{PartnerID: partner, Count: row.Count})
	}
	return out, nil
}

// TrackFoursomePairings records one pairing for every unordered pair of
// players within the foursome. Called once per foursome after a schedule is
// committed — never during speculative generation, so candidate groupings
// that get discarded leave no trace in the history.
func (t *Tracker) TrackFoursomePairings(ctx context.Context, seasonID uuid.UUID, foursome models.Foursome) error {
	ids := foursome.PlayerIDs()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if err := t.RecordPairing(ctx, seasonID, ids[i], ids[j]); err != nil {
				return fmt.Errorf("track foursome pairings: %w", err)
			}
		}
	}
	t.log.Debug("tracked foursome pairings",
		zap.String("season_id", seasonID.String()),
		zap.String("time_slot", string(foursome.TimeSlot)),
		zap.Int("players", len(ids)),
		zap.Int("pairs", len(ids)*(len(ids)-1)/2),
	)
	return nil
}

// ResetSeason wipes the season's pairing history. This is the only deletion
// path for pairing data and is always an explicit operator action.
func (t *Tracker) ResetSeason(ctx context.Context, seasonID uuid.UUID) error {
	if err := t.pairings.ResetSeason(ctx, seasonID); err != nil {
		return fmt.Errorf("reset season pairings: %w", err)
	}
	t.log.Info("pairing history reset", zap.String("season_id", seasonID.String()))
	return nil
}
