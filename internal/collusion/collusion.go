// Package collusion accumulates pairwise statistics over completed hands
// and scores how much each pair of agents behaves like a team: one-sided
// folds whenever the other raises, and chips flowing consistently one way.
// The score is a heuristic for reviewers, not an automatic ban trigger;
// the watchlist endpoint exposes the inputs alongside it so flags can be
// audited.
package collusion

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/internal/store"
)

// Scoring parameters. MinHands gates scoring until the sample means
// something; FlagThreshold is where a pair reaches the public watchlist.
const (
	MinHands      = 5
	FlagThreshold = 0.75
)

// Accumulator folds hand records into the agent_pairs table.
type Accumulator struct {
	store *store.Store
	log   zerolog.Logger
}

// New builds an accumulator over the store.
func New(st *store.Store, logger zerolog.Logger) *Accumulator {
	return &Accumulator{store: st, log: logger.With().Str("component", "collusion").Logger()}
}

// RecordHand updates every unordered pair of participants with this hand's
// fold and chip-flow evidence, then rescores pairs past the sample gate.
func (a *Accumulator) RecordHand(rec *history.Record) error {
	foldedTo := lastRaiserAtFold(rec)
	for i := 0; i < len(rec.Players); i++ {
		for j := i + 1; j < len(rec.Players); j++ {
			pa, pb := rec.Players[i].ID, rec.Players[j].ID
			if pb < pa {
				pa, pb = pb, pa
			}
			aFolds, bFolds := 0, 0
			if foldedTo[pa] == pb {
				aFolds = 1
			}
			if foldedTo[pb] == pa {
				bFolds = 1
			}
			flow := 0
			switch rec.WinnerID {
			case pb:
				flow = 1
			case pa:
				flow = -1
			}
			pair, err := a.store.BumpPair(pa, pb, aFolds, bFolds, flow, time.Now().UnixMilli())
			if err != nil {
				return err
			}
			if pair.HandsTogether >= MinHands {
				if err := a.store.SetPairScore(pa, pb, Score(pair)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// lastRaiserAtFold maps each folder to whoever had made the most recent
// raise or all_in when they folded. Folds with no raiser on the street
// record nothing.
func lastRaiserAtFold(rec *history.Record) map[string]string {
	out := make(map[string]string)
	lastRaiser := ""
	for _, act := range rec.Actions {
		switch act.Action {
		case "raise", "all_in":
			lastRaiser = act.AgentID
		case "fold":
			if lastRaiser != "" && lastRaiser != act.AgentID {
				out[act.AgentID] = lastRaiser
			}
		}
	}
	return out
}

// Score computes the pair's collusion score from its counters.
//
//	foldScore:  how often either folds to the other, saturating at 60%
//	foldBias:   how one-sided those folds are
//	chipBias:   net chip flow per hand together
//	confidence: ramps in over the first 20 shared hands
func Score(p *store.Pair) float64 {
	n := float64(p.HandsTogether)
	folds := float64(p.AFoldsToB + p.BFoldsToA)
	foldScore := math.Min(1, folds/n/0.6)
	foldBias := math.Max(float64(p.AFoldsToB), float64(p.BFoldsToA)) / math.Max(1, folds)
	chipBias := math.Abs(float64(p.ChipFlowAToB)) / n
	confidence := math.Min(1, n/20)
	return (0.35*foldScore + 0.35*foldBias + 0.30*chipBias) * confidence
}

// Watchlist returns the flagged pairs, highest score first.
func (a *Accumulator) Watchlist(limit int) ([]*store.Pair, error) {
	return a.store.PairsAboveScore(FlagThreshold, limit)
}
