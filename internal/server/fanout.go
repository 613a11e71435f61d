package server

import (
	"github.com/agentpoker/agentpoker/internal/game"
)

// The server is the actors' sink: committed table effects fan out to the
// hand archive, the identity counters, and the collusion accumulator.
// Everything here is best-effort by contract: the actor snapshot is the
// authoritative state, so failures are logged and never unwind a hand.

// HandFinished archives the record, commits per-agent counters and chip
// balances, and feeds the collusion accumulator.
func (s *Server) HandFinished(tableID string, res *game.Result, stacks map[string]int) {
	s.metrics.HandsCompleted.Inc()
	if res.Record == nil {
		return
	}
	if err := s.store.ArchiveHand(res.Record); err != nil {
		s.log.Error().Err(err).Str("hand", res.HandID).Msg("hand archive failed")
	}
	// Every dealt-in participant counts the hand, including seats vacated
	// mid-hand; those already banked their chips on the way out.
	for _, rp := range res.Record.Players {
		won := false
		for _, w := range res.Winners {
			if w == rp.ID {
				won = true
				break
			}
		}
		var err error
		if chips, seated := stacks[rp.ID]; seated {
			err = s.store.RecordHandPlayed(rp.ID, won, chips)
		} else {
			err = s.store.RecordHandOutcome(rp.ID, won)
		}
		if err != nil {
			s.log.Error().Err(err).Str("agent", rp.ID).Msg("hand counters update failed")
		}
	}
	if err := s.collusion.RecordHand(res.Record); err != nil {
		s.log.Error().Err(err).Str("hand", res.HandID).Msg("collusion update failed")
	}
}

// SeatTaken pins the agent to the table so no other table can seat them.
func (s *Server) SeatTaken(agentID, tableID string) {
	if err := s.store.SetCurrentTable(agentID, &tableID); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("seat-taken update failed")
	}
}

// SeatVacated banks the departing stack and frees the agent to join
// elsewhere.
func (s *Server) SeatVacated(agentID string, chips int, reason string) {
	if err := s.store.SetAgentChips(agentID, chips); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("chip write-back failed")
	}
	if err := s.store.SetCurrentTable(agentID, nil); err != nil {
		s.log.Error().Err(err).Str("agent", agentID).Msg("seat-vacated update failed")
	}
	s.log.Info().Str("agent", agentID).Int("chips", chips).Str("reason", reason).Msg("seat vacated")
}
