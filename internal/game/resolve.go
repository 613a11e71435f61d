package game

import (
	"fmt"
	"sort"

	"github.com/agentpoker/agentpoker/poker"
)

// lastPlayerStanding describes a pot taken uncontested.
const lastPlayerStanding = "Last player standing"

// resolve ends the hand: builds the pot layers from total contributions,
// awards each layer to the best eligible hand, writes chips back to stacks,
// rotates the button, and finalizes the hand record.
//
// Layering: for each distinct positive contribution level ascending, every
// contributor (folded players and departed seats included) funds the slice
// between the previous level and this one, but only players still holding
// cards are eligible to win it. This also hands uncalled chips straight
// back to the bettor, as the sole contributor to the top layer.
func (t *Table) resolve(now int64) *Result {
	var inHand []*Player
	for _, p := range t.Players {
		if p.InHand() {
			inHand = append(inHand, p)
		}
	}

	awards := make(map[string]int)
	var winnerIDs []string
	var winner *Player
	winningHand := lastPlayerStanding

	if len(inHand) == 1 {
		winner = inHand[0]
		awards[winner.AgentID] = t.Pot
		winnerIDs = []string{winner.AgentID}
	} else {
		values := make(map[string]poker.HandValue, len(inHand))
		for _, p := range inHand {
			v, err := poker.Evaluate(append(append([]poker.Card(nil), p.HoleCards...), t.CommunityCards...))
			if err != nil {
				panic("game: " + err.Error())
			}
			values[p.AgentID] = v
		}

		prev := 0
		for _, level := range t.contributionLevels() {
			contributors := 0
			for _, p := range t.Players {
				if p.TotalBet >= level {
					contributors++
				}
			}
			for _, dead := range t.DeadContributions {
				if dead >= level {
					contributors++
				}
			}
			amount := (level - prev) * contributors
			prev = level

			var eligible []*Player
			for _, p := range inHand {
				if p.TotalBet >= level {
					eligible = append(eligible, p)
				}
			}
			if len(eligible) == 0 {
				eligible = inHand
			}

			layerWinners := bestOf(eligible, values)
			share := amount / len(layerWinners)
			for _, w := range layerWinners {
				awards[w.AgentID] += share
			}
			// Indivisible chips go to the earliest seat among the winners.
			awards[layerWinners[0].AgentID] += amount % len(layerWinners)

			// A layer funded solely by the player it goes back to is an
			// uncalled bet returning, not a win.
			if contributors == 1 && len(layerWinners) == 1 && layerWinners[0].TotalBet >= level {
				continue
			}

			if winner == nil {
				winner = layerWinners[0]
				winningHand = values[winner.AgentID].Describe()
			}
			for _, w := range layerWinners {
				if awards[w.AgentID] > 0 && !contains(winnerIDs, w.AgentID) {
					winnerIDs = append(winnerIDs, w.AgentID)
				}
			}
		}
	}

	awarded := 0
	for _, a := range awards {
		awarded += a
	}
	if awarded != t.Pot {
		panic(fmt.Sprintf("game: awards %d != pot %d on table %s", awarded, t.Pot, t.TableID))
	}
	for _, p := range t.Players {
		if a, ok := awards[p.AgentID]; ok {
			p.Chips += a
		}
	}

	result := &Result{
		HandResult: HandResult{
			HandID:      t.HandID,
			WinnerID:    winner.AgentID,
			WinnerName:  winner.Name,
			WinningHand: winningHand,
			Pot:         t.Pot,
		},
		Awards:  awards,
		Winners: winnerIDs,
	}

	if t.Record != nil {
		t.Record.CommunityCards = append([]poker.Card(nil), t.CommunityCards...)
		t.Record.Pot = t.Pot
		t.Record.WinnerID = winner.AgentID
		t.Record.WinnerName = winner.Name
		t.Record.WinningHand = winningHand
		t.Record.EndedAt = now
		result.Record = t.Record.Clone()
	}

	t.Phase = Showdown
	t.CurrentTurnIndex = -1
	t.Pot = 0
	t.LastHandResult = &result.HandResult

	// Button moves one seat clockwise over everyone still playing.
	if next := t.nextSeatWhere(t.DealerIndex, func(p *Player) bool {
		return p.Status != StatusSittingOut
	}); next >= 0 {
		t.DealerIndex = next
	}
	return result
}

// contributionLevels returns the distinct positive totals committed to the
// hand, ascending, including contributions left behind by departed seats.
func (t *Table) contributionLevels() []int {
	seen := map[int]bool{}
	for _, p := range t.Players {
		if p.TotalBet > 0 {
			seen[p.TotalBet] = true
		}
	}
	for _, dead := range t.DeadContributions {
		if dead > 0 {
			seen[dead] = true
		}
	}
	levels := make([]int, 0, len(seen))
	for l := range seen {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// bestOf returns the players holding the strongest hand, in seat order.
func bestOf(players []*Player, values map[string]poker.HandValue) []*Player {
	var best []*Player
	for _, p := range players {
		if len(best) == 0 {
			best = []*Player{p}
			continue
		}
		switch c := values[p.AgentID].Compare(values[best[0].AgentID]); {
		case c > 0:
			best = []*Player{p}
		case c == 0:
			best = append(best, p)
		}
	}
	return best
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
