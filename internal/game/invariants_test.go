package game_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentpoker/agentpoker/internal/game"
	"github.com/agentpoker/agentpoker/internal/randutil"
	"github.com/agentpoker/agentpoker/poker"
)

// TestRandomPlayInvariants drives many hands with arbitrary legal actions
// and checks the accounting after every single one: chips are conserved and
// the dealt cards always partition a single 52-card deck.
func TestRandomPlayInvariants(t *testing.T) {
	rng := randutil.New(20240817)
	tbl := game.New("t1", game.Config{})
	seatN(t, tbl, 1000, 1000, 1000, 1000)
	total := 4000
	banked := 0

	seated := func() int {
		n := 0
		for _, p := range tbl.Players {
			n += p.Chips
		}
		return n
	}
	checkChips := func(hand, step int) {
		require.Equal(t, total, banked+seated()+tbl.Pot,
			"chips leaked at hand %d step %d", hand, step)
	}
	checkCards := func(hand, step int) {
		seen := map[poker.Card]bool{}
		for _, c := range allCards(tbl) {
			require.False(t, seen[c], "card %s dealt twice at hand %d step %d", c, hand, step)
			seen[c] = true
		}
		require.Len(t, seen, 52)
	}

	for hand := 0; hand < 40 && tbl.CanStartHand(); hand++ {
		evicted, res, err := tbl.StartHand(rng, fmt.Sprintf("h%d", hand), 0)
		require.NoError(t, err)
		for _, e := range evicted {
			banked += e.Chips
		}
		checkChips(hand, -1)
		checkCards(hand, -1)

		for step := 0; res == nil && tbl.Phase.Betting(); step++ {
			require.Less(t, step, 500, "hand %d did not terminate", hand)
			p := tbl.Players[tbl.CurrentTurnIndex]
			action, amount := pickAction(tbl, p, rng)
			res, err = tbl.Act(p.AgentID, action, amount, 0)
			require.NoError(t, err)
			checkChips(hand, step)
			checkCards(hand, step)
		}
		require.NotNil(t, res)
		require.Equal(t, 0, tbl.Pot)
		checkChips(hand, 1000)
	}
}

// pickAction chooses a random action from the legal set, sizing raises to
// the minimum legal amount.
func pickAction(tbl *game.Table, p *game.Player, rng poker.Source) (game.Action, int) {
	avail := tbl.AvailableActions(p.AgentID)
	pick := avail[rng.IntN(len(avail))]
	switch pick {
	case "fold":
		return game.Fold, 0
	case "check":
		return game.Check, 0
	case "call":
		return game.Call, 0
	case "all_in":
		return game.AllIn, 0
	case "raise":
		amount := 2 * tbl.CurrentBet
		if amount == 0 {
			amount = tbl.BigBlind
		}
		if amount-p.Bet >= p.Chips {
			return game.AllIn, 0
		}
		return game.Raise, amount
	}
	return game.Fold, 0
}
