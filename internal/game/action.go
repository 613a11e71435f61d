package game

import (
	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/poker"
)

// Act applies one betting decision for agentID. amount is only meaningful
// for raise, where it names the new table bet ("raise to"). The returned
// Result is non-nil exactly when the action ended the hand.
//
// On any error the table is unchanged and the turn still belongs to the
// caller.
func (t *Table) Act(agentID string, action Action, amount int, now int64) (*Result, error) {
	p, idx := t.Seat(agentID)
	if p == nil {
		return nil, ErrNotSeated
	}
	if !t.Phase.Betting() {
		return nil, ErrNotInHand
	}
	if idx != t.CurrentTurnIndex || !p.CanAct() {
		return nil, ErrNotYourTurn
	}

	recorded := 0
	switch action {
	case Fold:
		p.Status = StatusFolded

	case Check:
		if t.CurrentBet != p.Bet {
			return nil, ErrBetToMatch
		}

	case Call:
		c := t.CurrentBet - p.Bet
		if c > p.Chips {
			c = p.Chips
		}
		t.contribute(p, c)
		recorded = c

	case Raise:
		contribution := amount - p.Bet
		if contribution > p.Chips {
			return nil, ErrInsufficientChips
		}
		if amount <= t.CurrentBet || contribution <= 0 {
			return nil, ErrBelowMinRaise
		}
		// Raises must at least double the bet unless the raiser is moving
		// all-in for less.
		if amount < 2*t.CurrentBet && contribution < p.Chips {
			return nil, ErrBelowMinRaise
		}
		t.contribute(p, contribution)
		t.CurrentBet = amount
		t.clearActedExcept(p)
		recorded = amount

	case AllIn:
		c := p.Chips
		t.contribute(p, c)
		p.Status = StatusAllIn
		if p.Bet > t.CurrentBet {
			t.CurrentBet = p.Bet
			t.clearActedExcept(p)
		}
		recorded = c

	default:
		return nil, ErrInvalidAction
	}

	p.HasActed = true
	if t.Record != nil {
		t.Record.Actions = append(t.Record.Actions, history.Action{
			AgentID:   agentID,
			Action:    action.String(),
			Amount:    recorded,
			Timestamp: now,
		})
	}
	return t.afterAction(now), nil
}

// contribute moves chips from the player's stack into the pot. Chips
// reaching zero flips the player all-in.
func (t *Table) contribute(p *Player, c int) {
	p.Chips -= c
	p.Bet += c
	p.TotalBet += c
	t.Pot += c
	if p.Chips == 0 && p.Status == StatusActive {
		p.Status = StatusAllIn
	}
}

// clearActedExcept reopens the action for every other player who can still
// decide, after a raise or an all-in that lifted the bet.
func (t *Table) clearActedExcept(raiser *Player) {
	for _, q := range t.Players {
		if q != raiser && q.CanAct() {
			q.HasActed = false
		}
	}
}

// afterAction decides what the action means for the round: a fold-out ends
// the hand at once; a settled street advances the phase; otherwise the turn
// moves to the next player who can act.
func (t *Table) afterAction(now int64) *Result {
	if t.countInHand() == 1 {
		return t.resolve(now)
	}
	settled := true
	for _, p := range t.Players {
		if p.CanAct() && (!p.HasActed || p.Bet != t.CurrentBet) {
			settled = false
			break
		}
	}
	if settled {
		return t.advancePhase(now)
	}
	t.CurrentTurnIndex = t.nextSeatWhere(t.CurrentTurnIndex, (*Player).CanAct)
	t.LastActionTime = now
	return nil
}

// advancePhase closes the street and deals the next one: flop 3 cards, turn
// and river 1 each; after the river the hand resolves. When fewer than two
// players can still act the remaining streets run out back to back.
func (t *Table) advancePhase(now int64) *Result {
	for _, p := range t.Players {
		p.Bet = 0
		p.HasActed = !p.CanAct()
	}
	t.CurrentBet = 0

	var deal int
	switch t.Phase {
	case Preflop:
		t.Phase, deal = Flop, 3
	case Flop:
		t.Phase, deal = Turn, 1
	case Turn:
		t.Phase, deal = River, 1
	case River:
		return t.resolve(now)
	default:
		return nil
	}

	cards, rest, err := poker.Deal(t.Deck, deal)
	if err != nil {
		// A hand never needs more than 52 cards; treat as unreachable.
		panic("game: " + err.Error())
	}
	t.CommunityCards = append(t.CommunityCards, cards...)
	t.Deck = rest

	if t.countCanAct() < 2 {
		return t.advancePhase(now)
	}
	t.CurrentTurnIndex = t.nextSeatWhere(t.DealerIndex, (*Player).CanAct)
	t.LastActionTime = now
	return nil
}

// runOut deals the remaining streets with no further betting.
func (t *Table) runOut(now int64) *Result {
	return t.advancePhase(now)
}

// Timeout folds the player on the clock once the decision window has fully
// elapsed. It reports whether it did anything; calling it again with the
// same now is a no-op because the fold resets the action clock.
func (t *Table) Timeout(now int64) (*Result, bool) {
	if !t.Phase.Betting() || t.CurrentTurnIndex < 0 {
		return nil, false
	}
	if now-t.LastActionTime < t.Cfg.ActionTimeoutMs {
		return nil, false
	}
	res, err := t.Act(t.Players[t.CurrentTurnIndex].AgentID, Fold, 0, now)
	if err != nil {
		return nil, false
	}
	return res, true
}
