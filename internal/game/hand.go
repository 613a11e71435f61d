package game

import (
	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/poker"
)

// blindsForNextHand sizes the blinds from the table's average stack so that
// blinds scale with the money in play: smallBlind = max(floor, avg/100).
func (t *Table) blindsForNextHand() (sb, bb int) {
	sb = t.Cfg.DefaultSmallBlind
	if len(t.Players) > 0 {
		total := 0
		for _, p := range t.Players {
			total += p.Chips
		}
		if scaled := total / len(t.Players) / 100; scaled > sb {
			sb = scaled
		}
	}
	return sb, sb * 2
}

// CanStartHand reports whether a deal is currently possible: the table is
// between hands and at least two seats can post the next big blind.
func (t *Table) CanStartHand() bool {
	if t.Phase.Betting() {
		return false
	}
	_, bb := t.blindsForNextHand()
	n := 0
	for _, p := range t.Players {
		if p.Status != StatusSittingOut && p.Chips >= bb {
			n++
		}
	}
	return n >= MinPlayersToDeal
}

// StartHand deals a fresh hand: sizes blinds, evicts seats that cannot play,
// compacts seat order, shuffles a new deck through src, deals hole cards,
// posts blinds, and opens preflop betting. The returned evictions carry the
// chips the caller must bank for the removed agents.
//
// On ErrNotEnoughPlayers the table drops back to waiting; evictions decided
// before the check still apply. In the rare case that the blinds put every
// dealt-in player all-in, the hand runs out immediately and the Result is
// returned along with the evictions.
func (t *Table) StartHand(src poker.Source, handID string, now int64) ([]Evicted, *Result, error) {
	if t.Phase.Betting() {
		return nil, nil, ErrHandInProgress
	}

	sb, bb := t.blindsForNextHand()
	t.SmallBlind, t.BigBlind = sb, bb

	dealerAgent := ""
	if t.DealerIndex >= 0 && t.DealerIndex < len(t.Players) {
		dealerAgent = t.Players[t.DealerIndex].AgentID
	}

	// Evict seats that cannot post the big blind and sit-outs that have
	// idled too long, then compact: dealt-in seats first, sit-outs after,
	// both preserving their previous order.
	var evicted []Evicted
	var dealtIn, sittingOut []*Player
	for _, p := range t.Players {
		switch {
		case p.Status == StatusSittingOut && p.SitOutCount >= MaxSitOutHands:
			evicted = append(evicted, Evicted{AgentID: p.AgentID, Name: p.Name, Chips: p.Chips, Reason: "sat out too long"})
		case p.Status == StatusSittingOut:
			sittingOut = append(sittingOut, p)
		case p.Chips < bb:
			evicted = append(evicted, Evicted{AgentID: p.AgentID, Name: p.Name, Chips: p.Chips, Reason: "short stack"})
		default:
			dealtIn = append(dealtIn, p)
		}
	}
	t.Players = append(dealtIn, sittingOut...)

	if len(dealtIn) < MinPlayersToDeal {
		t.Phase = Waiting
		t.CurrentTurnIndex = -1
		return evicted, nil, ErrNotEnoughPlayers
	}

	// Keep the button on the same player across evictions; if that seat is
	// gone the button falls to whoever now holds its index.
	t.DealerIndex = 0
	if dealerAgent != "" {
		for i, p := range dealtIn {
			if p.AgentID == dealerAgent {
				t.DealerIndex = i
				break
			}
		}
	}
	if t.DealerIndex >= len(dealtIn) {
		t.DealerIndex = 0
	}

	for _, p := range sittingOut {
		p.SitOutCount++
	}
	for _, p := range dealtIn {
		p.Status = StatusActive
		p.HoleCards = nil
		p.Bet = 0
		p.TotalBet = 0
		p.HasActed = false
		p.SitOutCount = 0
	}

	t.HandID = handID
	t.Phase = Preflop
	t.CommunityCards = nil
	t.Pot = 0
	t.CurrentBet = 0
	t.DeadContributions = nil
	t.ChatLog = nil
	t.LastActionTime = now

	deck := poker.NewDeck()
	poker.Shuffle(deck, src)
	for _, p := range dealtIn {
		cards, rest, err := poker.Deal(deck, 2)
		if err != nil {
			return evicted, nil, err
		}
		p.HoleCards = cards
		deck = rest
	}
	t.Deck = deck

	t.Record = &history.Record{
		HandID:    handID,
		TableID:   t.TableID,
		StartedAt: now,
	}
	for _, p := range dealtIn {
		t.Record.Players = append(t.Record.Players, history.Player{
			ID:            p.AgentID,
			Name:          p.Name,
			StartingChips: p.Chips,
			HoleCards:     append([]poker.Card(nil), p.HoleCards...),
		})
	}

	// Heads-up the dealer posts the small blind; otherwise the blinds sit
	// clockwise from the button. Short stacks post what they have.
	k := len(dealtIn)
	sbIdx := (t.DealerIndex + 1) % k
	if k == 2 {
		sbIdx = t.DealerIndex
	}
	bbIdx := (sbIdx + 1) % k
	t.postBlind(dealtIn[sbIdx], sb)
	t.postBlind(dealtIn[bbIdx], bb)
	t.CurrentBet = bb

	t.CurrentTurnIndex = t.nextSeatWhere(bbIdx, (*Player).CanAct)
	if t.countCanAct() == 0 {
		// Blinds put everyone all-in; run the board out.
		return evicted, t.runOut(now), nil
	}
	return evicted, nil, nil
}

func (t *Table) postBlind(p *Player, blind int) {
	c := blind
	if c > p.Chips {
		c = p.Chips
	}
	p.Chips -= c
	p.Bet += c
	p.TotalBet += c
	t.Pot += c
	if p.Chips == 0 {
		p.Status = StatusAllIn
	}
}
