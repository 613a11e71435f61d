package table

import (
	"github.com/agentpoker/agentpoker/internal/game"
	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/poker"
)

// SeatView is the public slice of one seat. Cards appear only in public
// showdown views, and only for players who did not fold.
type SeatView struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Chips  int          `json:"chips"`
	Status string       `json:"status"`
	Bet    int          `json:"bet"`
	Cards  []poker.Card `json:"cards,omitempty"`
}

// AgentView is the filtered state served to one seated agent: their own
// cards, the public board, and what they may legally do. It never carries
// another agent's hole cards.
type AgentView struct {
	TableID          string                `json:"tableId"`
	HandID           string                `json:"handId,omitempty"`
	Phase            string                `json:"phase"`
	YourCards        []poker.Card          `json:"yourCards"`
	CommunityCards   []poker.Card          `json:"communityCards"`
	Pot              int                   `json:"pot"`
	CurrentBet       int                   `json:"currentBet"`
	YourChips        int                   `json:"yourChips"`
	YourBet          int                   `json:"yourBet"`
	IsYourTurn       bool                  `json:"isYourTurn"`
	Turn             *string               `json:"turn"`
	TimeLeftMs       int64                 `json:"timeLeftMs"`
	Players          []SeatView            `json:"players"`
	RecentChat       []history.ChatMessage `json:"recentChat"`
	AvailableActions []string              `json:"availableActions"`
	LastHandResult   *game.HandResult      `json:"lastHandResult,omitempty"`
}

// PublicView is the spectator state: the same board with all hole cards
// hidden until showdown.
type PublicView struct {
	TableID        string           `json:"tableId"`
	HandID         string           `json:"handId,omitempty"`
	Phase          string           `json:"phase"`
	CommunityCards []poker.Card     `json:"communityCards"`
	Pot            int              `json:"pot"`
	CurrentBet     int              `json:"currentBet"`
	Turn           *string          `json:"turn"`
	DealerIndex    int              `json:"dealerIndex"`
	SmallBlind     int              `json:"smallBlind"`
	BigBlind       int              `json:"bigBlind"`
	Players        []SeatView       `json:"players"`
	LastHandResult *game.HandResult `json:"lastHandResult,omitempty"`
}

// Summary is the lightweight table listing.
type Summary struct {
	TableID    string `json:"tableId"`
	Phase      string `json:"phase"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"maxPlayers"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	HandID     string `json:"handId,omitempty"`
}

// AgentView renders the table as seen by agentID.
func (a *Actor) AgentView(agentID string) *AgentView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.agentViewLocked(agentID)
}

func (a *Actor) agentViewLocked(agentID string) *AgentView {
	t := a.t
	v := &AgentView{
		TableID:          t.TableID,
		HandID:           t.HandID,
		Phase:            t.Phase.String(),
		CommunityCards:   append([]poker.Card(nil), t.CommunityCards...),
		Pot:              t.Pot,
		CurrentBet:       t.CurrentBet,
		Turn:             turnAgentID(t),
		Players:          a.seatViews(false),
		RecentChat:       t.RecentChat(10),
		AvailableActions: t.AvailableActions(agentID),
		LastHandResult:   t.LastHandResult,
	}
	if p, idx := t.Seat(agentID); p != nil {
		v.YourCards = append([]poker.Card(nil), p.HoleCards...)
		v.YourChips = p.Chips
		v.YourBet = p.Bet
		v.IsYourTurn = t.Phase.Betting() && idx == t.CurrentTurnIndex
	}
	if t.Phase.Betting() && t.CurrentTurnIndex >= 0 {
		if left := t.LastActionTime + t.Cfg.ActionTimeoutMs - a.now(); left > 0 {
			v.TimeLeftMs = left
		}
	}
	return v
}

// PublicView renders the spectator state. Hole cards of non-folded players
// appear only during showdown.
func (a *Actor) PublicView() *PublicView {
	a.mu.Lock()
	defer a.mu.Unlock()
	t := a.t
	return &PublicView{
		TableID:        t.TableID,
		HandID:         t.HandID,
		Phase:          t.Phase.String(),
		CommunityCards: append([]poker.Card(nil), t.CommunityCards...),
		Pot:            t.Pot,
		CurrentBet:     t.CurrentBet,
		Turn:           turnAgentID(t),
		DealerIndex:    t.DealerIndex,
		SmallBlind:     t.SmallBlind,
		BigBlind:       t.BigBlind,
		Players:        a.seatViews(t.Phase == game.Showdown),
		LastHandResult: t.LastHandResult,
	}
}

// turnAgentID names the seat owing a decision, nil when no one does.
func turnAgentID(t *game.Table) *string {
	if t.CurrentTurnIndex < 0 || t.CurrentTurnIndex >= len(t.Players) {
		return nil
	}
	id := t.Players[t.CurrentTurnIndex].AgentID
	return &id
}

// seatViews renders the per-player public info. revealCards shows the hole
// cards of players who made it to showdown without folding.
func (a *Actor) seatViews(revealCards bool) []SeatView {
	views := make([]SeatView, len(a.t.Players))
	for i, p := range a.t.Players {
		views[i] = SeatView{
			ID:     p.AgentID,
			Name:   p.Name,
			Chips:  p.Chips,
			Status: p.Status.String(),
			Bet:    p.Bet,
		}
		if revealCards && p.InHand() {
			views[i].Cards = append([]poker.Card(nil), p.HoleCards...)
		}
	}
	return views
}

// Summary renders the table listing entry.
func (a *Actor) Summary() *Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Summary{
		TableID:    a.t.TableID,
		Phase:      a.t.Phase.String(),
		Players:    len(a.t.Players),
		MaxPlayers: a.t.Cfg.MaxPlayers,
		SmallBlind: a.t.SmallBlind,
		BigBlind:   a.t.BigBlind,
		HandID:     a.t.HandID,
	}
}

// HasSeat reports whether the agent is seated here.
func (a *Actor) HasSeat(agentID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, _ := a.t.Seat(agentID)
	return p != nil
}

// FreeSeats reports how many seats remain open.
func (a *Actor) FreeSeats() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.t.Cfg.MaxPlayers - len(a.t.Players)
}
