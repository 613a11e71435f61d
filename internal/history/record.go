// Package history defines the archived form of a completed hand: who was
// dealt in, every action and chat message in order, and how the pot went.
// Records are built inside the table actor while the hand runs and archived
// once it resolves.
package history

import (
	"github.com/agentpoker/agentpoker/poker"
)

// Record is one completed (or in-progress) hand. Field names are the wire
// contract for /table/history and the stored hand:<handId> payloads.
type Record struct {
	HandID         string        `json:"handId"`
	TableID        string        `json:"tableId"`
	Players        []Player      `json:"players"`
	CommunityCards []poker.Card  `json:"communityCards"`
	Actions        []Action      `json:"actions"`
	Chat           []ChatMessage `json:"chat"`
	Pot            int           `json:"pot"`
	WinnerID       string        `json:"winnerId,omitempty"`
	WinnerName     string        `json:"winnerName,omitempty"`
	WinningHand    string        `json:"winningHand,omitempty"`
	StartedAt      int64         `json:"startedAt"`
	EndedAt        int64         `json:"endedAt"`
}

// Player captures a seat at deal time. Hole cards become public once the
// hand is archived; live views never serve them early.
type Player struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	StartingChips int          `json:"startingChips"`
	HoleCards     []poker.Card `json:"holeCards"`
}

// Action is one betting decision in order. Amount is the chips the action
// moved for call and all_in, and the raised-to total for raise.
type Action struct {
	AgentID   string `json:"agentId"`
	Action    string `json:"action"`
	Amount    int    `json:"amount,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ChatMessage is a sanitized table message.
type ChatMessage struct {
	From      string `json:"from"`
	FromName  string `json:"fromName"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Clone returns a deep copy so archived records never alias live state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		out.Players[i] = p
		out.Players[i].HoleCards = append([]poker.Card(nil), p.HoleCards...)
	}
	out.CommunityCards = append([]poker.Card(nil), r.CommunityCards...)
	out.Actions = append([]Action(nil), r.Actions...)
	out.Chat = append([]ChatMessage(nil), r.Chat...)
	return &out
}
