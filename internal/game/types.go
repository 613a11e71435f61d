// Package game implements the no-limit hold'em table state machine: seating,
// blinds, the betting rounds, side pots, and showdown resolution. It is pure
// state plus rules. Timers, persistence, and transport live above it in
// internal/table and internal/server; everything here takes explicit
// timestamps and randomness so tests can drive it deterministically.
package game

import (
	"encoding/json"
	"fmt"

	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/poker"
)

// Phase is where the table is in the hand lifecycle. Betting happens in
// preflop through river; waiting and showdown are the between-hand phases.
type Phase int

const (
	Waiting Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
)

var phaseNames = map[Phase]string{
	Waiting:  "waiting",
	Preflop:  "preflop",
	Flop:     "flop",
	Turn:     "turn",
	River:    "river",
	Showdown: "showdown",
}

func (p Phase) String() string {
	if s, ok := phaseNames[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Betting reports whether action is live in this phase.
func (p Phase) Betting() bool {
	return p >= Preflop && p <= River
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for ph, name := range phaseNames {
		if name == s {
			*p = ph
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", s)
}

// Status is a seated player's standing in the current hand.
type Status int

const (
	// StatusActive players hold live cards and still owe decisions.
	StatusActive Status = iota
	// StatusFolded players surrendered this hand but keep their seat.
	StatusFolded
	// StatusAllIn players have every chip committed and take no more turns.
	StatusAllIn
	// StatusSittingOut players keep a seat but are not dealt in.
	StatusSittingOut
)

var statusNames = map[Status]string{
	StatusActive:     "active",
	StatusFolded:     "folded",
	StatusAllIn:      "all_in",
	StatusSittingOut: "sitting_out",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for st, n := range statusNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

// Action is a betting decision.
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
	AllIn
)

var actionNames = map[Action]string{
	Fold:  "fold",
	Check: "check",
	Call:  "call",
	Raise: "raise",
	AllIn: "all_in",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction maps a wire string to an Action.
func ParseAction(s string) (Action, error) {
	for a, n := range actionNames {
		if n == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown action %q", ErrInvalidAction, s)
}

// Player is one seat. Seat order is table position; the slice index in
// Table.Players is always the seat index.
type Player struct {
	AgentID   string       `json:"agentId"`
	Name      string       `json:"name"`
	Chips     int          `json:"chips"`
	HoleCards []poker.Card `json:"holeCards,omitempty"`
	Status    Status       `json:"status"`
	// Bet is the current street's contribution, TotalBet the whole hand's.
	Bet      int `json:"bet"`
	TotalBet int `json:"totalBet"`
	// HasActed tracks whether the player has spoken since the last raise.
	HasActed bool `json:"hasActed"`
	// SitOutCount is consecutive hands missed while sitting out.
	SitOutCount int `json:"sitOutCount"`
}

// DealtIn reports whether the player holds cards this hand. Players who
// join mid-hand or sit out have no hole cards until the next deal.
func (p *Player) DealtIn() bool {
	return len(p.HoleCards) == 2
}

// Config carries table rules. Zero values are replaced by defaults.
type Config struct {
	MaxPlayers        int   `json:"maxPlayers"`
	DefaultSmallBlind int   `json:"defaultSmallBlind"`
	MinBuyInBlinds    int   `json:"minBuyInBlinds"`
	ActionTimeoutMs   int64 `json:"actionTimeoutMs"`
}

// Defaults mirror the production table rules.
const (
	DefaultMaxPlayers         = 6
	DefaultSmallBlind         = 10
	DefaultMinBuyInBlinds     = 5
	DefaultActionTimeoutMs    = 15_000
	DefaultShowdownCooldownMs = 3_000
	MaxSitOutHands            = 10
	MinPlayersToDeal          = 2
)

func (c Config) withDefaults() Config {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = DefaultMaxPlayers
	}
	if c.DefaultSmallBlind <= 0 {
		c.DefaultSmallBlind = DefaultSmallBlind
	}
	if c.MinBuyInBlinds <= 0 {
		c.MinBuyInBlinds = DefaultMinBuyInBlinds
	}
	if c.ActionTimeoutMs <= 0 {
		c.ActionTimeoutMs = DefaultActionTimeoutMs
	}
	return c
}

// HandResult summarizes the last resolved hand for table views.
type HandResult struct {
	HandID      string `json:"handId"`
	WinnerID    string `json:"winnerId"`
	WinnerName  string `json:"winnerName"`
	WinningHand string `json:"winningHand"`
	Pot         int    `json:"pot"`
}

// Evicted names a player removed from the table at hand start, either
// too short-stacked to post the big blind or sat out too long. The caller
// banks the remaining chips.
type Evicted struct {
	AgentID string
	Name    string
	Chips   int
	Reason  string
}

// Result reports how a resolved hand paid out. Awards maps agent id to
// chips received from the pot (including uncalled returns); Winners is the
// subset that actually won a contested pot or took it uncontested.
type Result struct {
	HandResult
	Awards  map[string]int
	Winners []string
	Record  *history.Record
}
