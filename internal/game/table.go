package game

import (
	"encoding/json"

	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/poker"
)

// Table is the complete state of one table. All mutation goes through its
// methods; the caller (the table actor) provides serialization and owns
// persistence of snapshots between calls.
//
// Exported fields are the snapshot format: marshaling a Table and
// unmarshaling it later reproduces the table exactly, remaining deck and
// hole cards included. Snapshots never leave the server.
type Table struct {
	TableID        string       `json:"tableId"`
	Cfg            Config       `json:"config"`
	HandID         string       `json:"handId,omitempty"`
	Phase          Phase        `json:"phase"`
	Players        []*Player    `json:"players"`
	CommunityCards []poker.Card `json:"communityCards"`
	Pot            int          `json:"pot"`
	CurrentBet     int          `json:"currentBet"`

	// CurrentTurnIndex is the seat owing a decision, -1 when no one does.
	CurrentTurnIndex int          `json:"currentTurnIndex"`
	DealerIndex      int          `json:"dealerIndex"`
	SmallBlind       int          `json:"smallBlind"`
	BigBlind         int          `json:"bigBlind"`
	Deck             []poker.Card `json:"deck,omitempty"`

	// DeadContributions holds the total bets of players who folded and then
	// left mid-hand. Their chips stay in the pot and still fund side-pot
	// layers, but no seat remains to win them.
	DeadContributions []int                 `json:"deadContributions,omitempty"`
	Record            *history.Record       `json:"record,omitempty"`
	ChatLog           []history.ChatMessage `json:"chatLog,omitempty"`
	LastActionTime    int64                 `json:"lastActionTime"`
	LastHandResult    *HandResult           `json:"lastHandResult,omitempty"`
}

// New returns an empty table in the waiting phase.
func New(id string, cfg Config) *Table {
	cfg = cfg.withDefaults()
	return &Table{
		TableID:          id,
		Cfg:              cfg,
		Phase:            Waiting,
		CurrentTurnIndex: -1,
		SmallBlind:       cfg.DefaultSmallBlind,
		BigBlind:         cfg.DefaultSmallBlind * 2,
	}
}

// Snapshot serializes the full table state.
func (t *Table) Snapshot() ([]byte, error) {
	return json.Marshal(t)
}

// Restore rebuilds a table from a snapshot produced by Snapshot.
func Restore(data []byte) (*Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	t.Cfg = t.Cfg.withDefaults()
	return &t, nil
}

// Seat returns the player seated for agentID and its seat index, or nil, -1.
func (t *Table) Seat(agentID string) (*Player, int) {
	for i, p := range t.Players {
		if p.AgentID == agentID {
			return p, i
		}
	}
	return nil, -1
}

// InHand reports whether the player holds cards and has not folded.
func (p *Player) InHand() bool {
	return p.DealtIn() && (p.Status == StatusActive || p.Status == StatusAllIn)
}

// CanAct reports whether the player can still make betting decisions.
func (p *Player) CanAct() bool {
	return p.DealtIn() && p.Status == StatusActive
}

func (t *Table) countInHand() int {
	n := 0
	for _, p := range t.Players {
		if p.InHand() {
			n++
		}
	}
	return n
}

func (t *Table) countCanAct() int {
	n := 0
	for _, p := range t.Players {
		if p.CanAct() {
			n++
		}
	}
	return n
}

// nextSeatWhere walks seats clockwise from the one after `from`, returning
// the first seat satisfying ok, or -1 after a full lap.
func (t *Table) nextSeatWhere(from int, ok func(*Player) bool) int {
	n := len(t.Players)
	if n == 0 {
		return -1
	}
	for step := 1; step <= n; step++ {
		i := (from + step) % n
		if ok(t.Players[i]) {
			return i
		}
	}
	return -1
}

// Join seats a new agent. Seats are taken in insertion order; joining during
// a hand is allowed but the newcomer is dealt in only from the next hand.
func (t *Table) Join(agentID, name string, chips int) (int, error) {
	if _, i := t.Seat(agentID); i >= 0 {
		return -1, ErrAlreadySeated
	}
	if len(t.Players) >= t.Cfg.MaxPlayers {
		return -1, ErrTableFull
	}
	if chips < t.Cfg.MinBuyInBlinds*t.BigBlind {
		return -1, ErrInsufficientBuyIn
	}
	t.Players = append(t.Players, &Player{
		AgentID: agentID,
		Name:    name,
		Chips:   chips,
		Status:  StatusActive,
	})
	return len(t.Players) - 1, nil
}

// Leave removes the agent's seat and returns the chips to bank. A player
// still holding live cards must fold (or wait out the hand) first; a folded
// player may go, leaving their contribution behind in the pot.
func (t *Table) Leave(agentID string) (int, error) {
	p, idx := t.Seat(agentID)
	if p == nil {
		return 0, ErrNotSeated
	}
	if t.Phase.Betting() && p.InHand() {
		return 0, ErrInHandCannotLeave
	}
	if t.Phase.Betting() && p.TotalBet > 0 {
		t.DeadContributions = append(t.DeadContributions, p.TotalBet)
	}
	t.removeSeat(idx)
	return p.Chips, nil
}

// removeSeat drops the seat at idx and keeps the turn and dealer pointers
// aimed at the same players.
func (t *Table) removeSeat(idx int) {
	t.Players = append(t.Players[:idx], t.Players[idx+1:]...)
	if t.CurrentTurnIndex > idx {
		t.CurrentTurnIndex--
	}
	if t.DealerIndex >= idx && t.DealerIndex > 0 {
		t.DealerIndex--
	}
	if len(t.Players) == 0 {
		t.DealerIndex = 0
	}
}

// SitOut marks the agent as sitting out from the next hand. Only permitted
// between hands, whatever the seat's status.
func (t *Table) SitOut(agentID string) error {
	p, _ := t.Seat(agentID)
	if p == nil {
		return ErrNotSeated
	}
	if t.Phase.Betting() {
		return ErrBetweenHandsOnly
	}
	p.Status = StatusSittingOut
	p.SitOutCount = 0
	return nil
}

// SitIn resumes play from the next hand.
func (t *Table) SitIn(agentID string) error {
	p, _ := t.Seat(agentID)
	if p == nil {
		return ErrNotSeated
	}
	if t.Phase.Betting() {
		return ErrBetweenHandsOnly
	}
	if p.Status == StatusSittingOut {
		p.Status = StatusActive
		p.SitOutCount = 0
	}
	return nil
}

// AddChat appends a sanitized message to the table chat. The last messages
// are served in views; if a hand is running the message is archived with it.
func (t *Table) AddChat(msg history.ChatMessage) {
	t.ChatLog = append(t.ChatLog, msg)
	if len(t.ChatLog) > 50 {
		t.ChatLog = t.ChatLog[len(t.ChatLog)-50:]
	}
	if t.Record != nil {
		t.Record.Chat = append(t.Record.Chat, msg)
	}
}

// RecentChat returns up to limit of the newest chat messages, oldest first.
func (t *Table) RecentChat(limit int) []history.ChatMessage {
	if len(t.ChatLog) <= limit {
		return append([]history.ChatMessage(nil), t.ChatLog...)
	}
	return append([]history.ChatMessage(nil), t.ChatLog[len(t.ChatLog)-limit:]...)
}

// SetChips overwrites a seated agent's stack, used by rebuys between hands.
func (t *Table) SetChips(agentID string, chips int) error {
	p, _ := t.Seat(agentID)
	if p == nil {
		return ErrNotSeated
	}
	p.Chips = chips
	return nil
}

// AvailableActions lists the legal actions for the seat owing a decision.
// Empty unless it is the agent's turn in a betting phase.
func (t *Table) AvailableActions(agentID string) []string {
	p, idx := t.Seat(agentID)
	if p == nil || !t.Phase.Betting() || idx != t.CurrentTurnIndex || p.Status != StatusActive {
		return nil
	}
	actions := []string{Fold.String()}
	if t.CurrentBet <= p.Bet {
		actions = append(actions, Check.String())
	} else {
		actions = append(actions, Call.String())
	}
	if p.Chips > t.CurrentBet-p.Bet {
		actions = append(actions, Raise.String())
	}
	return append(actions, AllIn.String())
}
