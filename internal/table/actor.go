// Package table hosts the runtime around the pure game engine: one actor
// per table serializing every mutation, persisting a snapshot before each
// acknowledgement, and driving the two clocks a hand needs (the 15 s
// decision timeout and the 3 s pause between hands). A manager above the
// actors owns table creation and auto-assignment.
package table

import (
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/agentpoker/agentpoker/internal/game"
	"github.com/agentpoker/agentpoker/internal/gameid"
	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/poker"
)

// ShowdownCooldown is how long a finished hand stays on display before the
// next deal. It also spaces out the first deal after seats fill up.
const ShowdownCooldown = 3 * time.Second

// Store persists actor snapshots. Satisfied by *store.Store.
type Store interface {
	SaveTableSnapshot(tableID string, snapshot []byte, updatedAt int64) error
	TableSnapshots() (map[string][]byte, error)
	DeleteTableSnapshot(tableID string) error
}

// Sink receives committed table effects. Implementations are best-effort:
// the actor logs their errors and never unwinds a committed action.
type Sink interface {
	// HandFinished delivers a resolved hand with every still-seated
	// participant's post-hand stack for write-back.
	HandFinished(tableID string, res *game.Result, stacks map[string]int)
	// SeatTaken and SeatVacated track which table an agent occupies;
	// vacating returns the seat's chips to the agent's bank.
	SeatTaken(agentID, tableID string)
	SeatVacated(agentID string, chips int, reason string)
}

// Actor is the single writer for one table. All state behind mu; every
// mutating method commits a snapshot before returning.
type Actor struct {
	mu    sync.Mutex
	log   zerolog.Logger
	clock quartz.Clock
	store Store
	sink  Sink
	src   poker.Source
	ids   *gameid.Generator

	t *game.Table

	actionTimer   *quartz.Timer
	nextHandTimer *quartz.Timer
}

// NewActor wraps a fresh table.
func NewActor(id string, cfg game.Config, deps Deps) *Actor {
	return newActor(game.New(id, cfg), deps)
}

// RestoreActor wraps a table recovered from a snapshot. A hand that was
// mid-flight at crash time resumes with its timers rearmed.
func RestoreActor(snapshot []byte, deps Deps) (*Actor, error) {
	t, err := game.Restore(snapshot)
	if err != nil {
		return nil, err
	}
	a := newActor(t, deps)
	a.mu.Lock()
	a.reschedule()
	a.mu.Unlock()
	return a, nil
}

// Deps are the actor's collaborators, shared across all tables.
type Deps struct {
	Log   zerolog.Logger
	Clock quartz.Clock
	Store Store
	Sink  Sink
	// Src shuffles decks; nil means crypto-strong.
	Src poker.Source
}

func newActor(t *game.Table, deps Deps) *Actor {
	src := deps.Src
	if src == nil {
		src = poker.CryptoSource{}
	}
	return &Actor{
		log:   deps.Log.With().Str("component", "table").Str("table", t.TableID).Logger(),
		clock: deps.Clock,
		store: deps.Store,
		sink:  deps.Sink,
		src:   src,
		ids:   gameid.NewGenerator(nil),
		t:     t,
	}
}

// ID returns the table id.
func (a *Actor) ID() string { return a.t.TableID }

func (a *Actor) now() int64 { return a.clock.Now().UnixMilli() }

// commit persists the snapshot. Nothing is acknowledged to a caller until
// this succeeds; an error here is the caller's error.
func (a *Actor) commit() error {
	snap, err := a.t.Snapshot()
	if err != nil {
		return err
	}
	if err := a.store.SaveTableSnapshot(a.t.TableID, snap, a.now()); err != nil {
		a.log.Error().Err(err).Msg("snapshot persist failed")
		return err
	}
	return nil
}

// Join seats the agent and arms the next-hand timer if the table became
// playable.
func (a *Actor) Join(agentID, name string, chips int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	seat, err := a.t.Join(agentID, name, chips)
	if err != nil {
		return -1, err
	}
	if err := a.commit(); err != nil {
		return -1, err
	}
	a.sink.SeatTaken(agentID, a.t.TableID)
	a.reschedule()
	return seat, nil
}

// Leave vacates the seat and banks its chips.
func (a *Actor) Leave(agentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	chips, err := a.t.Leave(agentID)
	if err != nil {
		return err
	}
	if err := a.commit(); err != nil {
		return err
	}
	a.sink.SeatVacated(agentID, chips, "left")
	return nil
}

// SitOut marks the agent out from the next hand.
func (a *Actor) SitOut(agentID string) error {
	return a.mutate(func() error { return a.t.SitOut(agentID) })
}

// SitIn resumes play from the next hand.
func (a *Actor) SitIn(agentID string) error {
	return a.mutate(func() error { return a.t.SitIn(agentID) })
}

// UpdateChips overwrites a seated agent's stack, for rebuys. Refused while
// the agent is dealt into a live hand; mid-hand stack edits would corrupt
// pot accounting.
func (a *Actor) UpdateChips(agentID string, chips int) error {
	return a.mutate(func() error {
		if p, _ := a.t.Seat(agentID); p != nil && p.DealtIn() && a.t.Phase.Betting() {
			return game.ErrHandInProgress
		}
		return a.t.SetChips(agentID, chips)
	})
}

// Chat appends a sanitized message to the table log.
func (a *Actor) Chat(msg history.ChatMessage) error {
	return a.mutate(func() error {
		a.t.AddChat(msg)
		return nil
	})
}

// mutate runs one engine mutation under the lock, committing on success
// and rearming timers.
func (a *Actor) mutate(fn func() error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	if err := a.commit(); err != nil {
		return err
	}
	a.reschedule()
	return nil
}

// Act applies a betting decision and returns the agent's post-commit view.
func (a *Actor) Act(agentID string, action game.Action, amount int) (*AgentView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	res, err := a.t.Act(agentID, action, amount, a.now())
	if err != nil {
		return nil, err
	}
	if err := a.commit(); err != nil {
		return nil, err
	}
	if res != nil {
		a.handFinished(res)
	}
	a.reschedule()
	return a.agentViewLocked(agentID), nil
}

// Reset wipes the table: every seat is vacated with its chips banked and
// the state returns to an empty waiting table.
func (a *Actor) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.t.Players {
		a.sink.SeatVacated(p.AgentID, p.Chips, "table reset")
	}
	a.t = game.New(a.t.TableID, a.t.Cfg)
	if err := a.commit(); err != nil {
		return err
	}
	a.reschedule()
	return nil
}

// LastHandRecord returns the archived form of the most recent hand, nil if
// none has completed since the last deal began.
func (a *Actor) LastHandRecord() *history.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.t.Record == nil || a.t.Record.EndedAt == 0 {
		return nil
	}
	return a.t.Record.Clone()
}

// handFinished fans a resolved hand out to the sink with the participants'
// post-hand stacks. Called with the lock held, after the commit.
func (a *Actor) handFinished(res *game.Result) {
	stacks := make(map[string]int)
	if res.Record != nil {
		for _, rp := range res.Record.Players {
			if p, _ := a.t.Seat(rp.ID); p != nil {
				stacks[rp.ID] = p.Chips
			}
		}
	}
	a.log.Info().
		Str("hand", res.HandID).
		Str("winner", res.WinnerName).
		Str("winning_hand", res.WinningHand).
		Int("pot", res.Pot).
		Msg("hand finished")
	a.sink.HandFinished(a.t.TableID, res, stacks)
}

// tryStartHand deals the next hand if the table can play. Runs from the
// next-hand timer; a failed start leaves the table waiting until the next
// join rearms it.
func (a *Actor) tryStartHand() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextHandTimer = nil
	if !a.t.CanStartHand() {
		return
	}
	evicted, res, err := a.t.StartHand(a.src, a.ids.Generate(), a.now())
	for _, ev := range evicted {
		a.sink.SeatVacated(ev.AgentID, ev.Chips, ev.Reason)
	}
	if err != nil {
		a.log.Warn().Err(err).Msg("hand start failed")
		if cerr := a.commit(); cerr != nil {
			return
		}
		return
	}
	if cerr := a.commit(); cerr != nil {
		return
	}
	a.log.Info().Str("hand", a.t.HandID).Int("players", len(a.t.Players)).
		Int("small_blind", a.t.SmallBlind).Int("big_blind", a.t.BigBlind).
		Msg("hand started")
	if res != nil {
		a.handFinished(res)
	}
	a.reschedule()
}

// onActionTimeout fires the engine's timeout fold. Firing is idempotent:
// the engine only acts when the full window has elapsed since the last
// committed action.
func (a *Actor) onActionTimeout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actionTimer = nil
	res, fired := a.t.Timeout(a.now())
	if !fired {
		a.reschedule()
		return
	}
	a.log.Info().Str("hand", a.t.HandID).Msg("action timeout, player folded")
	if err := a.commit(); err != nil {
		return
	}
	if res != nil {
		a.handFinished(res)
	}
	a.reschedule()
}

// reschedule rearms the timers to match the committed state: a decision
// timer while someone is on the clock, the next-hand timer whenever the
// table is between hands and could deal. Called with the lock held.
func (a *Actor) reschedule() {
	if a.actionTimer != nil {
		a.actionTimer.Stop()
		a.actionTimer = nil
	}
	if a.t.Phase.Betting() && a.t.CurrentTurnIndex >= 0 {
		deadline := a.t.LastActionTime + a.t.Cfg.ActionTimeoutMs
		delay := time.Duration(deadline-a.now()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		a.actionTimer = a.clock.AfterFunc(delay, a.onActionTimeout)
		return
	}
	if a.t.CanStartHand() && a.nextHandTimer == nil {
		a.nextHandTimer = a.clock.AfterFunc(ShowdownCooldown, a.tryStartHand)
	}
}
