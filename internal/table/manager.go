package table

import (
	"fmt"
	"sync"

	"github.com/agentpoker/agentpoker/internal/game"
)

// Manager tracks the live table actors. Tables named in config exist from
// boot; auto-assignment creates table-N ids monotonically when every open
// table is full. Ids are never reused within a process.
type Manager struct {
	mu     sync.RWMutex
	deps   Deps
	cfg    game.Config
	actors map[string]*Actor
	order  []string
	nextID int
}

// NewManager builds an empty manager; tables are added with Create or
// Restore.
func NewManager(deps Deps, cfg game.Config) *Manager {
	return &Manager{
		deps:   deps,
		cfg:    cfg,
		actors: make(map[string]*Actor),
	}
}

// Restore rebuilds actors for every persisted snapshot. Call once at boot,
// before Create seeds any configured tables that have no snapshot yet.
func (m *Manager) Restore() error {
	snaps, err := m.deps.Store.TableSnapshots()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, snap := range snaps {
		if _, ok := m.actors[id]; ok {
			continue
		}
		actor, err := RestoreActor(snap, m.deps)
		if err != nil {
			return fmt.Errorf("restore table %s: %w", id, err)
		}
		m.actors[id] = actor
		m.order = append(m.order, id)
		m.bumpCounter(id)
	}
	return nil
}

// Create adds a table with the given id if it does not already exist.
func (m *Manager) Create(id string, cfg game.Config) *Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(id, cfg)
}

func (m *Manager) createLocked(id string, cfg game.Config) *Actor {
	if existing, ok := m.actors[id]; ok {
		return existing
	}
	actor := NewActor(id, cfg, m.deps)
	m.actors[id] = actor
	m.order = append(m.order, id)
	m.bumpCounter(id)
	m.deps.Log.Info().Str("table", id).Msg("table created")
	return actor
}

// bumpCounter keeps the auto-assign counter ahead of any table-N id seen,
// so restored tables never collide with new ones.
func (m *Manager) bumpCounter(id string) {
	var n int
	if _, err := fmt.Sscanf(id, "table-%d", &n); err == nil && n >= m.nextID {
		m.nextID = n + 1
	}
}

// Get returns the actor for id.
func (m *Manager) Get(id string) (*Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.actors[id]
	return a, ok
}

// AutoAssign returns the first table with a free seat, in creation order,
// or creates a fresh one.
func (m *Manager) AutoAssign() *Actor {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if m.actors[id].FreeSeats() > 0 {
			return m.actors[id]
		}
	}
	id := fmt.Sprintf("table-%d", m.nextID)
	m.nextID++
	return m.createLocked(id, m.cfg)
}

// Summaries lists every table in creation order.
func (m *Manager) Summaries() []*Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Summary, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.actors[id].Summary())
	}
	return out
}

// Count returns the number of live tables.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.actors)
}
