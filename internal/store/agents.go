package store

import (
	"database/sql"
)

// Agent is one registered agent row.
type Agent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	APIKeyHash   string  `json:"-"`
	Chips        int     `json:"chips"`
	HandsPlayed  int     `json:"handsPlayed"`
	HandsWon     int     `json:"handsWon"`
	LLMProvider  string  `json:"llmProvider,omitempty"`
	LLMModel     string  `json:"llmModel,omitempty"`
	CreatedAt    int64   `json:"createdAt"`
	Banned       bool    `json:"banned"`
	CurrentTable *string `json:"currentTable"`
	Rebuys       int     `json:"rebuys"`
}

const agentColumns = `id, name, api_key_hash, chips, hands_played, hands_won,
	llm_provider, llm_model, created_at, banned, current_table, rebuys`

func scanAgent(row interface{ Scan(...any) error }) (*Agent, error) {
	var a Agent
	var banned int
	err := row.Scan(&a.ID, &a.Name, &a.APIKeyHash, &a.Chips, &a.HandsPlayed,
		&a.HandsWon, &a.LLMProvider, &a.LLMModel, &a.CreatedAt, &banned,
		&a.CurrentTable, &a.Rebuys)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Banned = banned != 0
	return &a, nil
}

// CreateAgent inserts a new agent. Returns ErrNameTaken when the unique
// name index rejects it, which is how concurrent registrations race safely.
func (s *Store) CreateAgent(a *Agent) error {
	_, err := s.db.Exec(`INSERT INTO agents (`+agentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.APIKeyHash, a.Chips, a.HandsPlayed, a.HandsWon,
		a.LLMProvider, a.LLMModel, a.CreatedAt, boolInt(a.Banned),
		a.CurrentTable, a.Rebuys)
	if isUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

// AgentByID fetches one agent row.
func (s *Store) AgentByID(id string) (*Agent, error) {
	return scanAgent(s.db.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id))
}

// AgentByKeyHash resolves a hashed bearer token to its agent.
func (s *Store) AgentByKeyHash(hash string) (*Agent, error) {
	return scanAgent(s.db.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE api_key_hash = ?`, hash))
}

// SetAgentChips overwrites the agent's bank balance.
func (s *Store) SetAgentChips(id string, chips int) error {
	return s.execOne(`UPDATE agents SET chips = ? WHERE id = ?`, chips, id)
}

// SetCurrentTable records where the agent is seated; nil clears it.
func (s *Store) SetCurrentTable(id string, tableID *string) error {
	return s.execOne(`UPDATE agents SET current_table = ? WHERE id = ?`, tableID, id)
}

// RecordHandPlayed bumps the per-hand counters and writes the post-hand
// chip balance in one statement.
func (s *Store) RecordHandPlayed(id string, won bool, chips int) error {
	return s.execOne(`UPDATE agents
		SET hands_played = hands_played + 1,
		    hands_won = hands_won + ?,
		    chips = ?
		WHERE id = ?`, boolInt(won), chips, id)
}

// RecordHandOutcome bumps the per-hand counters without touching chips,
// for participants whose balance was already banked when they left the
// table mid-hand.
func (s *Store) RecordHandOutcome(id string, won bool) error {
	return s.execOne(`UPDATE agents
		SET hands_played = hands_played + 1,
		    hands_won = hands_won + ?
		WHERE id = ?`, boolInt(won), id)
}

// RecordRebuy sets the refreshed balance and bumps the rebuy counter.
func (s *Store) RecordRebuy(id string, chips int) error {
	return s.execOne(`UPDATE agents SET chips = ?, rebuys = rebuys + 1 WHERE id = ?`, chips, id)
}

// SetBanned flips the agent's banned flag.
func (s *Store) SetBanned(id string, banned bool) error {
	return s.execOne(`UPDATE agents SET banned = ? WHERE id = ?`, boolInt(banned), id)
}

// Leaderboard returns the top agents by chips.
func (s *Store) Leaderboard(limit int) ([]*Agent, error) {
	rows, err := s.db.Query(`SELECT `+agentColumns+` FROM agents
		WHERE banned = 0 ORDER BY chips DESC, name ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var agents []*Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// AgentStats are the global counters for /stats.
type AgentStats struct {
	TotalAgents  int
	ActiveAgents int
	ChipsInPlay  int
}

// GlobalAgentStats aggregates the agent table in one query.
func (s *Store) GlobalAgentStats() (AgentStats, error) {
	var st AgentStats
	err := s.db.QueryRow(`SELECT COUNT(*),
		COUNT(current_table),
		COALESCE(SUM(chips), 0) FROM agents`).
		Scan(&st.TotalAgents, &st.ActiveAgents, &st.ChipsInPlay)
	return st, err
}

// execOne runs a statement that must touch exactly one row.
func (s *Store) execOne(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
