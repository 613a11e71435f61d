// Package store is the sqlite persistence layer: agent rows, table actor
// snapshots, the hand archive, and the pairwise collusion counters. Every
// method is a single transaction; callers above (identity, table actors,
// the collusion accumulator) compose them without shared locking because
// each row has exactly one writer path.
package store

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNameTaken means the agent name's unique index rejected an insert.
	ErrNameTaken = errors.New("name already taken")
)

// Store wraps the sqlite handle.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for throwaway test stores.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps sqlite happy under concurrent handlers.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, log: logger.With().Str("component", "store").Logger()}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			api_key_hash TEXT NOT NULL,
			chips INTEGER NOT NULL DEFAULT 0,
			hands_played INTEGER NOT NULL DEFAULT 0,
			hands_won INTEGER NOT NULL DEFAULT 0,
			llm_provider TEXT NOT NULL DEFAULT '',
			llm_model TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			banned INTEGER NOT NULL DEFAULT 0,
			current_table TEXT,
			rebuys INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_chips ON agents(chips DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_agents_key ON agents(api_key_hash)`,
		`CREATE TABLE IF NOT EXISTS tables (
			id TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS hand_history (
			id TEXT PRIMARY KEY,
			table_id TEXT NOT NULL,
			winner_id TEXT,
			winner_name TEXT,
			winning_hand TEXT,
			pot INTEGER NOT NULL,
			player_count INTEGER NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_history_table ON hand_history(table_id)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_history_winner ON hand_history(winner_id)`,
		`CREATE TABLE IF NOT EXISTS hand_records (
			id TEXT PRIMARY KEY,
			table_id TEXT NOT NULL,
			record TEXT NOT NULL,
			ended_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_records_table ON hand_records(table_id, ended_at DESC)`,
		`CREATE TABLE IF NOT EXISTS agent_pairs (
			agent_a TEXT NOT NULL,
			agent_b TEXT NOT NULL,
			hands_together INTEGER NOT NULL DEFAULT 0,
			a_folds_to_b INTEGER NOT NULL DEFAULT 0,
			b_folds_to_a INTEGER NOT NULL DEFAULT 0,
			chip_flow_a_to_b INTEGER NOT NULL DEFAULT 0,
			collusion_score REAL NOT NULL DEFAULT 0,
			last_updated INTEGER NOT NULL,
			PRIMARY KEY (agent_a, agent_b)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_agent_pairs_score ON agent_pairs(collusion_score DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite unique-constraint hit.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
