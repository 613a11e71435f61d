package store

import (
	"database/sql"
	"encoding/json"

	"github.com/agentpoker/agentpoker/internal/history"
)

// handRecordsPerTable caps how many full hand records are retained per
// table; older ones are pruned as new hands archive.
const handRecordsPerTable = 50

// HandSummary is one hand_history row, the metadata kept for every hand
// ever played (full records are pruned, summaries are not).
type HandSummary struct {
	ID          string `json:"id"`
	TableID     string `json:"tableId"`
	WinnerID    string `json:"winnerId"`
	WinnerName  string `json:"winnerName"`
	WinningHand string `json:"winningHand"`
	Pot         int    `json:"pot"`
	PlayerCount int    `json:"playerCount"`
	StartedAt   int64  `json:"startedAt"`
	EndedAt     int64  `json:"endedAt"`
}

// ArchiveHand stores a completed hand: the summary row plus the full record
// JSON, pruning old records past the per-table cap. Inserts ignore
// duplicates so retried post-commit flushes are idempotent.
func (s *Store) ArchiveHand(rec *history.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO hand_history
		(id, table_id, winner_id, winner_name, winning_hand, pot, player_count, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.HandID, rec.TableID, rec.WinnerID, rec.WinnerName, rec.WinningHand,
		rec.Pot, len(rec.Players), rec.StartedAt, rec.EndedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR IGNORE INTO hand_records (id, table_id, record, ended_at)
		VALUES (?, ?, ?, ?)`, rec.HandID, rec.TableID, string(blob), rec.EndedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM hand_records WHERE table_id = ? AND id NOT IN (
			SELECT id FROM hand_records WHERE table_id = ?
			ORDER BY ended_at DESC, id DESC LIMIT ?
		)`, rec.TableID, rec.TableID, handRecordsPerTable); err != nil {
		return err
	}
	return tx.Commit()
}

// HandRecords returns up to limit full records for a table, newest first.
func (s *Store) HandRecords(tableID string, limit int) ([]*history.Record, error) {
	rows, err := s.db.Query(`SELECT record FROM hand_records
		WHERE table_id = ? ORDER BY ended_at DESC, id DESC LIMIT ?`, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []*history.Record
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var rec history.Record
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CountHands reports how many hands have completed across all tables.
func (s *Store) CountHands() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM hand_history`).Scan(&n)
	return n, err
}

// SaveTableSnapshot persists a table actor's full state.
func (s *Store) SaveTableSnapshot(tableID string, snapshot []byte, updatedAt int64) error {
	_, err := s.db.Exec(`INSERT INTO tables (id, snapshot, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		tableID, string(snapshot), updatedAt)
	return err
}

// TableSnapshot loads one persisted table state.
func (s *Store) TableSnapshot(tableID string) ([]byte, error) {
	var blob string
	err := s.db.QueryRow(`SELECT snapshot FROM tables WHERE id = ?`, tableID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(blob), nil
}

// TableSnapshots returns every persisted table state, keyed by table id,
// for restoring actors at boot.
func (s *Store) TableSnapshots() (map[string][]byte, error) {
	rows, err := s.db.Query(`SELECT id, snapshot FROM tables`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	snaps := make(map[string][]byte)
	for rows.Next() {
		var id, blob string
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		snaps[id] = []byte(blob)
	}
	return snaps, rows.Err()
}

// DeleteTableSnapshot drops a table's persisted state.
func (s *Store) DeleteTableSnapshot(tableID string) error {
	_, err := s.db.Exec(`DELETE FROM tables WHERE id = ?`, tableID)
	return err
}
