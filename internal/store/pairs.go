package store

import "database/sql"

// Pair is one agent_pairs row: cumulative counters for an unordered agent
// pair, with AgentA < AgentB lexically.
type Pair struct {
	AgentA        string  `json:"agentA"`
	AgentB        string  `json:"agentB"`
	HandsTogether int     `json:"handsTogether"`
	AFoldsToB     int     `json:"aFoldsToB"`
	BFoldsToA     int     `json:"bFoldsToA"`
	ChipFlowAToB  int     `json:"chipFlowAToB"`
	Score         float64 `json:"score"`
	LastUpdated   int64   `json:"lastUpdated"`
}

// Pair loads one pair row.
func (s *Store) Pair(a, b string) (*Pair, error) {
	var p Pair
	err := s.db.QueryRow(`SELECT agent_a, agent_b, hands_together, a_folds_to_b,
		b_folds_to_a, chip_flow_a_to_b, collusion_score, last_updated
		FROM agent_pairs WHERE agent_a = ? AND agent_b = ?`, a, b).
		Scan(&p.AgentA, &p.AgentB, &p.HandsTogether, &p.AFoldsToB,
			&p.BFoldsToA, &p.ChipFlowAToB, &p.Score, &p.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// BumpPair adds one hand's deltas to a pair's counters and returns the
// updated row, inserting it first if the pair is new. The single upsert
// keeps concurrent post-hand flushes from losing increments.
func (s *Store) BumpPair(a, b string, aFoldsToB, bFoldsToA, chipFlow int, now int64) (*Pair, error) {
	_, err := s.db.Exec(`INSERT INTO agent_pairs
		(agent_a, agent_b, hands_together, a_folds_to_b, b_folds_to_a, chip_flow_a_to_b, collusion_score, last_updated)
		VALUES (?, ?, 1, ?, ?, ?, 0, ?)
		ON CONFLICT(agent_a, agent_b) DO UPDATE SET
			hands_together = hands_together + 1,
			a_folds_to_b = a_folds_to_b + excluded.a_folds_to_b,
			b_folds_to_a = b_folds_to_a + excluded.b_folds_to_a,
			chip_flow_a_to_b = chip_flow_a_to_b + excluded.chip_flow_a_to_b,
			last_updated = excluded.last_updated`,
		a, b, aFoldsToB, bFoldsToA, chipFlow, now)
	if err != nil {
		return nil, err
	}
	return s.Pair(a, b)
}

// SetPairScore writes a recomputed collusion score.
func (s *Store) SetPairScore(a, b string, score float64) error {
	return s.execOne(`UPDATE agent_pairs SET collusion_score = ?
		WHERE agent_a = ? AND agent_b = ?`, score, a, b)
}

// PairsAboveScore returns pairs at or over the score threshold, highest
// first, for the public watchlist.
func (s *Store) PairsAboveScore(threshold float64, limit int) ([]*Pair, error) {
	rows, err := s.db.Query(`SELECT agent_a, agent_b, hands_together, a_folds_to_b,
		b_folds_to_a, chip_flow_a_to_b, collusion_score, last_updated
		FROM agent_pairs WHERE collusion_score >= ?
		ORDER BY collusion_score DESC LIMIT ?`, threshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []*Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.AgentA, &p.AgentB, &p.HandsTogether, &p.AFoldsToB,
			&p.BFoldsToA, &p.ChipFlowAToB, &p.Score, &p.LastUpdated); err != nil {
			return nil, err
		}
		pairs = append(pairs, &p)
	}
	return pairs, rows.Err()
}
