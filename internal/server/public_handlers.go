package server

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/agentpoker/agentpoker/internal/collusion"
	"github.com/agentpoker/agentpoker/internal/store"
)

var errAdminKey = errors.New("admin key required")

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tables": s.tables.Summaries()})
}

func (s *Server) handleSpectate(w http.ResponseWriter, r *http.Request) {
	actor, ok := s.tables.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errUnknownTable)
		return
	}
	writeJSON(w, http.StatusOK, actor.PublicView())
}

func (s *Server) handlePublicHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.tables.Get(r.PathValue("id")); !ok {
		writeError(w, errUnknownTable)
		return
	}
	s.writeHandHistory(w, r, r.PathValue("id"))
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	agents, err := s.store.Leaderboard(queryLimit(r, 20, 100))
	if err != nil {
		writeError(w, err)
		return
	}
	entries := make([]map[string]any, 0, len(agents))
	for i, a := range agents {
		winRate := 0.0
		if a.HandsPlayed > 0 {
			winRate = float64(a.HandsWon) / float64(a.HandsPlayed)
		}
		entries = append(entries, map[string]any{
			"rank":        i + 1,
			"id":          a.ID,
			"name":        a.Name,
			"chips":       a.Chips,
			"handsPlayed": a.HandsPlayed,
			"handsWon":    a.HandsWon,
			"winRate":     winRate,
			"llmProvider": a.LLMProvider,
			"llmModel":    a.LLMModel,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	agentStats, err := s.store.GlobalAgentStats()
	if err != nil {
		writeError(w, err)
		return
	}
	hands, err := s.store.CountHands()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalAgents":   agentStats.TotalAgents,
		"activeAgents":  agentStats.ActiveAgents,
		"activeTables":  s.tables.Count(),
		"handsPlayed":   hands,
		"chipsInPlay":   agentStats.ChipsInPlay,
		"uptimeSeconds": int(s.clock.Now().Sub(s.startedAt).Seconds()),
	})
}

func (s *Server) handleCollusion(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.collusion.Watchlist(queryLimit(r, 50, 200))
	if err != nil {
		writeError(w, err)
		return
	}
	if pairs == nil {
		pairs = []*store.Pair{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pairs":     pairs,
		"threshold": collusion.FlagThreshold,
	})
}

// handleReset wipes a table. Admin-only; with no admin key configured the
// route is disabled entirely.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("X-Admin-Key")
	if s.cfg.Server.AdminKey == "" ||
		subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.Server.AdminKey)) != 1 {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": errAdminKey.Error()})
		return
	}
	actor, ok := s.tables.Get(r.PathValue("id"))
	if !ok {
		writeError(w, errUnknownTable)
		return
	}
	if err := actor.Reset(); err != nil {
		writeError(w, err)
		return
	}
	s.log.Info().Str("table", actor.ID()).Msg("table reset by admin")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
