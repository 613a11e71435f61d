package server

import (
	"net/http"
	"strconv"

	"github.com/agentpoker/agentpoker/internal/chat"
	"github.com/agentpoker/agentpoker/internal/game"
	"github.com/agentpoker/agentpoker/internal/history"
	"github.com/agentpoker/agentpoker/internal/store"
	"github.com/agentpoker/agentpoker/internal/table"
)

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	var req struct {
		TableID string `json:"tableId"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	if agent.CurrentTable != nil {
		writeError(w, game.ErrAlreadySeated)
		return
	}

	var actor *table.Actor
	if req.TableID != "" {
		var ok bool
		if actor, ok = s.tables.Get(req.TableID); !ok {
			writeError(w, errUnknownTable)
			return
		}
	} else {
		actor = s.tables.AutoAssign()
	}

	seat, err := actor.Join(agent.ID, agent.Name, agent.Chips)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"tableId": actor.ID(),
		"seat":    seat,
	})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	actor, err := s.agentActor(agent)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := actor.Leave(agent.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleSitOut(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	s.seatToggle(w, agent, (*table.Actor).SitOut)
}

func (s *Server) handleSitIn(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	s.seatToggle(w, agent, (*table.Actor).SitIn)
}

func (s *Server) seatToggle(w http.ResponseWriter, agent *store.Agent, op func(*table.Actor, string) error) {
	actor, err := s.agentActor(agent)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(actor, agent.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	actor, err := s.agentActor(agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actor.AgentView(agent.ID))
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	var req struct {
		Action string `json:"action"`
		Amount int    `json:"amount"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	action, err := game.ParseAction(req.Action)
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := s.agentActor(agent)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := actor.Act(agent.ID, action, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	s.metrics.Actions.WithLabelValues(action.String()).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "state": view})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	actor, err := s.agentActor(agent)
	if err != nil {
		writeError(w, err)
		return
	}
	cleaned, err := chat.SanitizeMessage(req.Text)
	if err != nil {
		s.metrics.ChatFiltered.Inc()
		writeError(w, err)
		return
	}
	msg := history.ChatMessage{
		From:      agent.ID,
		FromName:  agent.Name,
		Text:      cleaned,
		Timestamp: s.clock.Now().UnixMilli(),
	}
	if err := actor.Chat(msg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleMyHistory(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	if agent.CurrentTable == nil {
		writeError(w, errNotAtTable)
		return
	}
	s.writeHandHistory(w, r, *agent.CurrentTable)
}

// queryLimit parses ?limit= with a default and a cap.
func queryLimit(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (s *Server) writeHandHistory(w http.ResponseWriter, r *http.Request, tableID string) {
	records, err := s.store.HandRecords(tableID, queryLimit(r, 10, 50))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []*history.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"hands": records})
}
