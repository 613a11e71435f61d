package server

import (
	"net/http"

	"github.com/agentpoker/agentpoker/internal/identity"
	"github.com/agentpoker/agentpoker/internal/store"
	"github.com/agentpoker/agentpoker/internal/table"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		LLMProvider string `json:"llmProvider"`
		LLMModel    string `json:"llmModel"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	agent, apiKey, err := s.identity.Register(req.Name, req.LLMProvider, req.LLMModel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"agentId": agent.ID,
		"apiKey":  apiKey,
		"chips":   agent.Chips,
		"message": "Store the apiKey now; it is not shown again.",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           agent.ID,
		"name":         agent.Name,
		"chips":        agent.Chips,
		"handsPlayed":  agent.HandsPlayed,
		"handsWon":     agent.HandsWon,
		"currentTable": agent.CurrentTable,
		"rebuys":       agent.Rebuys,
		"rebuysLeft":   identity.MaxRebuys - agent.Rebuys,
	})
}

func (s *Server) handleRebuy(w http.ResponseWriter, r *http.Request, agent *store.Agent) {
	// A seated agent's stack is updated through the actor, which refuses
	// while the agent is dealt into a live hand. The refusal arrives
	// before the store is touched, so a failed rebuy changes nothing.
	if agent.CurrentTable != nil {
		if actor, ok := s.tables.Get(*agent.CurrentTable); ok {
			if agent.Rebuys >= identity.MaxRebuys {
				writeError(w, identity.ErrNoRebuys)
				return
			}
			if agent.Chips >= identity.RebuyThreshold {
				writeError(w, identity.ErrRebuyNotNeeded)
				return
			}
			if err := actor.UpdateChips(agent.ID, identity.StartingChips); err != nil {
				writeError(w, err)
				return
			}
		}
	}
	chips, rebuys, err := s.identity.Rebuy(agent)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":         true,
		"chips":      chips,
		"rebuys":     rebuys,
		"rebuysLeft": identity.MaxRebuys - rebuys,
	})
}

// agentActor resolves the actor for the agent's current table.
func (s *Server) agentActor(agent *store.Agent) (*table.Actor, error) {
	if agent.CurrentTable == nil {
		return nil, errNotAtTable
	}
	actor, ok := s.tables.Get(*agent.CurrentTable)
	if !ok {
		return nil, errNotAtTable
	}
	return actor, nil
}
