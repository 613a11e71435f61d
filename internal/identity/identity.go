// Package identity manages the agent registry: registration with one-time
// API keys, bearer-token authentication, rebuys, and the per-hand counter
// commits. The store row is the authoritative chip balance; table actors
// hold a cached copy and write back through RecordHandPlayed.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentpoker/agentpoker/internal/chat"
	"github.com/agentpoker/agentpoker/internal/store"
)

// Game economy constants.
const (
	StartingChips  = 1000
	RebuyThreshold = 100
	MaxRebuys      = 3
)

var (
	// ErrNoRebuys means the agent has used all three rebuys.
	ErrNoRebuys = errors.New("no rebuys remaining")
	// ErrRebuyNotNeeded means the agent still has 100 chips or more.
	ErrRebuyNotNeeded = errors.New("rebuy only available under 100 chips")
	// ErrBadToken means the bearer token does not match any agent.
	ErrBadToken = errors.New("invalid token")
	// ErrBanned means the agent exists but is banned.
	ErrBanned = errors.New("agent is banned")
)

// Service is the agent registry.
type Service struct {
	store *store.Store
	log   zerolog.Logger
}

// New builds an identity service over the store.
func New(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{store: st, log: logger.With().Str("component", "identity").Logger()}
}

// HashKey is the stored form of an API key. Only the hash ever persists;
// the key itself is shown once at registration.
func HashKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register creates an agent with a fresh API key and the starting bankroll.
// The name is sanitized first; a unique-name race loses with
// store.ErrNameTaken. The returned key is the only copy.
func (s *Service) Register(name, llmProvider, llmModel string) (*store.Agent, string, error) {
	cleaned, err := chat.SanitizeName(name)
	if err != nil {
		return nil, "", err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	apiKey := "ap_" + hex.EncodeToString(raw)

	agent := &store.Agent{
		ID:          uuid.NewString(),
		Name:        cleaned,
		APIKeyHash:  HashKey(apiKey),
		Chips:       StartingChips,
		LLMProvider: llmProvider,
		LLMModel:    llmModel,
		CreatedAt:   time.Now().UnixMilli(),
	}
	if err := s.store.CreateAgent(agent); err != nil {
		return nil, "", err
	}
	s.log.Info().Str("agent", agent.ID).Str("name", cleaned).Msg("agent registered")
	return agent, apiKey, nil
}

// Authenticate resolves a bearer token, rejecting unknown and banned
// agents.
func (s *Service) Authenticate(token string) (*store.Agent, error) {
	agent, err := s.store.AgentByKeyHash(HashKey(token))
	if err == store.ErrNotFound {
		return nil, ErrBadToken
	}
	if err != nil {
		return nil, err
	}
	if agent.Banned {
		return nil, ErrBanned
	}
	return agent, nil
}

// Get loads one agent by id.
func (s *Service) Get(id string) (*store.Agent, error) {
	return s.store.AgentByID(id)
}

// Rebuy resets a busted agent to the starting bankroll, at most three
// times, and only once the balance is under the threshold. Returns the new
// balance and rebuy count.
func (s *Service) Rebuy(agent *store.Agent) (chips, rebuys int, err error) {
	if agent.Rebuys >= MaxRebuys {
		return 0, 0, ErrNoRebuys
	}
	if agent.Chips >= RebuyThreshold {
		return 0, 0, ErrRebuyNotNeeded
	}
	if err := s.store.RecordRebuy(agent.ID, StartingChips); err != nil {
		return 0, 0, err
	}
	return StartingChips, agent.Rebuys + 1, nil
}
