package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentpoker/agentpoker/internal/chat"
	"github.com/agentpoker/agentpoker/internal/game"
	"github.com/agentpoker/agentpoker/internal/identity"
	"github.com/agentpoker/agentpoker/internal/store"
)

// Gateway-level errors that have no engine counterpart.
var (
	errNotAtTable   = errors.New("not at a table")
	errUnknownTable = errors.New("unknown table")
	errBadRequest   = errors.New("malformed request body")
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the error taxonomy onto stable HTTP statuses. Engine
// precondition failures are client errors: a 4xx from /table/act always
// means nothing changed.
func statusFor(err error) int {
	switch {
	case errors.Is(err, identity.ErrBadToken):
		return http.StatusUnauthorized
	case errors.Is(err, identity.ErrBanned):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, errUnknownTable):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, errNotAtTable),
		errors.Is(err, chat.ErrBadName),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrFiltered),
		errors.Is(err, identity.ErrNoRebuys),
		errors.Is(err, identity.ErrRebuyNotNeeded),
		errors.Is(err, game.ErrTableFull),
		errors.Is(err, game.ErrAlreadySeated),
		errors.Is(err, game.ErrInsufficientBuyIn),
		errors.Is(err, game.ErrNotSeated),
		errors.Is(err, game.ErrInHandCannotLeave),
		errors.Is(err, game.ErrBetweenHandsOnly),
		errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrNotInHand),
		errors.Is(err, game.ErrBetToMatch),
		errors.Is(err, game.ErrBelowMinRaise),
		errors.Is(err, game.ErrInsufficientChips),
		errors.Is(err, game.ErrInvalidAction),
		errors.Is(err, game.ErrHandInProgress),
		errors.Is(err, game.ErrNotEnoughPlayers):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody parses a JSON request body into v, with a size cap so agents
// cannot stream junk at the decoder.
func decodeBody(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadRequest
	}
	return nil
}
