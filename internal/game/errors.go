package game

import "errors"

// Engine errors. Each is a precondition or validation failure: the state the
// caller observed has not changed when one of these is returned. The gateway
// maps them onto HTTP statuses.
var (
	ErrTableFull         = errors.New("table is full")
	ErrAlreadySeated     = errors.New("already seated at this table")
	ErrInsufficientBuyIn = errors.New("insufficient chips for buy-in")
	ErrNotSeated         = errors.New("not seated at this table")
	ErrInHandCannotLeave = errors.New("cannot leave during a hand")
	ErrBetweenHandsOnly  = errors.New("only allowed between hands")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrNotInHand         = errors.New("not in the current hand")
	ErrBetToMatch        = errors.New("there is a bet to match")
	ErrBelowMinRaise     = errors.New("raise below minimum")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrInvalidAction     = errors.New("invalid action")
	ErrHandInProgress    = errors.New("hand already in progress")
	ErrNotEnoughPlayers  = errors.New("not enough players to deal")
)
