package engine

import "errors"

// Illegal-action errors: the caller's requested action does not mutate any
// state. The table controller reports these back to the acting client as-is.
var (
	ErrNotYourTurn     = errors.New("engine: not this player's turn to act")
	ErrHandNotActive   = errors.New("engine: no hand is in progress")
	ErrPlayerNotFound  = errors.New("engine: seat does not hold this player")
	ErrPlayerNotActive = errors.New("engine: player is not active in this hand")
	ErrCannotCheck     = errors.New("engine: cannot check, a bet is outstanding")
	ErrCannotCall      = errors.New("engine: nothing to call")
	ErrRaiseTooSmall   = errors.New("engine: raise does not meet the minimum raise")
	ErrRaiseExceedsChips = errors.New("engine: raise exceeds available chips")
	ErrActionCappedToCall = errors.New("engine: a short all-in did not reopen the action; only call or fold is available")
	ErrInsufficientPlayers = errors.New("engine: not enough eligible players to start a hand")
)

// Fatal errors indicate an invariant violation in caller usage rather than a
// player's illegal action — e.g. starting a hand while one is in progress.
var (
	ErrHandInProgress = errors.New("engine: a hand is already in progress")
	ErrDeckExhausted  = errors.New("engine: deck exhausted mid-hand")
)
