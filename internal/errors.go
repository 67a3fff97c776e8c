package internal

import (
	"errors"
	"fmt"
)

// The three error categories of the engine. Every error
// returned from this package wraps exactly one of them
// so callers can branch with errors.Is.
var (
	// Invalid or insufficient input to a generator
	ErrConfiguration = errors.New("configuration error")
	// Malformed match or set data
	ErrValidation = errors.New("validation error")
	// The match graph is not in a state that allows the operation
	ErrInconsistentState = errors.New("inconsistent state")
)

var (
	ErrTooFewEntries      = fmt.Errorf("%w: not enough entries for this tournament mode", ErrConfiguration)
	ErrInvalidSettings    = fmt.Errorf("%w: sets to win and points per set must be positive", ErrConfiguration)
	ErrInvalidPoolCount   = fmt.Errorf("%w: pool count must be positive", ErrConfiguration)
	ErrInvalidTeamSize    = fmt.Errorf("%w: pool is too small for the team size", ErrConfiguration)
	ErrQuotaMismatch      = fmt.Errorf("%w: qualifier quotas do not add up to the total", ErrConfiguration)
	ErrQuotaExceedsPool   = fmt.Errorf("%w: qualifier quota exceeds the pool size", ErrConfiguration)
	ErrUnknownParticipant = fmt.Errorf("%w: participant is not among the entrants", ErrConfiguration)
	ErrDuplicateEntrant   = fmt.Errorf("%w: entrant is listed twice", ErrConfiguration)
	ErrPhaseStatus        = fmt.Errorf("%w: phase is not in the required status", ErrConfiguration)
)

var (
	ErrOneSidedSet     = fmt.Errorf("%w: set has only one side scored", ErrValidation)
	ErrNegativePoints  = fmt.Errorf("%w: negative points", ErrValidation)
	ErrEqualSetWins    = fmt.Errorf("%w: both sides reached the sets to win", ErrValidation)
	ErrPhaseIncomplete = fmt.Errorf("%w: not all matches of the phase are completed", ErrValidation)
	ErrUnknownSlot     = fmt.Errorf("%w: slot number must be 1 or 2", ErrValidation)
)

var (
	ErrSourceNotCompleted = fmt.Errorf("%w: source match is not completed", ErrInconsistentState)
	ErrSlotTaken          = fmt.Errorf("%w: target slot is already assigned by a different source", ErrInconsistentState)
	ErrDownstreamStarted  = fmt.Errorf("%w: downstream match has already started", ErrInconsistentState)
	ErrUnknownMatch       = fmt.Errorf("%w: referenced match does not exist", ErrInconsistentState)
	ErrUnresolvedSlots    = fmt.Errorf("%w: match still has undetermined teams", ErrInconsistentState)
	ErrCyclicLink         = fmt.Errorf("%w: match links form a cycle", ErrInconsistentState)
	ErrRevertedResult     = fmt.Errorf("%w: a propagated result can only be replaced by another result", ErrInconsistentState)
)
