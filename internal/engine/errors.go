package engine

import (
	"errors"
	"fmt"

	"github.com/mcoot/gameroom/internal/model"
)

var (
	// ErrMovePending is returned when a write intent is issued while another is in flight
	ErrMovePending = errors.New("another move is still being submitted")
	// ErrWrongPhase is returned when an intent is not valid in the current phase
	ErrWrongPhase = errors.New("intent is not available in the current phase")
	// ErrCancelled is returned when the engine left the room before a write came back
	ErrCancelled = errors.New("left the room before the request completed")
	// ErrClosed is returned for intents on a closed engine
	ErrClosed = errors.New("engine is closed")
)

// Intent names a user action on the engine
type Intent string

const (
	IntentCreate    Intent = "create"
	IntentJoin      Intent = "join"
	IntentPlay      Intent = "play"
	IntentRematch   Intent = "rematch"
	IntentNextRound Intent = "next-round"
	IntentAbandon   Intent = "abandon"
	IntentRefresh   Intent = "refresh"
)

// IntentError is the only error an intent returns. Retryable is false when
// repeating the same intent cannot succeed.
type IntentError struct {
	Intent    Intent
	Retryable bool
	Err       error
}

func (e *IntentError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Intent, e.Err)
}

func (e *IntentError) Unwrap() error {
	return e.Err
}

var permanent = []error{
	model.ErrRoomNotFound,
	model.ErrRoomFull,
	model.ErrAlreadyJoined,
	model.ErrIllegalMove,
	model.ErrVersionConflict,
	model.ErrNotInRoom,
	model.ErrRoomAbandoned,
	model.ErrInvalidState,
	model.ErrInvalidPayload,
	model.ErrUnknownGameType,
	ErrWrongPhase,
	ErrCancelled,
	ErrClosed,
}

func intentError(intent Intent, err error) *IntentError {
	retryable := true
	for _, p := range permanent {
		if errors.Is(err, p) {
			retryable = false
			break
		}
	}
	return &IntentError{Intent: intent, Retryable: retryable, Err: err}
}
