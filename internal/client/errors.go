package client

import (
	"errors"
	"fmt"

	"github.com/mcoot/gameroom/internal/api/apierr"
	"github.com/mcoot/gameroom/internal/model"
)

// ErrUnauthorized is returned when the server rejects the session token
var ErrUnauthorized = errors.New("not authenticated")

// APIError represents an error response from the server. It unwraps to the
// matching model error so callers can use errors.Is.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the sentinel for the error code, or nil for codes with no
// domain meaning
func (e *APIError) Unwrap() error {
	return sentinels[e.Code]
}

var sentinels = map[string]error{
	apierr.CodePlayerNotFound:  model.ErrPlayerNotFound,
	apierr.CodeRoomNotFound:    model.ErrRoomNotFound,
	apierr.CodeRoomFull:        model.ErrRoomFull,
	apierr.CodeAlreadyJoined:   model.ErrAlreadyJoined,
	apierr.CodeNotInRoom:       model.ErrNotInRoom,
	apierr.CodeNotHost:         model.ErrNotHost,
	apierr.CodeRoomNotStarted:  model.ErrRoomNotStarted,
	apierr.CodeRoomAbandoned:   model.ErrRoomAbandoned,
	apierr.CodeVersionConflict: model.ErrVersionConflict,
	apierr.CodeUnknownGameType: model.ErrUnknownGameType,
	apierr.CodeInvalidState:    model.ErrInvalidState,
	apierr.CodeIllegalMove:     model.ErrIllegalMove,
	apierr.CodeInvalidPayload:  model.ErrInvalidPayload,
	apierr.CodeUnauthorized:    ErrUnauthorized,
}
