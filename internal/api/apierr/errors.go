package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/gameroom/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidPayload     = "INVALID_PAYLOAD"
	CodeInvalidState       = "INVALID_STATE"
	CodeIllegalMove        = "ILLEGAL_MOVE"
	CodeUnknownGameType    = "UNKNOWN_GAME_TYPE"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotHost            = "NOT_HOST"
	CodePlayerNotFound     = "PLAYER_NOT_FOUND"
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeAlreadyJoined      = "ALREADY_JOINED"
	CodeNotInRoom          = "NOT_IN_ROOM"
	CodeRoomNotStarted     = "ROOM_NOT_STARTED"
	CodeRoomAbandoned      = "ROOM_ABANDONED"
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeUnknownStrategy    = "UNKNOWN_STRATEGY"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err would be written with
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrAlreadyJoined):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyJoined, "Already joined this room"}}
	case errors.Is(err, model.ErrNotInRoom):
		return &httpError{http.StatusForbidden, APIError{CodeNotInRoom, "Not a player in this room"}}
	case errors.Is(err, model.ErrRoomNotStarted):
		return &httpError{http.StatusConflict, APIError{CodeRoomNotStarted, "Waiting for an opponent"}}
	case errors.Is(err, model.ErrRoomAbandoned):
		return &httpError{http.StatusGone, APIError{CodeRoomAbandoned, "Room has been abandoned"}}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeVersionConflict, err.Error()}}
	case errors.Is(err, model.ErrUnknownGameType):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownGameType, "Unknown game type"}}
	case errors.Is(err, model.ErrInvalidState):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidState, err.Error()}}
	case errors.Is(err, model.ErrIllegalMove):
		return &httpError{http.StatusConflict, APIError{CodeIllegalMove, "Illegal move"}}
	case errors.Is(err, model.ErrInvalidPayload):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidPayload, "Send exactly one of state or move"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}

	case errors.Is(err, model.ErrUnknownStrategy):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownStrategy, err.Error()}}

	// Map auth errors
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, model.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, model.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
