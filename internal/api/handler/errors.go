package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/gameroom/internal/api/apierr"
)

type validator interface {
	Validate() error
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decodeBody reads the JSON body into v and runs its Validate method if it
// has one. On false the error response has been written.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return false
	}
	if val, ok := v.(validator); ok {
		if err := val.Validate(); err != nil {
			WriteError(w, NewInvalidRequestError(err.Error()))
			return false
		}
	}
	return true
}
