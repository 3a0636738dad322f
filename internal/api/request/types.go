package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/gameroom/internal/model"
)

// MaxDisplayNameLength bounds the name shown next to a seat, in runes
const MaxDisplayNameLength = 32

func cleanDisplayName(name *string) error {
	*name = strings.TrimSpace(*name)
	switch {
	case *name == "":
		return errors.New("display_name is required")
	case utf8.RuneCountInString(*name) > MaxDisplayNameLength:
		return fmt.Errorf("display_name must be at most %d characters", MaxDisplayNameLength)
	}
	return nil
}

func requireCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	return nil
}

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
}

// Validate trims the display name and checks its length
func (r *CreateGuestRequest) Validate() error {
	return cleanDisplayName(&r.DisplayName)
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func (r *RegisterRequest) Validate() error {
	if err := requireCredentials(r.Username, r.Password); err != nil {
		return err
	}
	return cleanDisplayName(&r.DisplayName)
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	return requireCredentials(r.Username, r.Password)
}

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	GameType string `json:"game_type"`
}

func (r *CreateRoomRequest) Validate() error {
	if r.GameType == "" {
		return errors.New("game_type is required")
	}
	return nil
}

// MoveRequest is the request body for writing to a room. Exactly one of
// State or Move must be present.
type MoveRequest struct {
	State           json.RawMessage `json:"state,omitempty"`
	Move            *model.Move     `json:"move,omitempty"`
	ExpectedVersion *int64          `json:"expected_version,omitempty"`
}

// ToModel converts the request to a model.MovePayload. A JSON null state
// counts as absent.
func (r MoveRequest) ToModel() model.MovePayload {
	state := r.State
	if bytes.Equal(bytes.TrimSpace(state), []byte("null")) {
		state = nil
	}
	return model.MovePayload{
		State:           state,
		Move:            r.Move,
		ExpectedVersion: r.ExpectedVersion,
	}
}

// MoveRequestFromModel builds the wire form of a payload
func MoveRequestFromModel(p model.MovePayload) MoveRequest {
	return MoveRequest{
		State:           p.State,
		Move:            p.Move,
		ExpectedVersion: p.ExpectedVersion,
	}
}

// AddBotRequest is the request body for adding a bot to a room
type AddBotRequest struct {
	Strategy string `json:"strategy,omitempty"`
}
