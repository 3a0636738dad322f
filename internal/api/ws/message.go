package ws

import (
	"encoding/json"
	"strings"

	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/model"
)

const (
	TypeRoom = "room"
	TypeChat = "chat"

	// MaxChatLength bounds relayed chat text, in runes
	MaxChatLength = 500
)

// Message is the envelope for every frame in both directions
type Message struct {
	Type        string         `json:"type"`
	Room        *response.Room `json:"room,omitempty"`
	PlayerID    string         `json:"player_id,omitempty"`
	DisplayName string         `json:"display_name,omitempty"`
	Text        string         `json:"text,omitempty"`
}

// RoomMessage encodes a room snapshot frame
func RoomMessage(r *model.Room) ([]byte, error) {
	room := response.RoomFromModel(r)
	return json.Marshal(Message{Type: TypeRoom, Room: &room})
}

// chatMessage turns an incoming frame into the relayed chat frame. It
// returns nil for anything that is not a non-empty chat message.
func chatMessage(raw []byte, playerID model.PlayerID, displayName string) []byte {
	var in Message
	if err := json.Unmarshal(raw, &in); err != nil || in.Type != TypeChat {
		return nil
	}
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil
	}
	if r := []rune(text); len(r) > MaxChatLength {
		text = string(r[:MaxChatLength])
	}
	out, err := json.Marshal(Message{
		Type:        TypeChat,
		PlayerID:    string(playerID),
		DisplayName: displayName,
		Text:        text,
	})
	if err != nil {
		return nil
	}
	return out
}
