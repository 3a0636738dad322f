package handler

import (
	"net/http"

	"github.com/mcoot/gameroom/internal/api/middleware"
	"github.com/mcoot/gameroom/internal/api/ws"
	"github.com/mcoot/gameroom/internal/services/room"
)

// WSHandler upgrades room watchers to websockets
type WSHandler struct {
	rooms *room.Controller
	hubs  *ws.HubManager
}

// NewWSHandler creates a new websocket handler
func NewWSHandler(rooms *room.Controller, hubs *ws.HubManager) *WSHandler {
	return &WSHandler{rooms: rooms, hubs: hubs}
}

// Watch handles GET /api/v1/rooms/{code}/ws
func (h *WSHandler) Watch(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	current, err := h.rooms.GetRoom(r.Context(), roomCode(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	initial, err := ws.RoomMessage(current)
	if err != nil {
		WriteError(w, err)
		return
	}

	ws.ServeWS(w, r, h.hubs.GetOrCreateHub(current.Code), player, initial)
}
