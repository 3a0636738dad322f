package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameroom/internal/api/middleware"
	"github.com/mcoot/gameroom/internal/api/request"
	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/services/bot"
	"github.com/mcoot/gameroom/internal/services/room"
)

// RoomHandler handles room endpoints
type RoomHandler struct {
	rooms  *room.Controller
	bots   *bot.Service
	logger *slog.Logger
}

// NewRoomHandler creates a new room handler. bots may be nil, in which case
// the bot endpoint is unavailable and no bot moves are made.
func NewRoomHandler(rooms *room.Controller, bots *bot.Service, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		bots:   bots,
		logger: logger.With(slog.String("component", "room-handler")),
	}
}

func roomCode(r *http.Request) model.RoomCode {
	return model.RoomCode(mux.Vars(r)["code"])
}

// Create handles POST /api/v1/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.CreateRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	created, err := h.rooms.CreateRoom(r.Context(), *player, model.GameType(req.GameType))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RoomFromModel(created))
}

// List handles GET /api/v1/rooms?status=waiting
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListRooms(r.Context(), model.RoomStatus(r.URL.Query().Get("status")))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomListFromModel(rooms))
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	found, err := h.rooms.GetRoom(r.Context(), roomCode(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(found))
}

// Join handles POST /api/v1/rooms/{code}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	joined, err := h.rooms.JoinRoom(r.Context(), roomCode(r), *player)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(h.afterWrite(r, joined)))
}

// Move handles POST /api/v1/rooms/{code}/move
func (h *RoomHandler) Move(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var req request.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	updated, err := h.rooms.Move(r.Context(), roomCode(r), player.ID, req.ToModel())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(h.afterWrite(r, updated)))
}

// Abandon handles POST /api/v1/rooms/{code}/abandon
func (h *RoomHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	abandoned, err := h.rooms.AbandonRoom(r.Context(), roomCode(r), player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(abandoned))
}

// AddBot handles POST /api/v1/rooms/{code}/bots
func (h *RoomHandler) AddBot(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	if h.bots == nil {
		WriteError(w, NewInvalidRequestError("bots are not enabled"))
		return
	}

	var req request.AddBotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	botPlayer, joined, err := h.bots.AddBotToRoom(r.Context(), roomCode(r), player.ID, req.Strategy)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.BotAdded{
		Bot:  response.PlayerFromModel(botPlayer),
		Room: response.RoomFromModel(h.afterWrite(r, joined)),
	})
}

// afterWrite lets seated bots answer a write and returns the latest room
func (h *RoomHandler) afterWrite(r *http.Request, written *model.Room) *model.Room {
	if h.bots == nil || written.Status != model.RoomInProgress {
		return written
	}

	actions, err := h.bots.ProcessBotActions(r.Context(), written.Code)
	if err != nil {
		h.logger.Error("bot actions failed",
			slog.String("room_code", string(written.Code)),
			slog.Any("error", err))
	}
	if len(actions) == 0 {
		return written
	}

	latest, err := h.rooms.GetRoom(r.Context(), written.Code)
	if err != nil {
		return written
	}
	return latest
}
