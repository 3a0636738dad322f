package handler

import (
	"net/http"

	"github.com/mcoot/gameroom/internal/api/middleware"
	"github.com/mcoot/gameroom/internal/api/request"
	"github.com/mcoot/gameroom/internal/api/response"
	"github.com/mcoot/gameroom/internal/services/auth"
)

// PlayerHandler serves the player and session endpoints
type PlayerHandler struct {
	auth *auth.Service
}

func NewPlayerHandler(authService *auth.Service) *PlayerHandler {
	return &PlayerHandler{auth: authService}
}

// CreateGuest handles POST /api/v1/players/guest
func (h *PlayerHandler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGuestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.writeSession(w, http.StatusCreated)(h.auth.CreateGuestPlayer(r.Context(), req.DisplayName))
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.writeSession(w, http.StatusCreated)(h.auth.RegisterPlayer(r.Context(), req.Username, req.Password, req.DisplayName))
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.writeSession(w, http.StatusOK)(h.auth.Login(r.Context(), req.Username, req.Password))
}

func (h *PlayerHandler) writeSession(w http.ResponseWriter, status int) func(*auth.Session, error) {
	return func(session *auth.Session, err error) {
		if err != nil {
			WriteError(w, err)
			return
		}
		response.JSON(w, status, response.AuthResponseFromSession(session))
	}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.PlayerFromModel(middleware.MustGetPlayer(r.Context())))
}

// Logout handles POST /api/v1/players/logout. The token stops validating
// immediately; other sessions of the same player are unaffected.
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.InvalidateSession(middleware.Token(r))
	response.NoContent(w)
}
