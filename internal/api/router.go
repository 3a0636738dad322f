package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/gameroom/internal/api/handler"
	"github.com/mcoot/gameroom/internal/api/middleware"
	"github.com/mcoot/gameroom/internal/api/ws"
	"github.com/mcoot/gameroom/internal/metrics"
	"github.com/mcoot/gameroom/internal/services/auth"
	"github.com/mcoot/gameroom/internal/services/bot"
	"github.com/mcoot/gameroom/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	RoomController *room.Controller
	BotService     *bot.Service // optional
	Hubs           *ws.HubManager
	Metrics        *metrics.Metrics // optional
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	roomHandler := handler.NewRoomHandler(cfg.RoomController, cfg.BotService, cfg.Logger)
	wsHandler := handler.NewWSHandler(cfg.RoomController, cfg.Hubs)

	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger, cfg.Metrics)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Player routes (no auth required for creating players/logging in)
	api.HandleFunc("/players/guest", playerHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/players/register", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players/login", playerHandler.Login).Methods(http.MethodPost)

	// Protected player routes
	playerProtected := api.PathPrefix("/players").Subrouter()
	playerProtected.Use(authMiddleware)
	playerProtected.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	playerProtected.HandleFunc("/logout", playerHandler.Logout).Methods(http.MethodPost)

	// Browsing open rooms does not need an account
	api.Handle("/rooms", optionalAuthMiddleware(http.HandlerFunc(roomHandler.List))).Methods(http.MethodGet)

	rooms := api.PathPrefix("/rooms").Subrouter()
	rooms.Use(authMiddleware)
	rooms.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}", roomHandler.Get).Methods(http.MethodGet)
	rooms.HandleFunc("/{code}/join", roomHandler.Join).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/move", roomHandler.Move).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/abandon", roomHandler.Abandon).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/bots", roomHandler.AddBot).Methods(http.MethodPost)
	rooms.HandleFunc("/{code}/ws", wsHandler.Watch).Methods(http.MethodGet)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
