package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/gameroom/internal/api"
	"github.com/mcoot/gameroom/internal/api/ws"
	"github.com/mcoot/gameroom/internal/client"
	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/dependencies/random"
	"github.com/mcoot/gameroom/internal/engine"
	"github.com/mcoot/gameroom/internal/metrics"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/rules"
	"github.com/mcoot/gameroom/internal/services/auth"
	"github.com/mcoot/gameroom/internal/services/bot"
	"github.com/mcoot/gameroom/internal/services/room"
	"github.com/mcoot/gameroom/internal/storage"
	"github.com/mcoot/gameroom/internal/storage/memory"
	"github.com/mcoot/gameroom/internal/storage/postgres"
	redisstorage "github.com/mcoot/gameroom/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Logger *slog.Logger

	// Services
	Rules          *rules.Registry
	Metrics        *metrics.Metrics
	RoomController *room.Controller
	AuthService    *auth.Service
	BotService     *bot.Service
	HubManager     *ws.HubManager

	janitor *janitor
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "postgres")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// PostgresConfig holds Postgres connection settings (required if StorageType is "postgres")
	PostgresConfig *postgres.Config
	// JanitorInterval is how often empty hubs and expired revocations are swept
	// If zero, defaults to DefaultJanitorInterval
	JanitorInterval time.Duration
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg.SessionDuration = auth.DefaultConfig().SessionDuration
	}
	if authCfg.Secret == "" {
		logger.Warn("no JWT secret configured, using the development default")
		authCfg.Secret = auth.DefaultConfig().Secret
	}

	interval := cfg.JanitorInterval
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}

	return newWithDependencies(store, clock.New(), random.New(), authCfg, interval, logger), nil
}

func newStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.PostgresConfig == nil {
			return nil, errors.New("PostgresConfig required when StorageType is postgres")
		}
		pg, err := postgres.New(ctx, *cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'postgres'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, authCfg auth.Config, janitorInterval time.Duration, logger *slog.Logger) *App {
	registry := rules.DefaultRegistry()
	m := metrics.New()
	hubManager := ws.NewHubManager(logger, m, clk)
	roomController := room.NewController(store, registry, hubManager, m, clk, rnd, logger)
	authService := auth.New(store, clk, authCfg)
	botService := bot.NewService(store, roomController, bot.DefaultStrategies(rnd), clk, rnd, logger)
	sweeper := startJanitor(clk, janitorInterval, logger.With(slog.String("component", "janitor")),
		hubManager.CleanupEmptyHubs,
		authService.CleanExpiredSessions,
	)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Logger:         logger,
		Rules:          registry,
		Metrics:        m,
		RoomController: roomController,
		AuthService:    authService,
		BotService:     botService,
		HubManager:     hubManager,
		janitor:        sweeper,
	}
}

// Router returns the HTTP handler serving the REST API, WebSocket and metrics
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		AuthService:    a.AuthService,
		RoomController: a.RoomController,
		BotService:     a.BotService,
		Hubs:           a.HubManager,
		Metrics:        a.Metrics,
	})
}

// NewLocalEngine returns an engine for player that talks to this App's room
// controller directly
func (a *App) NewLocalEngine(player model.Player, cfg engine.Config) *engine.Engine {
	c := client.NewLocal(a.RoomController, player)
	return engine.New(c, a.Rules, a.Clock, a.Random, cfg, a.Logger)
}

// Shutdown stops the janitor and every WebSocket hub. It is safe to call
// more than once.
func (a *App) Shutdown() {
	a.janitor.Stop()
	a.HubManager.Close()
}

// Close shuts down background work and the storage connection
func (a *App) Close() error {
	a.Shutdown()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
