package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/gameroom/internal/dependencies/clock"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/storage"
)

// Errors, aliased from model
var (
	ErrInvalidCredentials = model.ErrInvalidCredentials
	ErrInvalidSession     = model.ErrInvalidSession
	ErrUsernameExists     = model.ErrUsernameExists
)

const issuer = "gameroom"

// Session represents an authenticated session. Token is a signed JWT that
// carries everything needed to rebuild the session.
type Session struct {
	Token     string
	PlayerID  model.PlayerID
	Player    model.Player
	CreatedAt time.Time
	ExpiresAt time.Time
}

type claims struct {
	DisplayName string `json:"name"`
	Guest       bool   `json:"guest,omitempty"`
	Bot         bool   `json:"bot,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and validates session tokens
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	secret  []byte

	// revoked holds logged-out token ids until they would have expired anyway
	mu      sync.Mutex
	revoked map[string]time.Time

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
	Secret          string
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
		Secret:          "gameroom-dev-secret",
	}
}

// New creates a new AuthService
func New(storage storage.Storage, clock clock.Clock, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = def.SessionDuration
	}
	if cfg.Secret == "" {
		cfg.Secret = def.Secret
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		secret:          []byte(cfg.Secret),
		revoked:         make(map[string]time.Time),
		sessionDuration: cfg.SessionDuration,
	}
}

// NewPlayerID returns a fresh player id
func NewPlayerID() model.PlayerID {
	return model.PlayerID("p_" + uuid.NewString())
}

// CreateGuestPlayer creates an anonymous player and session
func (s *Service) CreateGuestPlayer(ctx context.Context, displayName string) (*Session, error) {
	player := &model.Player{
		ID:          NewPlayerID(),
		DisplayName: displayName,
		IsGuest:     true,
		CreatedAt:   s.clock.Now(),
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}

	return s.CreateSession(player)
}

// RegisterPlayer creates a registered player account and session
func (s *Service) RegisterPlayer(ctx context.Context, username, password, displayName string) (*Session, error) {
	_, err := s.storage.GetRegisteredPlayerByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameExists
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	player := &model.Player{
		ID:          NewPlayerID(),
		DisplayName: displayName,
		CreatedAt:   now,
	}
	registered := &model.RegisteredPlayer{
		PlayerID:     player.ID,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	if err := s.storage.SaveRegisteredPlayer(ctx, registered); err != nil {
		return nil, err
	}

	return s.CreateSession(player)
}

// Login authenticates a registered player and creates a session
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	rp, err := s.storage.GetRegisteredPlayerByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rp.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	player, err := s.storage.GetPlayer(ctx, rp.PlayerID)
	if err != nil {
		return nil, err
	}

	return s.CreateSession(player)
}

// CreateSession signs a token for an existing player
func (s *Service) CreateSession(player *model.Player) (*Session, error) {
	now := s.clock.Now()
	expires := now.Add(s.sessionDuration)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		DisplayName: player.DisplayName,
		Guest:       player.IsGuest,
		Bot:         player.IsBot,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   string(player.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	return &Session{
		Token:     signed,
		PlayerID:  player.ID,
		Player:    *player,
		CreatedAt: now,
		ExpiresAt: expires,
	}, nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[c.ID]
	s.mu.Unlock()
	if revoked {
		return nil, ErrInvalidSession
	}

	playerID := model.PlayerID(c.Subject)
	return &Session{
		Token:    token,
		PlayerID: playerID,
		Player: model.Player{
			ID:          playerID,
			DisplayName: c.DisplayName,
			IsGuest:     c.Guest,
			IsBot:       c.Bot,
		},
		CreatedAt: c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func (s *Service) parse(token string) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil || c.Subject == "" || c.ID == "" {
		return nil, ErrInvalidSession
	}
	return &c, nil
}

// InvalidateSession revokes a token. Unknown or expired tokens are ignored.
func (s *Service) InvalidateSession(token string) {
	c, err := s.parse(token)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.revoked[c.ID] = c.ExpiresAt.Time
	s.mu.Unlock()
}

// GetPlayer returns the player for a session token
func (s *Service) GetPlayer(token string) (*model.Player, error) {
	session, err := s.ValidateSession(token)
	if err != nil {
		return nil, err
	}
	return &session.Player, nil
}

// CleanExpiredSessions forgets revocations for tokens that have expired (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, expires := range s.revoked {
		if now.After(expires) {
			delete(s.revoked, id)
		}
	}
}

func (s *Service) revokedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.revoked)
}
