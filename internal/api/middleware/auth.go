package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/gameroom/internal/api/apierr"
	"github.com/mcoot/gameroom/internal/model"
	"github.com/mcoot/gameroom/internal/services/auth"
)

type contextKey struct{}

// SessionCookie is the cookie name checked after the Authorization header
const SessionCookie = "session"

// Auth rejects requests that do not carry a valid session token
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := Token(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}
			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// OptionalAuth attaches the session when the token is valid and otherwise
// serves the request anonymously
func OptionalAuth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := Token(r); token != "" {
				if session, err := authService.ValidateSession(token); err == nil {
					r = r.WithContext(WithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Token returns the session token of the request: a Bearer header, then the
// session cookie, then the token query parameter. Browsers cannot set
// headers on a websocket handshake, hence the query fallback.
func Token(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// WithSession stores the session in ctx
func WithSession(ctx context.Context, session *auth.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, session)
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(contextKey{}).(*auth.Session)
	return session
}

// GetPlayer returns the authenticated player, or nil for anonymous requests
func GetPlayer(ctx context.Context) *model.Player {
	if session := GetSession(ctx); session != nil {
		return &session.Player
	}
	return nil
}

// MustGetPlayer returns the authenticated player or panics when the route
// is not behind Auth
func MustGetPlayer(ctx context.Context) *model.Player {
	player := GetPlayer(ctx)
	if player == nil {
		panic("no player in context: route is missing the auth middleware")
	}
	return player
}
