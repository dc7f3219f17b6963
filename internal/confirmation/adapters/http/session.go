package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/dejobratic/confirmdialog/internal/telemetry"
	"github.com/google/uuid"
)

// DefaultSessionCookieName is used when no cookie name is configured.
const DefaultSessionCookieName = "confirm_session"

type sessionKey struct{}

// Sessions issues and reads the session cookie that scopes pending confirmations.
type Sessions struct {
	name   string
	secure bool
}

func NewSessions(name string, secure bool) *Sessions {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSessionCookieName
	}
	return &Sessions{name: name, secure: secure}
}

// Middleware makes sure every request carries a session id. A missing or
// malformed cookie starts a new session.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := s.read(r)
		if !ok {
			sessionID = uuid.NewString()
			s.write(w, sessionID)
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
		ctx = telemetry.WithSessionID(ctx, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionID returns the session id set by Sessions.Middleware.
func SessionID(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok && sessionID != ""
}

func (s *Sessions) read(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.name)
	if err != nil {
		return "", false
	}
	parsed, err := uuid.Parse(strings.TrimSpace(cookie.Value))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

func (s *Sessions) write(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
