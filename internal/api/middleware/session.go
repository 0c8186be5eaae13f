package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"FindIt/internal/core/identity"
	"FindIt/internal/core/session"

	"github.com/gorilla/sessions"
)

const (
	// SessionCookieName is the signed cookie carrying the session ID and tokens
	SessionCookieName = "findit_session"

	// SessionMaxAge is the cookie lifetime in seconds
	SessionMaxAge = 7 * 24 * 60 * 60

	// MinCookieSecretLength is the minimum signing secret size in bytes
	MinCookieSecretLength = 32

	cookieSessionID    = "sid"
	cookieIDToken      = "id_token"
	cookieRefreshToken = "refresh_token"
)

// Context key for the client session
const SessionKey contextKey = "client_session"

// TokenVerifier checks an ID token. *identity.Verifier satisfies it.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*identity.Identity, error)
}

// TokenRefresher exchanges a refresh token. identity.Provider satisfies it.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*identity.Result, error)
}

// NewCookieStore creates the signing cookie store for the session cookie
func NewCookieStore(secret string, secure bool) (*sessions.CookieStore, error) {
	if len(secret) < MinCookieSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes for security", MinCookieSecretLength)
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   SessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// SessionMiddleware binds each request to its client session.
// A live session is taken from the registry as is. An unknown or evicted
// session ID gets a new session whose identity is resolved once from the
// cookie's tokens: verified, refreshed if expired, or cleared.
type SessionMiddleware struct {
	cookies   *sessions.CookieStore
	registry  *session.Registry
	verifier  TokenVerifier
	refresher TokenRefresher
}

// NewSessionMiddleware creates the session middleware
func NewSessionMiddleware(cookies *sessions.CookieStore, registry *session.Registry, verifier TokenVerifier, refresher TokenRefresher) *SessionMiddleware {
	return &SessionMiddleware{
		cookies:   cookies,
		registry:  registry,
		verifier:  verifier,
		refresher: refresher,
	}
}

// LoadSession attaches the client session to the request context
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := m.cookies.Get(r, SessionCookieName)
		if err != nil {
			// Tampered or rotated-secret cookie; Get still returns a fresh session
			log.Printf("[SESSION] Discarding unreadable session cookie: %v", err)
		}

		sid, _ := cookie.Values[cookieSessionID].(string)
		s, ok := m.registry.Get(sid)
		if !ok {
			if sid == "" {
				s = m.registry.Create()
				cookie.Values[cookieSessionID] = s.ID
			} else {
				s = m.registry.Restore(sid)
			}
			m.resolve(r.Context(), s, cookie)
			if err := cookie.Save(r, w); err != nil {
				log.Printf("[SESSION] Failed to save session cookie: %v", err)
			}
		}

		ctx := context.WithValue(r.Context(), SessionKey, s)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolve settles the identity of a rebuilt session from the cookie's tokens
func (m *SessionMiddleware) resolve(ctx context.Context, s *session.Session, cookie *sessions.Session) {
	idToken, _ := cookie.Values[cookieIDToken].(string)
	refreshToken, _ := cookie.Values[cookieRefreshToken].(string)
	if idToken == "" {
		s.Auth.Clear()
		return
	}

	id, err := m.verifier.Verify(ctx, idToken)
	if errors.Is(err, identity.ErrTokenExpired) && refreshToken != "" {
		id, err = m.refresh(ctx, cookie, refreshToken)
	}
	if err != nil {
		log.Printf("[AUTH_FAILURE] type=session_restore session=%s error=%v", shortSessionID(s.ID), err)
		delete(cookie.Values, cookieIDToken)
		delete(cookie.Values, cookieRefreshToken)
		s.Auth.Clear()
		return
	}
	s.Auth.Set(id)
}

func (m *SessionMiddleware) refresh(ctx context.Context, cookie *sessions.Session, refreshToken string) (*identity.Identity, error) {
	result, err := m.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	id, err := m.verifier.Verify(ctx, result.Tokens.IDToken)
	if err != nil {
		return nil, err
	}
	cookie.Values[cookieIDToken] = result.Tokens.IDToken
	cookie.Values[cookieRefreshToken] = result.Tokens.RefreshToken
	return id, nil
}

// SignIn publishes the identity to the session and stores its tokens in the cookie
func (m *SessionMiddleware) SignIn(w http.ResponseWriter, r *http.Request, s *session.Session, result *identity.Result) error {
	cookie, _ := m.cookies.Get(r, SessionCookieName)
	cookie.Values[cookieSessionID] = s.ID
	cookie.Values[cookieIDToken] = result.Tokens.IDToken
	cookie.Values[cookieRefreshToken] = result.Tokens.RefreshToken
	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}

	signedIn := result.Identity
	s.Auth.Set(&signedIn)
	return nil
}

// SignOut clears the session identity and drops the tokens from the cookie
func (m *SessionMiddleware) SignOut(w http.ResponseWriter, r *http.Request, s *session.Session) error {
	s.Auth.Clear()
	s.State.CloseLogoutModal()

	cookie, _ := m.cookies.Get(r, SessionCookieName)
	delete(cookie.Values, cookieIDToken)
	delete(cookie.Values, cookieRefreshToken)
	if err := cookie.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session cookie: %w", err)
	}
	return nil
}

// GetSession returns the client session bound to the request, or nil
func GetSession(r *http.Request) *session.Session {
	s, _ := r.Context().Value(SessionKey).(*session.Session)
	return s
}

// SetTestSession binds a client session to the context for testing purposes
// This function should ONLY be used in tests
func SetTestSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

func shortSessionID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
