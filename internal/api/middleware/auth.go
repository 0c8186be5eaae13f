package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"FindIt/internal/core/identity"
)

// Context keys for storing user information
type contextKey string

const IdentityKey contextKey = "identity"

// DefaultResolveTimeout bounds how long a page waits for the first identity value
const DefaultResolveTimeout = 5 * time.Second

// RequireAuth ensures the request's session has a signed-in identity
// If not authenticated, returns 401
// If authenticated, injects the identity into context
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if s == nil {
			log.Printf("[AUTH_FAILURE] type=no_session ip=%s method=%s path=%s", r.RemoteAddr, r.Method, r.URL.Path)
			writeAuthError(w, "Sign in required")
			return
		}

		id := s.Identity()
		if id == nil {
			log.Printf("[AUTH_FAILURE] type=signed_out ip=%s method=%s path=%s", r.RemoteAddr, r.Method, r.URL.Path)
			writeAuthError(w, "Sign in required")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PageGate guards browser pages. It subscribes to the session's identity,
// renders nothing until the first value arrives, and redirects to the login
// page when that value is signed out. The subscription ends with the request.
type PageGate struct {
	LoginPath string
	Timeout   time.Duration
}

// NewPageGate creates a gate redirecting to loginPath
func NewPageGate(loginPath string) *PageGate {
	return &PageGate{LoginPath: loginPath, Timeout: DefaultResolveTimeout}
}

// Require wraps a page handler
func (g *PageGate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if s == nil {
			http.Redirect(w, r, g.LoginPath, http.StatusFound)
			return
		}

		sub := s.Auth.Subscribe()
		defer sub.Unsubscribe()

		timer := time.NewTimer(g.Timeout)
		defer timer.Stop()

		var id *identity.Identity
		select {
		case id = <-sub.C:
		case <-timer.C:
			log.Printf("[AUTH] Identity did not resolve within %s for %s", g.Timeout, r.URL.Path)
		case <-r.Context().Done():
			return
		}

		if id == nil {
			http.Redirect(w, r, g.LoginPath, http.StatusFound)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the signed-in identity from the request context
// Returns nil if not authenticated
func GetIdentity(r *http.Request) *identity.Identity {
	id, _ := r.Context().Value(IdentityKey).(*identity.Identity)
	return id
}

// SetTestIdentity sets the identity in the context for testing purposes
// This function should ONLY be used in tests to mock authenticated users
func SetTestIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// writeAuthError writes a JSON error response for authentication failures
func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "AuthenticationRequired",
		"message": message,
	}); err != nil {
		log.Printf("Failed to write auth error response: %v", err)
	}
}
