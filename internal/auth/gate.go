package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/barleygate/barleygate/internal/models"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// sessionKey is the context key for the authenticated session.
type contextKey string

const sessionKey = contextKey("session")

// claimsKey carries the raw token claims for handlers that need the token
// ID (logout).
const claimsKey = contextKey("sessionClaims")

// Protected operations: every view reachable only with an authenticated
// session. The set is fixed and explicit.
const (
	OpHome           = "home"
	OpAbout          = "about"
	OpContact        = "contact"
	OpMenu           = "menu"
	OpPasswordChange = "password-change"
)

var protectedOperations = map[string]bool{
	OpHome:           true,
	OpAbout:          true,
	OpContact:        true,
	OpMenu:           true,
	OpPasswordChange: true,
}

// Protected reports whether the named operation requires authentication.
func Protected(operation string) bool {
	return protectedOperations[operation]
}

// Authorize is a pure function of session state and operation
// classification: public operations are always allowed, protected ones only
// with an authenticated session.
func Authorize(session models.Session, operation string) bool {
	return !Protected(operation) || session.IsAuthenticated()
}

// SessionFromContext returns the session attached by the middleware, or the
// anonymous session.
func SessionFromContext(ctx context.Context) models.Session {
	if s, ok := ctx.Value(sessionKey).(models.Session); ok {
		return s
	}
	return models.Anonymous
}

// ClaimsFromContext returns the validated token claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

// sessionFromRequest resolves the request's session token, trying the
// Authorization header first and the cookie second.
func (m *Manager) sessionFromRequest(r *http.Request) (*Claims, bool) {
	var tokenStr string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if parts := strings.Split(authHeader, "Bearer "); len(parts) == 2 {
			tokenStr = parts[1]
		}
	}
	if tokenStr == "" {
		cookie, err := r.Cookie(CookieName)
		if err != nil {
			return nil, false
		}
		tokenStr = cookie.Value
	}
	if tokenStr == "" {
		return nil, false
	}
	claims, err := m.Validate(tokenStr)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RequireAuth gates protected routes. A denied request is never silent: it
// carries a user-facing reason and the login target to redirect to.
func (m *Manager) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := m.sessionFromRequest(r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{
					"message":  "You must be logged in to view this page",
					"redirect": "/login",
				})
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, models.Session{Username: claims.Username})
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectIfAuthenticated bounces already-authenticated sessions off the
// public start/login/register operations and onto the home view.
func (m *Manager) RedirectIfAuthenticated(homeTarget string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := m.sessionFromRequest(r); ok {
				http.Redirect(w, r, homeTarget, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Attach resolves the session if present without gating the request. Used
// by routes that serve both states (logout must report "already logged
// out", not deny).
func (m *Manager) Attach() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, ok := m.sessionFromRequest(r); ok {
				ctx := context.WithValue(r.Context(), sessionKey, models.Session{Username: claims.Username})
				ctx = context.WithValue(ctx, claimsKey, claims)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}
