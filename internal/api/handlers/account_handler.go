package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/barleygate/barleygate/internal/auth"
	"github.com/barleygate/barleygate/internal/policy"
	"github.com/barleygate/barleygate/internal/services"
	"github.com/barleygate/barleygate/internal/store"
)

// AccountHandler handles HTTP requests for registration, login, logout, and
// password changes.
type AccountHandler struct {
	service  services.AccountServiceProvider
	sessions *auth.Manager
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service services.AccountServiceProvider, sessions *auth.Manager) *AccountHandler {
	return &AccountHandler{service: service, sessions: sessions}
}

// CredentialsPayload defines the structure for register and login requests.
type CredentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new account registration.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Invalid request body"})
		return
	}

	if payload.Username == "" {
		writeJSON(w, http.StatusBadRequest, message{Message: "Username cannot be blank"})
		return
	}

	if err := h.service.Register(payload.Username, payload.Password); err != nil {
		var policyErr *policy.ValidationError
		switch {
		case errors.Is(err, store.ErrDuplicateUsername):
			writeJSON(w, http.StatusConflict, message{Message: "Username already taken"})
		case errors.As(err, &policyErr):
			writeJSON(w, http.StatusUnprocessableEntity, message{Message: policyErr.Message, Reason: string(policyErr.Reason)})
		default:
			log.Error().Err(err).Str("username", payload.Username).Msg("Failed to register account")
			writeJSON(w, http.StatusInternalServerError, message{Message: "Failed to register account"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, message{Message: "Account created!", Redirect: "/login"})
}

// Login handles authentication and session issuance.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Invalid request body"})
		return
	}

	session, err := h.service.Login(payload.Username, payload.Password, originAddress(r))
	if err != nil {
		if errors.Is(err, services.ErrAuthFailed) {
			writeJSON(w, http.StatusUnauthorized, message{Message: "Invalid Username or Password"})
			return
		}
		log.Error().Err(err).Msg("Login failed on storage error")
		writeJSON(w, http.StatusInternalServerError, message{Message: "Login failed"})
		return
	}

	token, err := h.sessions.Issue(session.Username)
	if err != nil {
		log.Error().Err(err).Str("username", session.Username).Msg("Failed to issue session token")
		writeJSON(w, http.StatusInternalServerError, message{Message: "Login failed"})
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Expires:  time.Now().Add(h.sessions.TTL()),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Login successful",
		"token":    token,
		"user":     map[string]string{"username": session.Username},
		"redirect": "/home",
	})
}

// Logout ends the current session. Logging out while not logged in is a
// user error, not a crash.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	if err := h.service.Logout(session); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "You must be logged in first to log out", Redirect: "/login"})
		return
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		h.sessions.Revoke(claims.ID, claims.ExpiresAt.Time)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Path:     "/",
	})

	writeJSON(w, http.StatusOK, message{Message: "You have successfully logged out", Redirect: "/login"})
}

// ChangePassword sets a new password for the authenticated account.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, message{Message: "Invalid request body"})
		return
	}

	session := auth.SessionFromContext(r.Context())
	if err := h.service.ChangePassword(session, payload.NewPassword); err != nil {
		var policyErr *policy.ValidationError
		switch {
		case errors.Is(err, services.ErrUnauthenticated):
			writeJSON(w, http.StatusUnauthorized, message{Message: "You must be logged in to view this page", Redirect: "/login"})
		case errors.As(err, &policyErr):
			writeJSON(w, http.StatusUnprocessableEntity, message{Message: policyErr.Message, Reason: string(policyErr.Reason)})
		default:
			log.Error().Err(err).Str("username", session.Username).Msg("Failed to change password")
			writeJSON(w, http.StatusInternalServerError, message{Message: "Failed to change password"})
		}
		return
	}

	writeJSON(w, http.StatusOK, message{Message: "Password successfully updated!", Redirect: "/home"})
}

// GetMe returns the identity bound to the current session.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"username": session.Username})
}

// originAddress extracts the caller's network origin for audit records.
func originAddress(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
