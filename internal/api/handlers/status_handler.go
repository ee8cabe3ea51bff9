package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/barleygate/barleygate/internal/monitoring"
	"github.com/barleygate/barleygate/internal/services"
)

// StatusHandler reports host health and recent failed-login activity.
type StatusHandler struct {
	events services.EventServiceProvider
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(events services.EventServiceProvider) *StatusHandler {
	return &StatusHandler{events: events}
}

// Get returns a point-in-time status snapshot.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := monitoring.Snapshot()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read host stats")
		writeJSON(w, http.StatusInternalServerError, message{Message: "Failed to read host status"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"host":                 snapshot,
		"failedLoginsPastHour": h.events.CountSince("auth.login.fail", time.Now().Add(-time.Hour)),
	})
}
