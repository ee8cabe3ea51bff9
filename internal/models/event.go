package models

import "time"

// Event represents a loggable action or alert in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "auth.login.fail", "system.alert.failed_logins"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	Origin    *string   `json:"origin,omitempty"` // Nullable for events without a network origin
	CreatedAt time.Time `json:"createdAt"`
}
