package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/barleygate/barleygate/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string, origin *string)
	GetRecentEvents(limit int) []models.Event
	CountSince(eventType string, since time.Time) int
}

// Broadcaster pushes a serialized event to live subscribers.
type Broadcaster interface {
	BroadcastEvent(message []byte)
}

// ringSize bounds the in-memory event history. Events are diagnostics; the
// audit log is the durable record of failed attempts.
const ringSize = 256

// EventService keeps a bounded in-memory history of auth events and
// broadcasts each one to the websocket hub.
type EventService struct {
	broadcaster Broadcaster

	mu     sync.Mutex
	events []models.Event // newest last, capped at ringSize
}

// NewEventService creates a new EventService. The broadcaster may be nil.
func NewEventService(broadcaster Broadcaster) *EventService {
	return &EventService{broadcaster: broadcaster}
}

// CreateEvent records a new event and broadcasts it.
func (s *EventService) CreateEvent(eventType, level, message string, origin *string) {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		Origin:    origin,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	if len(s.events) > ringSize {
		s.events = s.events[len(s.events)-ringSize:]
	}
	s.mu.Unlock()

	if s.broadcaster != nil {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Str("type", eventType).Msg("Failed to encode event for broadcast")
			return
		}
		s.broadcaster.BroadcastEvent(payload)
	}
}

// GetRecentEvents returns up to limit events, newest first.
func (s *EventService) GetRecentEvents(limit int) []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.events[i])
	}
	return out
}

// CountSince counts retained events of the given type created after since.
func (s *EventService) CountSince(eventType string, since time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].CreatedAt.Before(since) {
			break
		}
		if s.events[i].Type == eventType {
			count++
		}
	}
	return count
}
