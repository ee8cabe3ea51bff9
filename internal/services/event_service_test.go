package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barleygate/barleygate/internal/models"
)

type fakeBroadcaster struct {
	messages [][]byte
}

func (f *fakeBroadcaster) BroadcastEvent(message []byte) {
	f.messages = append(f.messages, message)
}

func TestCreateEventBroadcasts(t *testing.T) {
	b := &fakeBroadcaster{}
	s := NewEventService(b)

	origin := "10.0.0.7"
	s.CreateEvent("auth.login.fail", "warn", "Failed login attempt", &origin)

	require.Len(t, b.messages, 1)
	var event models.Event
	require.NoError(t, json.Unmarshal(b.messages[0], &event))
	assert.Equal(t, "auth.login.fail", event.Type)
	assert.Equal(t, "warn", event.Level)
	require.NotNil(t, event.Origin)
	assert.Equal(t, origin, *event.Origin)
	assert.NotEmpty(t, event.ID)
}

func TestGetRecentEventsNewestFirst(t *testing.T) {
	s := NewEventService(nil)
	for i := 0; i < 5; i++ {
		s.CreateEvent("auth.register", "info", fmt.Sprintf("event %d", i), nil)
	}

	events := s.GetRecentEvents(3)
	require.Len(t, events, 3)
	assert.Equal(t, "event 4", events[0].Message)
	assert.Equal(t, "event 2", events[2].Message)
}

func TestEventHistoryIsBounded(t *testing.T) {
	s := NewEventService(nil)
	for i := 0; i < ringSize+50; i++ {
		s.CreateEvent("auth.register", "info", "x", nil)
	}
	assert.Len(t, s.GetRecentEvents(0), ringSize)
}

func TestCountSince(t *testing.T) {
	s := NewEventService(nil)
	s.CreateEvent("auth.login.fail", "warn", "one", nil)
	s.CreateEvent("auth.login.success", "info", "noise", nil)
	s.CreateEvent("auth.login.fail", "warn", "two", nil)

	assert.Equal(t, 2, s.CountSince("auth.login.fail", time.Now().Add(-time.Minute)))
	assert.Equal(t, 0, s.CountSince("auth.login.fail", time.Now().Add(time.Minute)))
}
