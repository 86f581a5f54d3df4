package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &common.CalendarConfig{
		BaseURL:        server.URL,
		AccessToken:    "cal-token",
		RequestTimeout: 5 * time.Second,
	}
	return NewService(config, arbor.NewLogger()).(*Service)
}

func TestTodayEvents(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/events", r.URL.Path)
		assert.Equal(t, "Bearer cal-token", r.Header.Get("Authorization"))
		assert.Equal(t, "user1", r.URL.Query().Get("user_id"))
		assert.NotEmpty(t, r.URL.Query().Get("date"))

		// Returned out of order; service sorts by start time
		w.Write([]byte(`{"events": [
			{"subject": "Review", "start": "2026-08-30T14:00:00Z", "end": "2026-08-30T15:30:00Z"},
			{"subject": "Standup", "start": "2026-08-30T09:00:00Z", "end": "2026-08-30T09:15:00Z"}
		]}`))
	})

	events, err := service.TodayEvents(context.Background(), "user1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "Standup", events[0].Subject)
	assert.Equal(t, 15, events[0].DurationMinutes)
	assert.Equal(t, "Review", events[1].Subject)
	assert.Equal(t, 90, events[1].DurationMinutes)
}

func TestTodayEvents_Empty(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"events": []}`))
	})

	events, err := service.TodayEvents(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestTodayEvents_APIError(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := service.TodayEvents(context.Background(), "user1")
	assert.Error(t, err)
}
