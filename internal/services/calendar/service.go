package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
	"golang.org/x/oauth2"
)

// Service implements the CalendarService interface against an external
// calendar API using a bearer-token oauth2 client.
type Service struct {
	config     *common.CalendarConfig
	logger     arbor.ILogger
	httpClient *http.Client
}

// NewService creates a new calendar service instance
func NewService(config *common.CalendarConfig, logger arbor.ILogger) interfaces.CalendarService {
	// Static bearer token; oauth2.NewClient handles the Authorization header
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Timeout = config.RequestTimeout

	return &Service{
		config:     config,
		logger:     logger,
		httpClient: httpClient,
	}
}

type eventsResponse struct {
	Events []apiEvent `json:"events"`
}

type apiEvent struct {
	Subject string    `json:"subject"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// TodayEvents returns the user's events for the current day, ordered by start
// time, with DurationMinutes computed from the start/end pair.
func (s *Service) TodayEvents(ctx context.Context, userID string) ([]models.CalendarEvent, error) {
	if s.config.BaseURL == "" {
		return nil, fmt.Errorf("calendar base URL is not configured")
	}

	params := url.Values{}
	params.Set("date", time.Now().Format("2006-01-02"))
	if userID != "" {
		params.Set("user_id", userID)
	}

	endpoint := strings.TrimSuffix(s.config.BaseURL, "/") + "/events?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call calendar API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp eventsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode calendar response: %w", err)
	}

	events := make([]models.CalendarEvent, 0, len(apiResp.Events))
	for _, e := range apiResp.Events {
		event := models.CalendarEvent{
			Subject: e.Subject,
			Start:   e.Start,
			End:     e.End,
		}
		if e.End.After(e.Start) {
			event.DurationMinutes = int(e.End.Sub(e.Start).Minutes())
		}
		events = append(events, event)
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})

	s.logger.Debug().
		Str("user_id", userID).
		Int("events", len(events)).
		Msg("Calendar lookup completed")

	return events, nil
}
