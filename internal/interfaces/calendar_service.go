package interfaces

import (
	"context"

	"github.com/ternarybob/curo/internal/models"
)

// CalendarService is the narrow client for the external calendar source.
// It returns the current day's events for a user, ordered by start time.
type CalendarService interface {
	TodayEvents(ctx context.Context, userID string) ([]models.CalendarEvent, error)
}
