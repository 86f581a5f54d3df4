package models

import "time"

// ContextSnapshot is the combined emotion/calendar/free-text input to one
// curation request. It is owned by the orchestrator for the duration of a
// single request and never persisted as its own entity.
type ContextSnapshot struct {
	Emotions        map[string]float64 `json:"emotions"`
	DominantEmotion string             `json:"dominant_emotion"`
	CalendarEvents  []CalendarEvent    `json:"calendar_events"`
	FreeText        string             `json:"free_text"`
}

// CalendarEvent is one entry from the user's calendar for the current day.
type CalendarEvent struct {
	Subject         string    `json:"subject"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ContextProfile is the derived artifact of the context builder: a small set
// of topical search tags plus one natural-language description detailed enough
// to discriminate between candidate content when embedded.
type ContextProfile struct {
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// Empty reports whether the profile carries nothing to ingest or filter with.
func (p *ContextProfile) Empty() bool {
	return p == nil || (len(p.Tags) == 0 && p.Description == "")
}
