package interfaces

import (
	"context"

	"github.com/ternarybob/curo/internal/models"
)

// IngestRequest carries the inputs of the ingestion and filtering workflows.
type IngestRequest struct {
	// ImageBytes is an optional face image for the emotion read.
	ImageBytes []byte

	// FreeText is the user's mood description. Required.
	FreeText string

	// UserID identifies the calendar to read. Optional.
	UserID string
}

// ExpandRequest carries the inputs of the expansion workflow.
type ExpandRequest struct {
	LikedItemIDs []string
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	RunID          string                 `json:"run_id"`
	ItemsStored    int                    `json:"items_stored"`
	PerTag         map[string]int         `json:"per_tag"`
	Tags           []string               `json:"tags"`
	Description    string                 `json:"description"`
	Emotions       map[string]float64     `json:"emotions,omitempty"`
	CalendarEvents []models.CalendarEvent `json:"calendar_events,omitempty"`
}

// FilterResult summarizes one filtering run: the best unconsumed matches for
// the request context, ranked by similarity, already marked consumed.
type FilterResult struct {
	RunID string             `json:"run_id"`
	Items []models.ItemMatch `json:"items"`
	Count int                `json:"count"`
}

// ExpandResult summarizes one expansion run.
type ExpandResult struct {
	RunID       string         `json:"run_id"`
	ItemsStored int            `json:"items_stored"`
	PerSeed     map[string]int `json:"per_seed"`
}

// CurationService coordinates the three curation workflows on top of the
// context builder, the embedding gateway and the corpus store. Each call is
// one fresh linear run; there is no shared state machine across requests.
type CurationService interface {
	// Ingest populates the corpus from the request context. Per-tag and
	// per-item collaborator failures degrade the stored count; only invalid
	// input and store unavailability fail the run.
	Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error)

	// Filter serves the best unconsumed matches for the request context and
	// marks them consumed. Fails when the context embedding cannot be
	// computed or the store cannot be reached.
	Filter(ctx context.Context, req *IngestRequest) (*FilterResult, error)

	// Expand grows the corpus from previously liked items instead of tags,
	// with the same partial-failure tolerance as Ingest.
	Expand(ctx context.Context, req *ExpandRequest) (*ExpandResult, error)
}
