package interfaces

import (
	"context"

	"github.com/ternarybob/curo/internal/models"
)

// VideoSearchService is the narrow client for the external short-form video
// source. Implementations normalize provider responses into ContentItem at
// the boundary; the curation core never inspects transport shapes.
type VideoSearchService interface {
	// SearchByTag fetches up to limit candidate items for a topical tag.
	// Returned items carry display metadata only (no embedding, no comments).
	SearchByTag(ctx context.Context, tag string, limit int) ([]*models.ContentItem, error)

	// SearchRelated fetches up to limit items similar to an existing item,
	// seeded by its external id rather than by a tag.
	SearchRelated(ctx context.Context, seedID string, limit int) ([]*models.ContentItem, error)

	// FetchComments fetches up to limit top comments for a video.
	FetchComments(ctx context.Context, videoID string, limit int) ([]models.Comment, error)
}
