package interfaces

import (
	"context"

	"github.com/ternarybob/curo/internal/models"
)

// EmbeddingService is the gateway between arbitrary text and the fixed-length
// vectors stored in the corpus. All vectors produced by one deployment share
// one dimensionality; mixing dimensions is a configuration error.
type EmbeddingService interface {
	// EmbedText generates an embedding vector for the given text.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedContentItem builds the embedding input from an item's title,
	// description and comment text (in that order, space-joined) and embeds
	// it. A whitespace-only concatenation returns (nil, nil) without calling
	// the underlying model.
	EmbedContentItem(ctx context.Context, item *models.ContentItem) ([]float32, error)

	// Dimension returns the configured embedding dimension.
	Dimension() int

	// IsAvailable reports whether the underlying model can be reached.
	IsAvailable(ctx context.Context) bool
}
