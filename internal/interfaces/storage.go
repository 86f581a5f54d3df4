package interfaces

import (
	"context"

	"github.com/ternarybob/curo/internal/models"
)

// CorpusStorage owns ContentItem persistence. All mutation goes through
// Upsert, MarkConsumed and the reset operations, each safe under concurrent
// invocation for different ids; per-row upserts are atomic.
type CorpusStorage interface {
	// Upsert inserts or merges an item by id. Idempotent: repeating an
	// identical call leaves the store in the same observable state. A nil
	// incoming embedding or comments never overwrites a stored value, and
	// the consumed flag is never touched by an upsert.
	Upsert(ctx context.Context, item *models.ContentItem) error

	// GetItem retrieves one item by id; (nil, nil) when absent.
	GetItem(ctx context.Context, id string) (*models.ContentItem, error)

	// FindSimilar returns unconsumed items with embeddings whose cosine
	// similarity to the query clears the threshold, best first, truncated to
	// limit. Ties break toward the more recently updated item, then by id.
	FindSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]models.ItemMatch, error)

	// MarkConsumed sets consumed=true for the given ids. Unknown ids are a
	// no-op, not an error.
	MarkConsumed(ctx context.Context, ids []string) error

	// ResetConsumed sets consumed=false for the given ids and returns the
	// count of rows actually flipped.
	ResetConsumed(ctx context.Context, ids []string) (int, error)

	// ResetAllConsumed sets consumed=false for every item and returns the
	// count of rows actually flipped.
	ResetAllConsumed(ctx context.Context) (int, error)

	// ListUnembedded returns up to limit items that still lack an embedding,
	// oldest first. Used by the backfill scheduler.
	ListUnembedded(ctx context.Context, limit int) ([]*models.ContentItem, error)

	// SetEmbedding attaches an embedding to an existing item.
	SetEmbedding(ctx context.Context, id string, embedding []float32) error

	// Count returns the total number of items.
	Count(ctx context.Context) (int, error)

	// CountWithEmbedding returns the number of items carrying an embedding.
	CountWithEmbedding(ctx context.Context) (int, error)

	// Stats returns aggregate corpus statistics.
	Stats(ctx context.Context) (*models.CorpusStats, error)

	// Close releases the underlying database handle.
	Close() error
}

// RunStorage persists curation run telemetry records. Writes are best-effort
// from the orchestrator's point of view.
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.CurationRun) error
	GetRun(ctx context.Context, id string) (*models.CurationRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.CurationRun, error)
}
