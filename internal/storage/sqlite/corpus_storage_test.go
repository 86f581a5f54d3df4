package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
)

// setupCorpusTestDB creates a test database and returns cleanup function
func setupCorpusTestDB(t *testing.T) (*SQLiteDB, func()) {
	tempDir := t.TempDir()
	dbPath := tempDir + "/test.db"

	config := &common.SQLiteConfig{
		Path:               dbPath,
		EmbeddingDimension: 4,
		CacheSizeMB:        10,
		WALMode:            false,
		BusyTimeoutMS:      5000,
	}

	logger := arbor.NewLogger()
	db, err := NewSQLiteDB(logger, config)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

func newTestCorpus(t *testing.T) (interfaces.CorpusStorage, func()) {
	db, cleanup := setupCorpusTestDB(t)
	return NewCorpusStorage(db, arbor.NewLogger()), cleanup
}

func testItem(id string, embedding []float32) *models.ContentItem {
	now := time.Unix(1700000000, 0)
	return &models.ContentItem{
		ID:          id,
		Title:       "Title " + id,
		Description: "Description " + id,
		Channel:     "channel-" + id,
		URL:         "https://example.com/watch?v=" + id,
		OriginTag:   "lofi",
		SessionID:   "run_test",
		Embedding:   embedding,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCorpusStorage_UpsertAndGet(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	item := testItem("v1", []float32{0.1, 0.2, 0.3, 0.4})
	item.Comments = []models.Comment{{Text: "great video", LikeCount: 42}}
	require.NoError(t, storage.Upsert(ctx, item))

	got, err := storage.GetItem(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Title v1", got.Title)
	assert.Equal(t, "channel-v1", got.Channel)
	assert.Equal(t, "lofi", got.OriginTag)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, got.Embedding)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "great video", got.Comments[0].Text)
	assert.Equal(t, int64(42), got.Comments[0].LikeCount)
	assert.False(t, got.Consumed)
}

func TestCorpusStorage_UpsertDimensionMismatch(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	err := storage.Upsert(ctx, testItem("v1", []float32{0.1, 0.2}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")

	require.NoError(t, storage.Upsert(ctx, testItem("v1", nil)))
	err = storage.SetEmbedding(ctx, "v1", []float32{0.1, 0.2, 0.3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}

func TestCorpusStorage_GetItemAbsent(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()

	got, err := storage.GetItem(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCorpusStorage_UpsertIdempotent(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	item := testItem("v1", []float32{1, 0, 0, 0})
	require.NoError(t, storage.Upsert(ctx, item))

	first, err := storage.GetItem(ctx, "v1")
	require.NoError(t, err)

	// Repeating the identical call leaves the stored row unchanged
	require.NoError(t, storage.Upsert(ctx, item))

	second, err := storage.GetItem(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCorpusStorage_UpsertNeverDowngrades(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	full := testItem("v1", []float32{1, 0, 0, 0})
	full.Comments = []models.Comment{{Text: "keep me"}}
	require.NoError(t, storage.Upsert(ctx, full))
	require.NoError(t, storage.MarkConsumed(ctx, []string{"v1"}))

	// A sparse re-ingest of the same item: no embedding, no comments,
	// empty description
	sparse := &models.ContentItem{
		ID:        "v1",
		Title:     "Updated title",
		OriginTag: "study",
		UpdatedAt: time.Unix(1700001000, 0),
	}
	require.NoError(t, storage.Upsert(ctx, sparse))

	got, err := storage.GetItem(ctx, "v1")
	require.NoError(t, err)

	assert.Equal(t, "Updated title", got.Title)
	assert.Equal(t, "study", got.OriginTag)
	assert.Equal(t, "Description v1", got.Description, "empty incoming field must not clear stored value")
	assert.Equal(t, []float32{1, 0, 0, 0}, got.Embedding, "nil incoming embedding must not clear stored value")
	require.Len(t, got.Comments, 1)
	assert.True(t, got.Consumed, "upsert must not touch the consumed flag")
	assert.Equal(t, full.CreatedAt.Unix(), got.CreatedAt.Unix(), "upsert must not touch created_at")
	assert.Equal(t, int64(1700001000), got.UpdatedAt.Unix())
}

func TestCorpusStorage_FindSimilarRanking(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	// Cosine against query (1,0,0,0): v-exact=1.0, v-close~0.894, v-far=0
	require.NoError(t, storage.Upsert(ctx, testItem("v-exact", []float32{1, 0, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v-close", []float32{2, 1, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v-far", []float32{0, 0, 1, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v-none", nil)))

	matches, err := storage.FindSimilar(ctx, []float32{1, 0, 0, 0}, 10, 0.5)
	require.NoError(t, err)

	require.Len(t, matches, 2)
	assert.Equal(t, "v-exact", matches[0].Item.ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Equal(t, "v-close", matches[1].Item.ID)
	assert.InDelta(t, 0.8944, matches[1].Similarity, 1e-3)
}

func TestCorpusStorage_FindSimilarThresholdMonotonic(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, testItem("a", []float32{1, 0, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("b", []float32{1, 1, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("c", []float32{0, 1, 0, 0})))

	query := []float32{1, 0, 0, 0}

	loose, err := storage.FindSimilar(ctx, query, 10, 0.0)
	require.NoError(t, err)
	strict, err := storage.FindSimilar(ctx, query, 10, 0.9)
	require.NoError(t, err)

	// Raising the threshold can only shrink the result set
	assert.GreaterOrEqual(t, len(loose), len(strict))
	for _, m := range strict {
		assert.GreaterOrEqual(t, m.Similarity, 0.9)
	}
}

func TestCorpusStorage_ServeOnceAboveThreshold(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	// Against query (1,0,0,0): (3,4,0,0) scores 0.6, (2,4.583,0,0) scores ~0.4
	require.NoError(t, storage.Upsert(ctx, testItem("v-mid", []float32{3, 4, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v-low", []float32{2, 4.583, 0, 0})))

	query := []float32{1, 0, 0, 0}

	matches, err := storage.FindSimilar(ctx, query, 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "v-mid", matches[0].Item.ID)
	assert.InDelta(t, 0.6, matches[0].Similarity, 1e-3)

	// Consuming the served item makes the next pass come up empty
	require.NoError(t, storage.MarkConsumed(ctx, []string{"v-mid"}))

	matches, err = storage.FindSimilar(ctx, query, 10, 0.5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCorpusStorage_FindSimilarExcludesConsumed(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, testItem("v1", []float32{1, 0, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v2", []float32{1, 0, 0, 0})))
	require.NoError(t, storage.MarkConsumed(ctx, []string{"v1"}))

	matches, err := storage.FindSimilar(ctx, []float32{1, 0, 0, 0}, 10, 0.5)
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "v2", matches[0].Item.ID)
}

func TestCorpusStorage_FindSimilarTieBreakDeterministic(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	// Identical embeddings and timestamps: ties resolve by id ascending
	require.NoError(t, storage.Upsert(ctx, testItem("v-b", []float32{1, 0, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v-a", []float32{1, 0, 0, 0})))

	newer := testItem("v-c", []float32{1, 0, 0, 0})
	newer.UpdatedAt = time.Unix(1700009999, 0)
	require.NoError(t, storage.Upsert(ctx, newer))

	for i := 0; i < 3; i++ {
		matches, err := storage.FindSimilar(ctx, []float32{1, 0, 0, 0}, 10, 0.5)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "v-c", matches[0].Item.ID, "more recently updated item wins the tie")
		assert.Equal(t, "v-a", matches[1].Item.ID)
		assert.Equal(t, "v-b", matches[2].Item.ID)
	}
}

func TestCorpusStorage_FindSimilarLimit(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"v1", "v2", "v3", "v4"} {
		require.NoError(t, storage.Upsert(ctx, testItem(id, []float32{1, 0, 0, 0})))
	}

	matches, err := storage.FindSimilar(ctx, []float32{1, 0, 0, 0}, 2, 0.0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestCorpusStorage_MarkConsumedUnknownIDs(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, testItem("v1", nil)))
	require.NoError(t, storage.MarkConsumed(ctx, []string{"v1", "no-such-id"}))

	got, err := storage.GetItem(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, got.Consumed)
}

func TestCorpusStorage_ResetConsumedCounts(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	for _, id := range []string{"v1", "v2", "v3"} {
		require.NoError(t, storage.Upsert(ctx, testItem(id, nil)))
	}
	require.NoError(t, storage.MarkConsumed(ctx, []string{"v1", "v2"}))

	// Only rows actually flipped are counted
	flipped, err := storage.ResetConsumed(ctx, []string{"v1", "v3", "missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	flipped, err = storage.ResetAllConsumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, flipped)

	flipped, err = storage.ResetAllConsumed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, flipped)
}

func TestCorpusStorage_ListUnembeddedAndSetEmbedding(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	older := testItem("v-old", nil)
	older.CreatedAt = time.Unix(1600000000, 0)
	require.NoError(t, storage.Upsert(ctx, older))
	require.NoError(t, storage.Upsert(ctx, testItem("v-new", nil)))
	require.NoError(t, storage.Upsert(ctx, testItem("v-embedded", []float32{1, 0, 0, 0})))

	pending, err := storage.ListUnembedded(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "v-old", pending[0].ID, "oldest first")

	require.NoError(t, storage.SetEmbedding(ctx, "v-old", []float32{0, 1, 0, 0}))

	pending, err = storage.ListUnembedded(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "v-new", pending[0].ID)

	err = storage.SetEmbedding(ctx, "missing", []float32{1, 0, 0, 0})
	assert.Error(t, err)
}

func TestCorpusStorage_Stats(t *testing.T) {
	storage, cleanup := newTestCorpus(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, storage.Upsert(ctx, testItem("v1", []float32{1, 0, 0, 0})))
	require.NoError(t, storage.Upsert(ctx, testItem("v2", nil)))

	study := testItem("v3", []float32{0, 1, 0, 0})
	study.OriginTag = "study"
	require.NoError(t, storage.Upsert(ctx, study))
	require.NoError(t, storage.MarkConsumed(ctx, []string{"v3"}))

	stats, err := storage.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 2, stats.EmbeddedItems)
	assert.Equal(t, 1, stats.ConsumedItems)
	assert.Equal(t, 2, stats.ItemsByTag["lofi"])
	assert.Equal(t, 1, stats.ItemsByTag["study"])
	assert.False(t, stats.LastUpdated.IsZero())

	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	embedded, err := storage.CountWithEmbedding(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, embedded)
}
