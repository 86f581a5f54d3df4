package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
	"github.com/ternarybob/curo/internal/services/curation"
)

// mockCorpusStorage implements interfaces.CorpusStorage for testing
type mockCorpusStorage struct {
	statsFunc    func(ctx context.Context) (*models.CorpusStats, error)
	resetFunc    func(ctx context.Context, ids []string) (int, error)
	resetAllFunc func(ctx context.Context) (int, error)
}

func (m *mockCorpusStorage) Stats(ctx context.Context) (*models.CorpusStats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return &models.CorpusStats{}, nil
}

func (m *mockCorpusStorage) ResetConsumed(ctx context.Context, ids []string) (int, error) {
	if m.resetFunc != nil {
		return m.resetFunc(ctx, ids)
	}
	return 0, nil
}

func (m *mockCorpusStorage) ResetAllConsumed(ctx context.Context) (int, error) {
	if m.resetAllFunc != nil {
		return m.resetAllFunc(ctx)
	}
	return 0, nil
}

func (m *mockCorpusStorage) Upsert(ctx context.Context, item *models.ContentItem) error { return nil }
func (m *mockCorpusStorage) GetItem(ctx context.Context, id string) (*models.ContentItem, error) {
	return nil, nil
}
func (m *mockCorpusStorage) FindSimilar(ctx context.Context, query []float32, limit int, threshold float64) ([]models.ItemMatch, error) {
	return nil, nil
}
func (m *mockCorpusStorage) MarkConsumed(ctx context.Context, ids []string) error { return nil }
func (m *mockCorpusStorage) ListUnembedded(ctx context.Context, limit int) ([]*models.ContentItem, error) {
	return nil, nil
}
func (m *mockCorpusStorage) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	return nil
}
func (m *mockCorpusStorage) Count(ctx context.Context) (int, error)              { return 0, nil }
func (m *mockCorpusStorage) CountWithEmbedding(ctx context.Context) (int, error) { return 0, nil }
func (m *mockCorpusStorage) Close() error                                        { return nil }

// mockScheduler implements interfaces.SchedulerService for testing
type mockScheduler struct {
	backfillFunc func(ctx context.Context) (*interfaces.BackfillResult, error)
}

func (m *mockScheduler) Start() error    { return nil }
func (m *mockScheduler) Stop() error     { return nil }
func (m *mockScheduler) IsRunning() bool { return false }
func (m *mockScheduler) RunBackfill(ctx context.Context) (*interfaces.BackfillResult, error) {
	if m.backfillFunc != nil {
		return m.backfillFunc(ctx)
	}
	return &interfaces.BackfillResult{}, nil
}

func newCorpusHandler(corpus *mockCorpusStorage, scheduler *mockScheduler) *CorpusHandler {
	if corpus == nil {
		corpus = &mockCorpusStorage{}
	}
	if scheduler == nil {
		scheduler = &mockScheduler{}
	}
	return NewCorpusHandler(corpus, scheduler, arbor.NewLogger())
}

func TestStatsHandler(t *testing.T) {
	corpus := &mockCorpusStorage{
		statsFunc: func(ctx context.Context) (*models.CorpusStats, error) {
			return &models.CorpusStats{TotalItems: 42, EmbeddedItems: 40, ConsumedItems: 5}, nil
		},
	}
	handler := newCorpusHandler(corpus, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/corpus/stats", nil)
	rec := httptest.NewRecorder()
	handler.StatsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.CorpusStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 42, stats.TotalItems)
	assert.Equal(t, 40, stats.EmbeddedItems)
}

func TestStatsHandler_StoreFailure(t *testing.T) {
	corpus := &mockCorpusStorage{
		statsFunc: func(ctx context.Context) (*models.CorpusStats, error) {
			return nil, fmt.Errorf("database locked")
		},
	}
	handler := newCorpusHandler(corpus, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/corpus/stats", nil)
	rec := httptest.NewRecorder()
	handler.StatsHandler(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResetHandler_ByIDs(t *testing.T) {
	var captured []string
	corpus := &mockCorpusStorage{
		resetFunc: func(ctx context.Context, ids []string) (int, error) {
			captured = ids
			return 2, nil
		},
	}
	handler := newCorpusHandler(corpus, nil)

	rec := postJSON(t, handler.ResetHandler, "/api/corpus/reset", map[string]interface{}{
		"ids": []string{"v1", "v2", "v3"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"v1", "v2", "v3"}, captured)

	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp["reset"])
}

func TestResetHandler_All(t *testing.T) {
	corpus := &mockCorpusStorage{
		resetAllFunc: func(ctx context.Context) (int, error) {
			return 9, nil
		},
	}
	handler := newCorpusHandler(corpus, nil)

	rec := postJSON(t, handler.ResetHandler, "/api/corpus/reset", map[string]interface{}{
		"all": true,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 9, resp["reset"])
}

func TestResetHandler_NoSelection(t *testing.T) {
	handler := newCorpusHandler(nil, nil)

	rec := postJSON(t, handler.ResetHandler, "/api/corpus/reset", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackfillHandler(t *testing.T) {
	scheduler := &mockScheduler{
		backfillFunc: func(ctx context.Context) (*interfaces.BackfillResult, error) {
			return &interfaces.BackfillResult{Scanned: 5, Embedded: 4, Failed: 1}, nil
		},
	}
	handler := newCorpusHandler(nil, scheduler)

	req := httptest.NewRequest(http.MethodPost, "/api/corpus/backfill", nil)
	rec := httptest.NewRecorder()
	handler.BackfillHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result interfaces.BackfillResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 4, result.Embedded)
}

func TestBackfillHandler_StoreFailure(t *testing.T) {
	scheduler := &mockScheduler{
		backfillFunc: func(ctx context.Context) (*interfaces.BackfillResult, error) {
			return nil, fmt.Errorf("%w: database locked", curation.ErrStoreUnavailable)
		},
	}
	handler := newCorpusHandler(nil, scheduler)

	req := httptest.NewRequest(http.MethodPost, "/api/corpus/backfill", nil)
	rec := httptest.NewRecorder()
	handler.BackfillHandler(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
