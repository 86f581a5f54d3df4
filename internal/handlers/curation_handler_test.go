package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
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

// mockCurationService implements interfaces.CurationService for testing
type mockCurationService struct {
	ingestFunc func(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.IngestResult, error)
	filterFunc func(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.FilterResult, error)
	expandFunc func(ctx context.Context, req *interfaces.ExpandRequest) (*interfaces.ExpandResult, error)
}

func (m *mockCurationService) Ingest(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.IngestResult, error) {
	if m.ingestFunc != nil {
		return m.ingestFunc(ctx, req)
	}
	return &interfaces.IngestResult{RunID: "run_test"}, nil
}

func (m *mockCurationService) Filter(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.FilterResult, error) {
	if m.filterFunc != nil {
		return m.filterFunc(ctx, req)
	}
	return &interfaces.FilterResult{RunID: "run_test"}, nil
}

func (m *mockCurationService) Expand(ctx context.Context, req *interfaces.ExpandRequest) (*interfaces.ExpandResult, error) {
	if m.expandFunc != nil {
		return m.expandFunc(ctx, req)
	}
	return &interfaces.ExpandResult{RunID: "run_test"}, nil
}

func newCurationHandler(svc *mockCurationService) *CurationHandler {
	return NewCurationHandler(svc, arbor.NewLogger())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestIngestHandler(t *testing.T) {
	var captured *interfaces.IngestRequest
	svc := &mockCurationService{
		ingestFunc: func(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.IngestResult, error) {
			captured = req
			return &interfaces.IngestResult{RunID: "run_1", ItemsStored: 7}, nil
		},
	}
	handler := newCurationHandler(svc)

	rec := postJSON(t, handler.IngestHandler, "/api/curation/ingest", map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("selfie")),
		"free_text":    "need a break",
		"user_id":      "u1",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result interfaces.IngestResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "run_1", result.RunID)
	assert.Equal(t, 7, result.ItemsStored)

	require.NotNil(t, captured)
	assert.Equal(t, []byte("selfie"), captured.ImageBytes)
	assert.Equal(t, "need a break", captured.FreeText)
	assert.Equal(t, "u1", captured.UserID)
}

func TestIngestHandler_MissingFreeText(t *testing.T) {
	handler := newCurationHandler(&mockCurationService{})

	rec := postJSON(t, handler.IngestHandler, "/api/curation/ingest", map[string]string{
		"user_id": "u1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestHandler_BadBase64(t *testing.T) {
	handler := newCurationHandler(&mockCurationService{})

	rec := postJSON(t, handler.IngestHandler, "/api/curation/ingest", map[string]string{
		"free_text":    "hello",
		"image_base64": "not-base64!!!",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestHandler_MethodNotAllowed(t *testing.T) {
	handler := newCurationHandler(&mockCurationService{})

	req := httptest.NewRequest(http.MethodGet, "/api/curation/ingest", nil)
	rec := httptest.NewRecorder()
	handler.IngestHandler(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFilterHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid input", fmt.Errorf("%w: free text is required", curation.ErrInvalidInput), http.StatusBadRequest},
		{"context embedding unavailable", fmt.Errorf("%w: model down", curation.ErrContextEmbeddingUnavailable), http.StatusBadGateway},
		{"store unavailable", fmt.Errorf("%w: database locked", curation.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCurationService{
				filterFunc: func(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.FilterResult, error) {
					return nil, tt.err
				},
			}
			handler := newCurationHandler(svc)

			rec := postJSON(t, handler.FilterHandler, "/api/curation/filter", map[string]string{
				"free_text": "anything",
			})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestFilterHandler(t *testing.T) {
	svc := &mockCurationService{
		filterFunc: func(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.FilterResult, error) {
			return &interfaces.FilterResult{
				RunID: "run_2",
				Items: []models.ItemMatch{
					{Item: &models.ContentItem{ID: "v1"}, Similarity: 0.91},
				},
				Count: 1,
			}, nil
		},
	}
	handler := newCurationHandler(svc)

	rec := postJSON(t, handler.FilterHandler, "/api/curation/filter", map[string]string{
		"free_text": "wind down",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result interfaces.FilterResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, 1, result.Count)
	assert.InDelta(t, 0.91, result.Items[0].Similarity, 1e-9)
}

func TestExpandHandler(t *testing.T) {
	var captured *interfaces.ExpandRequest
	svc := &mockCurationService{
		expandFunc: func(ctx context.Context, req *interfaces.ExpandRequest) (*interfaces.ExpandResult, error) {
			captured = req
			return &interfaces.ExpandResult{RunID: "run_3", ItemsStored: 4}, nil
		},
	}
	handler := newCurationHandler(svc)

	rec := postJSON(t, handler.ExpandHandler, "/api/curation/expand", map[string][]string{
		"liked_item_ids": {"a", "b"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, []string{"a", "b"}, captured.LikedItemIDs)
}

func TestExpandHandler_EmptySeeds(t *testing.T) {
	handler := newCurationHandler(&mockCurationService{})

	rec := postJSON(t, handler.ExpandHandler, "/api/curation/expand", map[string][]string{
		"liked_item_ids": {},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
