package videosearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *YouTubeService {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &common.YouTubeConfig{
		APIKey:         "test-key",
		BaseURL:        server.URL,
		MaxPerTag:      10,
		CommentLimit:   5,
		RequestTimeout: 5 * time.Second,
		RatePerSecond:  100,
	}
	return NewYouTubeService(config, arbor.NewLogger()).(*YouTubeService)
}

func TestSearchByTag(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "lofi", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "short", r.URL.Query().Get("videoDuration"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{"id": {"videoId": "abc123"}, "snippet": {"title": "Lofi mix", "description": "chill", "channelTitle": "LofiChannel"}},
				{"id": {"videoId": ""}, "snippet": {"title": "channel result"}},
				{"id": {"videoId": "def456"}, "snippet": {"title": "Rainy beats", "channelTitle": "RainCo"}}
			]
		}`))
	})

	items, err := service.SearchByTag(context.Background(), "lofi", 5)
	require.NoError(t, err)

	// Results without a videoId are dropped at the boundary
	require.Len(t, items, 2)
	assert.Equal(t, "abc123", items[0].ID)
	assert.Equal(t, "Lofi mix", items[0].Title)
	assert.Equal(t, "LofiChannel", items[0].Channel)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", items[0].URL)
	assert.Equal(t, "lofi", items[0].OriginTag)
	assert.Nil(t, items[0].Embedding)
}

func TestSearchByTag_EmptyTag(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := service.SearchByTag(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestSearchByTag_APIError(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "quotaExceeded"}}`))
	})

	_, err := service.SearchByTag(context.Background(), "lofi", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestSearchRelated(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "seed1", r.URL.Query().Get("relatedToVideoId"))

		w.Write([]byte(`{"items": [{"id": {"videoId": "rel1"}, "snippet": {"title": "Related"}}]}`))
	})

	items, err := service.SearchRelated(context.Background(), "seed1", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "rel1", items[0].ID)
	assert.Equal(t, "related:seed1", items[0].OriginTag)
}

func TestFetchComments(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commentThreads", r.URL.Path)
		assert.Equal(t, "abc123", r.URL.Query().Get("videoId"))
		assert.Equal(t, "relevance", r.URL.Query().Get("order"))

		w.Write([]byte(`{
			"items": [
				{"snippet": {"topLevelComment": {"snippet": {"textDisplay": "so relaxing", "likeCount": 12}}}},
				{"snippet": {"topLevelComment": {"snippet": {"textDisplay": "  ", "likeCount": 1}}}},
				{"snippet": {"topLevelComment": {"snippet": {"textDisplay": "on repeat", "likeCount": 3}}}}
			]
		}`))
	})

	comments, err := service.FetchComments(context.Background(), "abc123", 5)
	require.NoError(t, err)

	// Blank comments are dropped
	require.Len(t, comments, 2)
	assert.Equal(t, "so relaxing", comments[0].Text)
	assert.Equal(t, int64(12), comments[0].LikeCount)
}

func TestClampLimit(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, 10, service.clampLimit(0))
	assert.Equal(t, 10, service.clampLimit(50))
	assert.Equal(t, 3, service.clampLimit(3))
}

func TestSearch_ContextCancellation(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"items": []}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.SearchByTag(ctx, "lofi", 5)
	assert.Error(t, err)
}
