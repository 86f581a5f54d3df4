package videosearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
	"golang.org/x/time/rate"
)

// YouTubeService implements the VideoSearchService interface against the
// YouTube Data API v3. Responses are normalized into ContentItem at this
// boundary; nothing upstream sees the wire shapes.
type YouTubeService struct {
	config     *common.YouTubeConfig
	logger     arbor.ILogger
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewYouTubeService creates a new YouTube search service instance
func NewYouTubeService(config *common.YouTubeConfig, logger arbor.ILogger) interfaces.VideoSearchService {
	ratePerSecond := config.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 4
	}

	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/youtube/v3"
	}

	return &YouTubeService{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		baseURL: baseURL,
	}
}

// SearchByTag fetches up to limit candidate videos for a topical tag
func (s *YouTubeService) SearchByTag(ctx context.Context, tag string, limit int) ([]*models.ContentItem, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, fmt.Errorf("tag cannot be empty")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("videoDuration", "short")
	params.Set("q", tag)
	params.Set("maxResults", fmt.Sprintf("%d", s.clampLimit(limit)))

	items, err := s.search(ctx, params, tag)
	if err != nil {
		return nil, fmt.Errorf("search by tag %q failed: %w", tag, err)
	}

	s.logger.Debug().
		Str("tag", tag).
		Int("results", len(items)).
		Msg("Tag search completed")

	return items, nil
}

// SearchRelated fetches up to limit videos related to an existing video
func (s *YouTubeService) SearchRelated(ctx context.Context, seedID string, limit int) ([]*models.ContentItem, error) {
	if strings.TrimSpace(seedID) == "" {
		return nil, fmt.Errorf("seed video id cannot be empty")
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("relatedToVideoId", seedID)
	params.Set("maxResults", fmt.Sprintf("%d", s.clampLimit(limit)))

	items, err := s.search(ctx, params, "related:"+seedID)
	if err != nil {
		return nil, fmt.Errorf("related search for %q failed: %w", seedID, err)
	}

	s.logger.Debug().
		Str("seed_id", seedID).
		Int("results", len(items)).
		Msg("Related search completed")

	return items, nil
}

// FetchComments fetches up to limit top comments for a video, most relevant
// first
func (s *YouTubeService) FetchComments(ctx context.Context, videoID string, limit int) ([]models.Comment, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, fmt.Errorf("video id cannot be empty")
	}

	if limit <= 0 {
		limit = s.config.CommentLimit
	}
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("videoId", videoID)
	params.Set("order", "relevance")
	params.Set("textFormat", "plainText")
	params.Set("maxResults", fmt.Sprintf("%d", limit))
	params.Set("key", s.config.APIKey)

	body, err := s.get(ctx, s.baseURL+"/commentThreads?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("comment fetch for %q failed: %w", videoID, err)
	}

	var apiResp commentThreadsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode comment response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	comments := make([]models.Comment, 0, len(apiResp.Items))
	for _, thread := range apiResp.Items {
		text := strings.TrimSpace(thread.Snippet.TopLevelComment.Snippet.TextDisplay)
		if text == "" {
			continue
		}
		comments = append(comments, models.Comment{
			Text:      text,
			LikeCount: thread.Snippet.TopLevelComment.Snippet.LikeCount,
		})
	}

	s.logger.Debug().
		Str("video_id", videoID).
		Int("comments", len(comments)).
		Msg("Comment fetch completed")

	return comments, nil
}

// search executes one search call and normalizes the results. originTag is
// recorded on each returned item for provenance.
func (s *YouTubeService) search(ctx context.Context, params url.Values, originTag string) ([]*models.ContentItem, error) {
	params.Set("key", s.config.APIKey)

	body, err := s.get(ctx, s.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var apiResp searchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error %d: %s", apiResp.Error.Code, apiResp.Error.Message)
	}

	items := make([]*models.ContentItem, 0, len(apiResp.Items))
	for _, result := range apiResp.Items {
		if result.ID.VideoID == "" {
			continue
		}
		items = append(items, &models.ContentItem{
			ID:          result.ID.VideoID,
			Title:       result.Snippet.Title,
			Description: result.Snippet.Description,
			Channel:     result.Snippet.ChannelTitle,
			URL:         "https://www.youtube.com/watch?v=" + result.ID.VideoID,
			OriginTag:   originTag,
		})
	}

	return items, nil
}

// get performs one rate-limited GET and returns the response body
func (s *YouTubeService) get(ctx context.Context, fullURL string) ([]byte, error) {
	// Pace requests against the API quota
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call YouTube API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("YouTube API returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (s *YouTubeService) clampLimit(limit int) int {
	max := s.config.MaxPerTag
	if max <= 0 {
		max = 10
	}
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
