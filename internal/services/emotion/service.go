package emotion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
)

// Service implements the EmotionService interface against an external
// facial-emotion recognizer.
type Service struct {
	config     *common.EmotionConfig
	logger     arbor.ILogger
	httpClient *http.Client
}

// NewService creates a new emotion recognition service instance
func NewService(config *common.EmotionConfig, logger arbor.ILogger) interfaces.EmotionService {
	return &Service{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

type detectRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type detectResponse struct {
	Emotions map[string]float64 `json:"emotions"`
	Dominant string             `json:"dominant"`
	Error    string             `json:"error,omitempty"`
}

// Detect posts the image to the recognizer and returns the normalized
// distribution. An empty image yields an empty reading without a network call.
func (s *Service) Detect(ctx context.Context, imageBytes []byte) (*interfaces.EmotionReading, error) {
	if len(imageBytes) == 0 {
		return &interfaces.EmotionReading{Emotions: map[string]float64{}}, nil
	}

	if s.config.BaseURL == "" {
		return nil, fmt.Errorf("emotion recognizer base URL is not configured")
	}

	payload, err := json.Marshal(detectRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(imageBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal detect request: %w", err)
	}

	endpoint := strings.TrimSuffix(s.config.BaseURL, "/") + "/detect"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call emotion recognizer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read recognizer response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("emotion recognizer returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp detectResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode recognizer response: %w", err)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("emotion recognizer error: %s", apiResp.Error)
	}

	reading := &interfaces.EmotionReading{
		Emotions: apiResp.Emotions,
		Dominant: apiResp.Dominant,
	}
	if reading.Emotions == nil {
		reading.Emotions = map[string]float64{}
	}

	// Derive the dominant label when the recognizer omits it
	if reading.Dominant == "" {
		best := -1.0
		for emotion, score := range reading.Emotions {
			if score > best {
				best = score
				reading.Dominant = emotion
			}
		}
	}

	s.logger.Debug().
		Int("emotion_count", len(reading.Emotions)).
		Str("dominant", reading.Dominant).
		Msg("Emotion detection completed")

	return reading, nil
}
