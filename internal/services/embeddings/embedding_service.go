package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
	"github.com/ternarybob/curo/internal/services/curation"
)

// Service implements EmbeddingService interface
type Service struct {
	llmService interfaces.LLMService
	dimension  int
	logger     arbor.ILogger
}

// NewService creates a new embedding service
func NewService(llmService interfaces.LLMService, dimension int, logger arbor.ILogger) interfaces.EmbeddingService {
	return &Service{
		llmService: llmService,
		dimension:  dimension,
		logger:     logger,
	}
}

// EmbedText creates a vector embedding for text
func (s *Service) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	start := time.Now()
	embedding, err := s.llmService.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curation.ErrEmbeddingUnavailable, err)
	}

	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: model returned empty vector", curation.ErrEmbeddingUnavailable)
	}

	if s.dimension > 0 && len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	s.logger.Debug().
		Str("provider", string(s.llmService.GetProvider())).
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}

// EmbedContentItem builds the embedding input from an item's title,
// description and comment text, then embeds it. An item with no usable text
// returns (nil, nil) without calling the model; such items stay in the corpus
// awaiting backfill but never match.
func (s *Service) EmbedContentItem(ctx context.Context, item *models.ContentItem) ([]float32, error) {
	text := s.prepareItemText(item)
	if strings.TrimSpace(text) == "" {
		s.logger.Debug().
			Str("item_id", item.ID).
			Msg("Skipping embedding for item with no usable text")
		return nil, nil
	}

	embedding, err := s.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("item_id", item.ID).
		Int("embedding_dim", len(embedding)).
		Int("text_length", len(text)).
		Msg("Generated item embedding")

	return embedding, nil
}

// Dimension returns the embedding dimension
func (s *Service) Dimension() int {
	return s.dimension
}

// IsAvailable checks if the embedding service is available
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.llmService == nil {
		return false
	}

	err := s.llmService.HealthCheck(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("LLM service not available")
		return false
	}

	return true
}

// prepareItemText joins title, description and comment text in a fixed order
// so the same item always produces the same embedding input.
func (s *Service) prepareItemText(item *models.ContentItem) string {
	parts := make([]string, 0, 2+len(item.Comments))
	parts = append(parts, item.Title, item.Description)
	parts = append(parts, item.CommentText()...)
	return strings.TrimSpace(strings.Join(parts, " "))
}
