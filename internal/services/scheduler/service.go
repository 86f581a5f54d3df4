package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/services/curation"
)

// Service implements SchedulerService: a cron-driven embedding backfill over
// items stored without a vector.
type Service struct {
	corpus       interfaces.CorpusStorage
	embeddingSvc interfaces.EmbeddingService
	eventService interfaces.EventService
	config       *common.ProcessingConfig
	cron         *cron.Cron
	logger       arbor.ILogger
	mu           sync.Mutex // Protects isProcessing
	isProcessing bool
	running      bool
}

// NewService creates a new scheduler service. The schedule uses six-field
// cron expressions (with seconds).
func NewService(corpus interfaces.CorpusStorage, embeddingSvc interfaces.EmbeddingService, eventService interfaces.EventService, config *common.ProcessingConfig, logger arbor.ILogger) interfaces.SchedulerService {
	return &Service{
		corpus:       corpus,
		embeddingSvc: embeddingSvc,
		eventService: eventService,
		config:       config,
		cron:         cron.New(cron.WithSeconds()),
		logger:       logger,
	}
}

// Start begins the backfill schedule. Disabled processing starts nothing.
func (s *Service) Start() error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if !s.config.Enabled {
		s.logger.Info().Msg("Embedding backfill scheduler disabled, manual trigger only")
		return nil
	}

	schedule := s.config.Schedule
	if schedule == "" {
		schedule = "0 0 */6 * * *" // Default: every 6 hours
	}

	if _, err := s.cron.AddFunc(schedule, s.runScheduledBackfill); err != nil {
		return fmt.Errorf("failed to add backfill cron job: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Int("limit", s.config.Limit).
		Msg("Embedding backfill scheduler started")

	return nil
}

// Stop halts the backfill schedule.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Embedding backfill scheduler stopped")
	return nil
}

// IsRunning returns true if the cron schedule is active
func (s *Service) IsRunning() bool {
	return s.running
}

// runScheduledBackfill is the cron entry point.
func (s *Service) runScheduledBackfill() {
	// Panic recovery to prevent service crash
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled backfill")
		}
	}()

	if _, err := s.RunBackfill(context.Background()); err != nil {
		s.logger.Error().Err(err).Msg("Scheduled embedding backfill failed")
	}
}

// RunBackfill executes one backfill pass: list unembedded items oldest first,
// embed each, attach the vector. Per-item failures are logged and skipped; a
// pass already in flight is not run twice.
func (s *Service) RunBackfill(ctx context.Context) (*interfaces.BackfillResult, error) {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		return nil, fmt.Errorf("backfill already in progress")
	}
	s.isProcessing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isProcessing = false
		s.mu.Unlock()
	}()

	started := time.Now()

	limit := s.config.Limit
	if limit <= 0 {
		limit = 200
	}

	items, err := s.corpus.ListUnembedded(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", curation.ErrStoreUnavailable, err)
	}

	result := &interfaces.BackfillResult{Scanned: len(items)}
	if len(items) == 0 {
		s.logger.Debug().Msg("No unembedded items, backfill pass is a no-op")
		s.publishCompleted(ctx, result, started)
		return result, nil
	}

	for _, item := range items {
		embedding, err := s.embeddingSvc.EmbedContentItem(ctx, item)
		if err != nil {
			result.Failed++
			s.logger.Warn().
				Str("item_id", item.ID).
				Err(err).
				Msg("Backfill embedding failed, item skipped")
			continue
		}
		if embedding == nil {
			// No usable text; the item will never embed until re-ingested
			// with richer metadata.
			result.Skipped++
			continue
		}

		if err := s.corpus.SetEmbedding(ctx, item.ID, embedding); err != nil {
			result.Failed++
			s.logger.Warn().
				Str("item_id", item.ID).
				Err(err).
				Msg("Failed to attach backfilled embedding")
			continue
		}
		result.Embedded++
	}

	s.logger.Info().
		Int("scanned", result.Scanned).
		Int("embedded", result.Embedded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Dur("duration", time.Since(started)).
		Msg("Embedding backfill pass completed")

	s.publishCompleted(ctx, result, started)
	return result, nil
}

func (s *Service) publishCompleted(ctx context.Context, result *interfaces.BackfillResult, started time.Time) {
	if s.eventService == nil {
		return
	}

	event := interfaces.Event{
		Type: interfaces.EventBackfillCompleted,
		Payload: map[string]interface{}{
			"scanned":     result.Scanned,
			"embedded":    result.Embedded,
			"skipped":     result.Skipped,
			"failed":      result.Failed,
			"duration_ms": time.Since(started).Milliseconds(),
		},
	}

	if err := s.eventService.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish backfill completed event")
	}
}
