package curation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
	"github.com/ternarybob/curo/internal/services/workers"
)

// Service implements the CurationService interface. Each call runs one linear
// workflow: collaborators feed the context builder, the profile drives search
// or matching, the corpus store absorbs the results.
type Service struct {
	contextService  interfaces.ContextService
	embeddingSvc    interfaces.EmbeddingService
	videoSearch     interfaces.VideoSearchService
	emotionService  interfaces.EmotionService
	calendarService interfaces.CalendarService
	corpus          interfaces.CorpusStorage
	runs            interfaces.RunStorage
	eventService    interfaces.EventService
	config          *common.CurationConfig
	logger          arbor.ILogger
}

// NewService creates a new curation orchestrator
func NewService(
	contextService interfaces.ContextService,
	embeddingSvc interfaces.EmbeddingService,
	videoSearch interfaces.VideoSearchService,
	emotionService interfaces.EmotionService,
	calendarService interfaces.CalendarService,
	corpus interfaces.CorpusStorage,
	runs interfaces.RunStorage,
	eventService interfaces.EventService,
	config *common.CurationConfig,
	logger arbor.ILogger,
) interfaces.CurationService {
	return &Service{
		contextService:  contextService,
		embeddingSvc:    embeddingSvc,
		videoSearch:     videoSearch,
		emotionService:  emotionService,
		calendarService: calendarService,
		corpus:          corpus,
		runs:            runs,
		eventService:    eventService,
		config:          config,
		logger:          logger,
	}
}

// Ingest populates the corpus from the request context. Per-tag and per-item
// collaborator failures degrade the stored count; only invalid input and
// store unavailability fail the run.
func (s *Service) Ingest(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.IngestResult, error) {
	runID := common.NewRunID()
	startedAt := time.Now()

	snapshot := s.buildSnapshot(ctx, req)

	profile, err := s.contextService.BuildContext(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	result := &interfaces.IngestResult{
		RunID:          runID,
		PerTag:         map[string]int{},
		Tags:           profile.Tags,
		Description:    profile.Description,
		Emotions:       snapshot.Emotions,
		CalendarEvents: snapshot.CalendarEvents,
	}

	if len(profile.Tags) == 0 {
		s.logger.Warn().Str("run_id", runID).Msg("Context produced no tags, nothing to ingest")
		s.completeRun(ctx, runID, models.WorkflowIngest, profile.Tags, 0, 0, nil, nil, startedAt)
		return result, nil
	}

	tally := newRunTally()

	// Phase 1: fan tag searches out through the pool
	candidates := s.collectCandidates(ctx, profile.Tags, func(jobCtx context.Context, tag string) ([]*models.ContentItem, error) {
		return s.videoSearch.SearchByTag(jobCtx, tag, 0)
	})

	// Phase 2: fan per-candidate processing out through a fresh pool
	s.processCandidates(ctx, runID, candidates, tally)

	if storeErr := tally.storeFailure(); storeErr != nil {
		s.completeRun(ctx, runID, models.WorkflowIngest, profile.Tags, tally.storedCount(), 0, tally.perOrigin(), storeErr, startedAt)
		return nil, storeErr
	}

	result.ItemsStored = tally.storedCount()
	result.PerTag = tally.perOrigin()

	s.logger.Info().
		Str("run_id", runID).
		Int("items_stored", result.ItemsStored).
		Int("items_embedded", tally.embeddedCount()).
		Int("tags", len(profile.Tags)).
		Msg("Ingestion run completed")

	s.completeRun(ctx, runID, models.WorkflowIngest, profile.Tags, result.ItemsStored, 0, result.PerTag, nil, startedAt)
	return result, nil
}

// Filter serves the best unconsumed matches for the request context and marks
// them consumed. There is no degraded path: without a context embedding no
// meaningful matching is possible.
func (s *Service) Filter(ctx context.Context, req *interfaces.IngestRequest) (*interfaces.FilterResult, error) {
	runID := common.NewRunID()
	startedAt := time.Now()

	snapshot := s.buildSnapshot(ctx, req)

	profile, err := s.contextService.BuildContext(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	if profile.Empty() {
		err := fmt.Errorf("%w: context reasoning produced no profile", ErrContextEmbeddingUnavailable)
		s.completeRun(ctx, runID, models.WorkflowFilter, nil, 0, 0, nil, err, startedAt)
		return nil, err
	}

	queryVec, err := s.embeddingSvc.EmbedText(ctx, profile.Description)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrContextEmbeddingUnavailable, err)
		s.completeRun(ctx, runID, models.WorkflowFilter, profile.Tags, 0, 0, nil, wrapped, startedAt)
		return nil, wrapped
	}

	matches, err := s.corpus.FindSimilar(ctx, queryVec, s.config.FilterLimit, s.config.FilterThreshold)
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		s.completeRun(ctx, runID, models.WorkflowFilter, profile.Tags, 0, 0, nil, wrapped, startedAt)
		return nil, wrapped
	}

	// Serve at most once: flip consumed for everything returned. The response
	// is already computed; a failed flip is logged, not surfaced.
	if len(matches) > 0 {
		ids := make([]string, len(matches))
		for i, match := range matches {
			ids[i] = match.Item.ID
		}
		if err := s.corpus.MarkConsumed(ctx, ids); err != nil {
			s.logger.Error().
				Err(err).
				Str("run_id", runID).
				Int("items", len(ids)).
				Msg("Failed to mark served items consumed, duplicates possible on next run")
		}
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("matches", len(matches)).
		Float64("threshold", s.config.FilterThreshold).
		Msg("Filtering run completed")

	s.completeRun(ctx, runID, models.WorkflowFilter, profile.Tags, 0, len(matches), nil, nil, startedAt)

	return &interfaces.FilterResult{
		RunID: runID,
		Items: matches,
		Count: len(matches),
	}, nil
}

// Expand grows the corpus from previously liked items instead of tags, with
// the same partial-failure tolerance as Ingest.
func (s *Service) Expand(ctx context.Context, req *interfaces.ExpandRequest) (*interfaces.ExpandResult, error) {
	if req == nil || len(req.LikedItemIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one liked item id is required", ErrInvalidInput)
	}

	runID := common.NewRunID()
	startedAt := time.Now()
	tally := newRunTally()

	candidates := s.collectCandidates(ctx, req.LikedItemIDs, func(jobCtx context.Context, seedID string) ([]*models.ContentItem, error) {
		return s.videoSearch.SearchRelated(jobCtx, seedID, 0)
	})

	s.processCandidates(ctx, runID, candidates, tally)

	if storeErr := tally.storeFailure(); storeErr != nil {
		s.completeRun(ctx, runID, models.WorkflowExpand, req.LikedItemIDs, tally.storedCount(), 0, tally.perSeed(), storeErr, startedAt)
		return nil, storeErr
	}

	result := &interfaces.ExpandResult{
		RunID:       runID,
		ItemsStored: tally.storedCount(),
		PerSeed:     tally.perSeed(),
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("items_stored", result.ItemsStored).
		Int("seeds", len(req.LikedItemIDs)).
		Msg("Expansion run completed")

	s.completeRun(ctx, runID, models.WorkflowExpand, req.LikedItemIDs, result.ItemsStored, 0, result.PerSeed, nil, startedAt)
	return result, nil
}

// buildSnapshot assembles the context snapshot from the collaborators. Both
// reads are best-effort: a failed emotion or calendar lookup degrades to an
// empty signal, never fails the run.
func (s *Service) buildSnapshot(ctx context.Context, req *interfaces.IngestRequest) *models.ContextSnapshot {
	snapshot := &models.ContextSnapshot{}
	if req == nil {
		return snapshot
	}
	snapshot.FreeText = req.FreeText

	if s.emotionService != nil && len(req.ImageBytes) > 0 {
		reading, err := s.emotionService.Detect(ctx, req.ImageBytes)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Emotion read failed, continuing without it")
		} else if reading != nil {
			snapshot.Emotions = reading.Emotions
			snapshot.DominantEmotion = reading.Dominant
		}
	}

	if s.calendarService != nil {
		events, err := s.calendarService.TodayEvents(ctx, req.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Calendar read failed, continuing without it")
		} else {
			snapshot.CalendarEvents = events
		}
	}

	return snapshot
}

// collectCandidates fans one search per origin (tag or seed) out through a
// pool and gathers the results. A failed search skips its origin.
func (s *Service) collectCandidates(ctx context.Context, origins []string, search func(context.Context, string) ([]*models.ContentItem, error)) []*models.ContentItem {
	pool := workers.NewPool(ctx, s.config.Concurrency, s.logger)
	pool.Start()

	var mu sync.Mutex
	candidates := make([]*models.ContentItem, 0)

	for _, origin := range origins {
		origin := origin
		err := pool.Submit(func(jobCtx context.Context) error {
			items, err := search(jobCtx, origin)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("origin", origin).
					Msg("Candidate search failed, skipping origin")
				return nil
			}

			mu.Lock()
			candidates = append(candidates, items...)
			mu.Unlock()
			return nil
		})
		if err != nil {
			break
		}
	}

	pool.Wait()
	return candidates
}

// processCandidates runs comment fetch, embedding and upsert for each
// candidate through a pool, recording outcomes in the tally. Comment and
// embedding failures degrade the single candidate; an upsert failure marks
// the whole run store-failed.
func (s *Service) processCandidates(ctx context.Context, runID string, candidates []*models.ContentItem, tally *runTally) {
	if len(candidates) == 0 {
		return
	}

	pool := workers.NewPool(ctx, s.config.Concurrency, s.logger)
	pool.Start()

	now := time.Now()

	for _, candidate := range candidates {
		candidate := candidate
		err := pool.Submit(func(jobCtx context.Context) error {
			// A store failure elsewhere in the run makes further work pointless
			if tally.storeFailure() != nil {
				return nil
			}

			outcome := itemOutcome{origin: candidate.OriginTag, itemID: candidate.ID}

			comments, err := s.videoSearch.FetchComments(jobCtx, candidate.ID, 0)
			if err != nil {
				s.logger.Debug().
					Err(err).
					Str("item_id", candidate.ID).
					Msg("Comment fetch failed, storing item without comments")
			} else {
				candidate.Comments = comments
			}

			embedding, err := s.embeddingSvc.EmbedContentItem(jobCtx, candidate)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("item_id", candidate.ID).
					Msg("Embedding failed, storing item without vector")
			} else {
				candidate.Embedding = embedding
			}
			outcome.embedded = len(candidate.Embedding) > 0

			candidate.SessionID = runID
			candidate.CreatedAt = now
			candidate.UpdatedAt = now

			if err := s.corpus.Upsert(jobCtx, candidate); err != nil {
				outcome.err = err
				tally.record(outcome)
				tally.failStore(fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
				return nil
			}

			outcome.stored = true
			tally.record(outcome)
			return nil
		})
		if err != nil {
			break
		}
	}

	pool.Wait()
}

// completeRun persists the telemetry record and publishes the completion
// event. Both are best-effort.
func (s *Service) completeRun(ctx context.Context, runID, workflow string, tags []string, stored, matched int, breakdown map[string]int, runErr error, startedAt time.Time) {
	run := &models.CurationRun{
		ID:           runID,
		Workflow:     workflow,
		Tags:         tags,
		ItemsStored:  stored,
		ItemsMatched: matched,
		Breakdown:    breakdown,
		StartedAt:    startedAt,
		CompletedAt:  time.Now(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, run); err != nil {
			s.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to save run record")
		}
	}

	if s.eventService != nil {
		event := interfaces.Event{
			Type: interfaces.EventCurationCompleted,
			Payload: map[string]interface{}{
				"run_id":        runID,
				"workflow":      workflow,
				"items_stored":  stored,
				"items_matched": matched,
				"error":         run.Error,
			},
		}
		if err := s.eventService.Publish(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("run_id", runID).Msg("Failed to publish completion event")
		}
	}
}
