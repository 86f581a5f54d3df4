package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/common"
	"github.com/ternarybob/curo/internal/handlers"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/services/calendar"
	"github.com/ternarybob/curo/internal/services/contextbuilder"
	"github.com/ternarybob/curo/internal/services/curation"
	"github.com/ternarybob/curo/internal/services/embeddings"
	"github.com/ternarybob/curo/internal/services/emotion"
	"github.com/ternarybob/curo/internal/services/events"
	"github.com/ternarybob/curo/internal/services/llm"
	"github.com/ternarybob/curo/internal/services/scheduler"
	"github.com/ternarybob/curo/internal/services/videosearch"
	"github.com/ternarybob/curo/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager *storage.Manager

	// Reasoning and embedding services
	LLMService       interfaces.LLMService
	EmbeddingService interfaces.EmbeddingService
	ContextService   interfaces.ContextService

	// External collaborators
	VideoSearchService interfaces.VideoSearchService
	EmotionService     interfaces.EmotionService
	CalendarService    interfaces.CalendarService

	// Event-driven services
	EventService     interfaces.EventService
	SchedulerService interfaces.SchedulerService

	// Curation orchestrator
	CurationService interfaces.CurationService

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	CurationHandler *handlers.CurationHandler
	CorpusHandler   *handlers.CorpusHandler
	RunHandler      *handlers.RunHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.EventService = events.NewService(app.Logger)

	if err := app.initServices(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	// Log completed curation runs and backfill passes
	app.subscribeEventLoggers()

	if err := app.SchedulerService.Start(); err != nil {
		app.StorageManager.Close()
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Bool("processing_enabled", cfg.Processing.Enabled).
		Str("llm_provider", cfg.LLM.DefaultProvider).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (SQLite corpus + Badger run history)
func (a *App) initStorage() error {
	manager, err := storage.NewManager(a.Logger, a.Config)
	if err != nil {
		return err
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("sqlite_path", a.Config.Storage.SQLite.Path).
		Str("badger_path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	var err error

	// LLM service first: the context builder and embedding gateway sit on it
	a.LLMService, err = llm.NewLLMService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM service: %w", err)
	}

	a.EmbeddingService = embeddings.NewService(
		a.LLMService,
		a.Config.Storage.SQLite.EmbeddingDimension,
		a.Logger,
	)

	a.ContextService = contextbuilder.NewService(
		a.LLMService,
		a.Config.Curation.MaxTags,
		a.Logger,
	)

	a.VideoSearchService = videosearch.NewYouTubeService(&a.Config.YouTube, a.Logger)

	// Emotion and calendar collaborators are optional: without a base URL the
	// orchestrator runs on free text alone
	if a.Config.Emotion.BaseURL != "" {
		a.EmotionService = emotion.NewService(&a.Config.Emotion, a.Logger)
	} else {
		a.Logger.Info().Msg("Emotion recognizer not configured, snapshots will carry no emotion read")
	}

	if a.Config.Calendar.BaseURL != "" {
		a.CalendarService = calendar.NewService(&a.Config.Calendar, a.Logger)
	} else {
		a.Logger.Info().Msg("Calendar source not configured, snapshots will carry no events")
	}

	a.CurationService = curation.NewService(
		a.ContextService,
		a.EmbeddingService,
		a.VideoSearchService,
		a.EmotionService,
		a.CalendarService,
		a.StorageManager.Corpus(),
		a.StorageManager.Runs(),
		a.EventService,
		&a.Config.Curation,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(
		a.StorageManager.Corpus(),
		a.EmbeddingService,
		a.EventService,
		&a.Config.Processing,
		a.Logger,
	)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.CurationHandler = handlers.NewCurationHandler(a.CurationService, a.Logger)
	a.CorpusHandler = handlers.NewCorpusHandler(a.StorageManager.Corpus(), a.SchedulerService, a.Logger)
	a.RunHandler = handlers.NewRunHandler(a.StorageManager.Runs(), a.Logger)
}

// subscribeEventLoggers attaches logging subscribers to the event bus.
func (a *App) subscribeEventLoggers() {
	logHandler := func(ctx context.Context, event interfaces.Event) error {
		a.Logger.Info().
			Str("event_type", string(event.Type)).
			Str("payload", fmt.Sprintf("%v", event.Payload)).
			Msg("Event published")
		return nil
	}

	a.EventService.Subscribe(interfaces.EventCurationCompleted, logHandler)
	a.EventService.Subscribe(interfaces.EventBackfillCompleted, logHandler)
}

// Close releases all application resources
func (a *App) Close() {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage manager")
		}
	}

	a.Logger.Info().Msg("Application closed")
}
