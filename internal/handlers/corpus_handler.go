package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/services/curation"
)

// CorpusHandler handles corpus operations endpoints: stats, consumed-flag
// resets and the manual embedding backfill trigger.
type CorpusHandler struct {
	corpus    interfaces.CorpusStorage
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewCorpusHandler creates a new corpus handler
func NewCorpusHandler(corpus interfaces.CorpusStorage, scheduler interfaces.SchedulerService, logger arbor.ILogger) *CorpusHandler {
	return &CorpusHandler{
		corpus:    corpus,
		scheduler: scheduler,
		logger:    logger,
	}
}

// ResetRequest selects which consumed flags to clear: an explicit id list, or
// the whole corpus.
type ResetRequest struct {
	IDs []string `json:"ids"`
	All bool     `json:"all"`
}

// StatsHandler handles GET /api/corpus/stats requests
func (h *CorpusHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.corpus.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read corpus stats")
		WriteError(w, http.StatusServiceUnavailable, curation.ErrStoreUnavailable.Error())
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

// ResetHandler handles POST /api/corpus/reset requests
func (h *CorpusHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode reset request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !req.All && len(req.IDs) == 0 {
		WriteError(w, http.StatusBadRequest, "either ids or all must be set")
		return
	}

	var reset int
	var err error
	if req.All {
		reset, err = h.corpus.ResetAllConsumed(r.Context())
	} else {
		reset, err = h.corpus.ResetConsumed(r.Context(), req.IDs)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to reset consumed flags")
		WriteError(w, http.StatusServiceUnavailable, curation.ErrStoreUnavailable.Error())
		return
	}

	h.logger.Info().Int("reset", reset).Bool("all", req.All).Msg("Consumed flags reset")

	WriteJSON(w, http.StatusOK, map[string]int{"reset": reset})
}

// BackfillHandler handles POST /api/corpus/backfill requests
func (h *CorpusHandler) BackfillHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.logger.Info().Msg("Manual embedding backfill triggered")

	result, err := h.scheduler.RunBackfill(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Manual embedding backfill failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
