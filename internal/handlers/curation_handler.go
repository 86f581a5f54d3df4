package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/interfaces"
)

var validate = validator.New()

// CurationHandler handles the three curation workflow endpoints
type CurationHandler struct {
	curationService interfaces.CurationService
	logger          arbor.ILogger
}

// NewCurationHandler creates a new curation handler
func NewCurationHandler(curationService interfaces.CurationService, logger arbor.ILogger) *CurationHandler {
	return &CurationHandler{
		curationService: curationService,
		logger:          logger,
	}
}

// CurationRequest is the payload of the ingest and filter endpoints.
type CurationRequest struct {
	ImageBase64 string `json:"image_base64"`
	FreeText    string `json:"free_text" validate:"required"`
	UserID      string `json:"user_id"`
}

// ExpandRequest is the payload of the expand endpoint.
type ExpandRequest struct {
	LikedItemIDs []string `json:"liked_item_ids" validate:"required,min=1,dive,required"`
}

// IngestHandler handles POST /api/curation/ingest requests
func (h *CurationHandler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := h.decodeCurationRequest(w, r)
	if !ok {
		return
	}

	result, err := h.curationService.Ingest(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Ingestion run failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// FilterHandler handles POST /api/curation/filter requests
func (h *CurationHandler) FilterHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	req, ok := h.decodeCurationRequest(w, r)
	if !ok {
		return
	}

	result, err := h.curationService.Filter(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("Filter run failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// ExpandHandler handles POST /api/curation/expand requests
func (h *CurationHandler) ExpandHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode expand request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "liked_item_ids must contain at least one item id")
		return
	}

	result, err := h.curationService.Expand(r.Context(), &interfaces.ExpandRequest{
		LikedItemIDs: req.LikedItemIDs,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Expansion run failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// decodeCurationRequest decodes and validates the shared ingest/filter payload.
func (h *CurationHandler) decodeCurationRequest(w http.ResponseWriter, r *http.Request) (*interfaces.IngestRequest, bool) {
	var req CurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode curation request")
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return nil, false
	}

	if err := validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "free_text is required")
		return nil, false
	}

	var imageBytes []byte
	if req.ImageBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "image_base64 is not valid base64")
			return nil, false
		}
		imageBytes = decoded
	}

	return &interfaces.IngestRequest{
		ImageBytes: imageBytes,
		FreeText:   req.FreeText,
		UserID:     req.UserID,
	}, true
}
