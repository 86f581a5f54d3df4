package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/curo/internal/services/curation"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteServiceError maps curation sentinel errors to HTTP status codes:
// invalid input is the caller's fault, a missing context embedding is a bad
// upstream gateway, an unreachable store means the service itself is down.
func WriteServiceError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, curation.ErrInvalidInput):
		return WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, curation.ErrContextEmbeddingUnavailable):
		return WriteError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, curation.ErrStoreUnavailable):
		return WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		return WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
