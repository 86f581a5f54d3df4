package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Curation workflows
	mux.HandleFunc("/api/curation/ingest", s.app.CurationHandler.IngestHandler) // POST - populate corpus from context
	mux.HandleFunc("/api/curation/filter", s.app.CurationHandler.FilterHandler) // POST - serve best unconsumed matches
	mux.HandleFunc("/api/curation/expand", s.app.CurationHandler.ExpandHandler) // POST - grow corpus from liked items

	// API routes - Corpus operations
	mux.HandleFunc("/api/corpus/stats", s.app.CorpusHandler.StatsHandler)       // GET - aggregate corpus statistics
	mux.HandleFunc("/api/corpus/reset", s.app.CorpusHandler.ResetHandler)       // POST - clear consumed flags
	mux.HandleFunc("/api/corpus/backfill", s.app.CorpusHandler.BackfillHandler) // POST - manual embedding backfill

	// API routes - Run telemetry
	mux.HandleFunc("/api/runs", s.app.RunHandler.ListRunsHandler) // GET - recent curation runs

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// Catch-all for unknown routes
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}
