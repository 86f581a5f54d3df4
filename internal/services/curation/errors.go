package curation

import "errors"

// Workflow error taxonomy. Handlers map these sentinels to HTTP status codes;
// everything else is treated as an internal error.
var (
	// ErrInvalidInput marks a request the caller must fix. Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmbeddingUnavailable marks a transient embedding-model failure for a
	// single item. Ingestion degrades around it; the item is stored without a
	// vector.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrContextEmbeddingUnavailable marks a failed context embedding during
	// filtering. Filtering has no degraded path: without the query vector no
	// meaningful matching is possible.
	ErrContextEmbeddingUnavailable = errors.New("context embedding unavailable")

	// ErrStoreUnavailable marks an unreachable corpus store. Always fatal to
	// the current workflow step.
	ErrStoreUnavailable = errors.New("content store unavailable")
)
