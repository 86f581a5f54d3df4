package interfaces

import (
	"context"

	"github.com/ternarybob/curo/internal/models"
)

// ContextService turns a raw context snapshot into search tags and one
// natural-language context description via a single reasoning call.
//
// A failed or unparsable reasoning call yields an empty profile and a nil
// error: callers treat empty tags as "nothing to ingest" rather than aborting
// the whole request. Empty free text is the one hard input error.
type ContextService interface {
	BuildContext(ctx context.Context, snapshot *models.ContextSnapshot) (*models.ContextProfile, error)
}
