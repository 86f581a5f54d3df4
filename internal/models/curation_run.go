package models

import "time"

// Workflow identifiers for curation runs.
const (
	WorkflowIngest = "ingest"
	WorkflowFilter = "filter"
	WorkflowExpand = "expand"
)

// CurationRun is the telemetry record for one workflow execution. It exists
// for correlating logs and operational history; it is not a controlling state
// machine. Persisting it is best-effort and never fails the workflow itself.
type CurationRun struct {
	ID           string         `json:"id" badgerhold:"key"`
	Workflow     string         `json:"workflow"`
	Tags         []string       `json:"tags,omitempty"`
	ItemsStored  int            `json:"items_stored"`
	ItemsMatched int            `json:"items_matched"`
	Breakdown    map[string]int `json:"breakdown,omitempty"`
	Error        string         `json:"error,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at"`
}
