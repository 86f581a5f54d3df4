package interfaces

import "context"

// BackfillResult summarizes one embedding backfill pass.
type BackfillResult struct {
	Scanned  int `json:"scanned"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// SchedulerService runs the periodic embedding backfill: items that were
// stored without a vector (the embedding gateway was down, or the item had no
// usable text at ingest time) get another chance on a cron schedule.
type SchedulerService interface {
	// Start begins the cron schedule. A disabled scheduler starts nothing
	// and returns nil; RunBackfill stays available for manual triggers.
	Start() error

	// Stop halts the cron schedule.
	Stop() error

	// IsRunning reports whether the cron schedule is active.
	IsRunning() bool

	// RunBackfill executes one backfill pass immediately.
	RunBackfill(ctx context.Context) (*BackfillResult, error)
}
