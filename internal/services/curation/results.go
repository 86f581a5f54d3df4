package curation

import (
	"strings"
	"sync"
)

// itemOutcome records the fate of one candidate inside a run. Partial-failure
// tolerance lives here: failed candidates are counted, never re-raised.
type itemOutcome struct {
	origin   string // tag or "related:<seedID>" marker that produced the candidate
	itemID   string
	stored   bool
	embedded bool
	err      error
}

// runTally aggregates per-candidate outcomes across pool workers.
type runTally struct {
	mu       sync.Mutex
	outcomes []itemOutcome
	storeErr error
}

func newRunTally() *runTally {
	return &runTally{outcomes: make([]itemOutcome, 0)}
}

func (t *runTally) record(outcome itemOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.outcomes = append(t.outcomes, outcome)
}

// failStore records a store-unreachable condition. The first one wins; all
// workers observe it and stop picking up new candidates.
func (t *runTally) failStore(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.storeErr == nil {
		t.storeErr = err
	}
}

func (t *runTally) storeFailure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.storeErr
}

// storedCount returns the number of candidates actually persisted.
func (t *runTally) storedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, o := range t.outcomes {
		if o.stored {
			count++
		}
	}
	return count
}

// embeddedCount returns the number of stored candidates that carry a vector.
func (t *runTally) embeddedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, o := range t.outcomes {
		if o.stored && o.embedded {
			count++
		}
	}
	return count
}

// perOrigin breaks stored counts down by the tag that produced each candidate.
func (t *runTally) perOrigin() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	breakdown := make(map[string]int)
	for _, o := range t.outcomes {
		if o.stored {
			breakdown[o.origin]++
		}
	}
	return breakdown
}

// perSeed is perOrigin with the "related:" marker stripped, keyed by seed id.
func (t *runTally) perSeed() map[string]int {
	breakdown := t.perOrigin()
	perSeed := make(map[string]int, len(breakdown))
	for origin, count := range breakdown {
		perSeed[strings.TrimPrefix(origin, "related:")] = count
	}
	return perSeed
}
