package snapshot

import (
	"context"
	"time"

	"github.com/nholik/status-sentry/internal/statuspage"
)

// Record is the persisted last-observed state for one component,
// keyed by component ID in the snapshot.
type Record struct {
	Status statuspage.Status `json:"status"`
	Name   string            `json:"name"`
	Group  string            `json:"group"`
}

// Snapshot captures the last-observed status of all in-scope components.
// It is built once per run and replaces the previous snapshot entirely.
type Snapshot struct {
	Components map[string]Record `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// Lookup returns the record for a component ID, if present.
func (s Snapshot) Lookup(id string) (Record, bool) {
	record, ok := s.Components[id]
	return record, ok
}

// Empty returns a snapshot with no components.
func Empty() Snapshot {
	return Snapshot{Components: map[string]Record{}}
}

// Store defines the interface for persisting snapshots between runs.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
