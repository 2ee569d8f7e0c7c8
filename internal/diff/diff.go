// Package diff turns two observations of component status into a minimal,
// deduplicated change-set: what newly broke, what recovered, nothing else.
// Ongoing incidents with an unchanged status are suppressed so repeated
// runs do not re-alert.
package diff

import (
	"sort"
	"time"

	"github.com/nholik/status-sentry/internal/scope"
	"github.com/nholik/status-sentry/internal/snapshot"
	"github.com/nholik/status-sentry/internal/statuspage"
)

// ImpactFilter is the set of statuses considered alert-worthy.
type ImpactFilter map[statuspage.Status]bool

// NewImpactFilter builds a filter from an explicit status list. Only
// concrete non-operational statuses are alert-worthy; operational and
// unknown never enter the filter.
func NewImpactFilter(statuses ...statuspage.Status) ImpactFilter {
	filter := make(ImpactFilter, len(statuses))
	for _, status := range statuses {
		if status == statuspage.StatusOperational || status == statuspage.StatusUnknown {
			continue
		}
		filter[status] = true
	}
	return filter
}

// DefaultImpactFilter alerts on every concrete non-operational status.
func DefaultImpactFilter() ImpactFilter {
	return NewImpactFilter(
		statuspage.StatusDegraded,
		statuspage.StatusPartialOutage,
		statuspage.StatusMajorOutage,
		statuspage.StatusUnderMaintenance,
	)
}

// AlertWorthy reports whether the status should trigger a notification.
func (f ImpactFilter) AlertWorthy(status statuspage.Status) bool {
	return f[status]
}

// Entry is a single status transition surfaced by a run.
type Entry struct {
	ID         string
	Name       string
	GroupLabel string
	Previous   statuspage.Status
	Current    statuspage.Status
	// Maintenance buckets the entry for presentation; under_maintenance
	// reads better as "maintenance started" than "outage".
	Maintenance bool
}

// ChangeSet is the outcome of diffing one run against the prior snapshot.
// Entry order follows the input component order.
type ChangeSet struct {
	Broken   []Entry
	Resolved []Entry
	// Dropped counts components that were in the previous snapshot but
	// absent from the current selection. They are not reported as
	// resolved; absence is not a status the API reported.
	Dropped int
}

// HasChanges reports whether anything alert-worthy happened this run.
func (c ChangeSet) HasChanges() bool {
	return len(c.Broken) > 0 || len(c.Resolved) > 0
}

// SortedByName returns a copy with both lists ordered alphabetically,
// for display surfaces that prefer stable alphabetical output.
func (c ChangeSet) SortedByName() ChangeSet {
	sorted := ChangeSet{
		Broken:   append([]Entry(nil), c.Broken...),
		Resolved: append([]Entry(nil), c.Resolved...),
		Dropped:  c.Dropped,
	}
	sort.SliceStable(sorted.Broken, func(i, j int) bool {
		return sorted.Broken[i].Name < sorted.Broken[j].Name
	})
	sort.SliceStable(sorted.Resolved, func(i, j int) bool {
		return sorted.Resolved[i].Name < sorted.Resolved[j].Name
	})
	return sorted
}

// Detect compares the previous snapshot with the current selection.
//
// A component missing from the previous snapshot is treated as having
// been operational: a component first seen healthy stays silent, while
// a component first seen broken alerts immediately. A component whose
// status did not change produces no entry regardless of what that
// status is.
func Detect(prev snapshot.Snapshot, current []scope.ScopedComponent, filter ImpactFilter) ChangeSet {
	if filter == nil {
		filter = DefaultImpactFilter()
	}

	var changes ChangeSet
	seen := make(map[string]bool, len(current))

	for _, scoped := range current {
		component := scoped.Component
		seen[component.ID] = true

		previous := statuspage.StatusOperational
		if record, ok := prev.Lookup(component.ID); ok {
			previous = record.Status
		}

		if component.Status == previous {
			continue
		}

		entry := Entry{
			ID:         component.ID,
			Name:       component.Name,
			GroupLabel: scoped.GroupLabel,
			Previous:   previous,
			Current:    component.Status,
		}

		switch {
		case filter.AlertWorthy(component.Status):
			entry.Maintenance = component.Status == statuspage.StatusUnderMaintenance
			changes.Broken = append(changes.Broken, entry)
		case component.Status == statuspage.StatusOperational && !previous.IsOperational():
			changes.Resolved = append(changes.Resolved, entry)
		}
	}

	for id := range prev.Components {
		if !seen[id] {
			changes.Dropped++
		}
	}

	return changes
}

// NextSnapshot builds the replacement snapshot from the current
// selection. It contains exactly the components observed this run;
// stale entries for components no longer returned are dropped.
func NextSnapshot(current []scope.ScopedComponent, now time.Time) snapshot.Snapshot {
	next := snapshot.Snapshot{
		Components: make(map[string]snapshot.Record, len(current)),
		CheckedAt:  now,
	}
	for _, scoped := range current {
		next.Components[scoped.Component.ID] = snapshot.Record{
			Status: scoped.Component.Status,
			Name:   scoped.Component.Name,
			Group:  scoped.GroupLabel,
		}
	}
	return next
}
