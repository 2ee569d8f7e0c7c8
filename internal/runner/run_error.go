package runner

import "fmt"

// FetchError means the status API could not be read. Fatal for the run:
// no diff, notify, or persist happens against possibly stale data.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch status page: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// SelectionError means no configured scope resolved to any component.
// Missing groups alone degrade the run; an empty selection is fatal.
type SelectionError struct {
	MissingGroups []string
	Err           error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("resolve scope (missing groups %v): %v", e.MissingGroups, e.Err)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

// NotifyError means delivery failed. The run still persists its snapshot;
// notification and persistence are independent failure domains.
type NotifyError struct {
	Err error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify: %v", e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// PersistError means the new snapshot could not be written. The next run
// re-diffs against stale state, which is bounded staleness, not data loss.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist snapshot: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
