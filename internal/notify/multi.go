package notify

import (
	"context"

	"github.com/nholik/status-sentry/internal/diff"
)

// MultiNotifier fans out notifications to multiple notifiers.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that dispatches to all provided notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	filtered := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		filtered = append(filtered, notifier)
	}
	return &MultiNotifier{notifiers: filtered}
}

// Notify implements Notifier. Every notifier is attempted; the first
// error is returned after the fan-out completes.
func (m *MultiNotifier) Notify(ctx context.Context, changes diff.ChangeSet) error {
	var firstErr error
	for _, notifier := range m.notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, changes); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
