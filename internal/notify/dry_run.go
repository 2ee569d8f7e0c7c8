package notify

import (
	"context"

	"github.com/nholik/status-sentry/internal/diff"
	"github.com/rs/zerolog"
)

// DryRunNotifier logs change-sets without sending notifications.
type DryRunNotifier struct {
	logger zerolog.Logger
	inner  Notifier
}

// NewDryRunNotifier returns a notifier that suppresses delivery and logs instead.
func NewDryRunNotifier(logger zerolog.Logger, inner Notifier) *DryRunNotifier {
	return &DryRunNotifier{logger: logger, inner: inner}
}

// Notify implements Notifier.
func (n *DryRunNotifier) Notify(_ context.Context, changes diff.ChangeSet) error {
	for _, entry := range changes.Broken {
		n.logger.Info().
			Str("component", entry.Name).
			Str("group", entry.GroupLabel).
			Str("previous_status", string(entry.Previous)).
			Str("current_status", string(entry.Current)).
			Bool("maintenance", entry.Maintenance).
			Msg("[DRY-RUN] Would notify: broken")
	}
	for _, entry := range changes.Resolved {
		n.logger.Info().
			Str("component", entry.Name).
			Str("group", entry.GroupLabel).
			Str("previous_status", string(entry.Previous)).
			Str("current_status", string(entry.Current)).
			Msg("[DRY-RUN] Would notify: resolved")
	}
	return nil
}
