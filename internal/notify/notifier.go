package notify

import (
	"context"

	"github.com/nholik/status-sentry/internal/diff"
)

// Notifier delivers status change-sets to external systems.
type Notifier interface {
	Notify(ctx context.Context, changes diff.ChangeSet) error
}
