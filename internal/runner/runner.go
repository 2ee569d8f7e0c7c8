package runner

import (
	"context"
	"errors"
	"time"

	"github.com/nholik/status-sentry/internal/diff"
	"github.com/nholik/status-sentry/internal/healthcheck"
	"github.com/nholik/status-sentry/internal/metrics"
	"github.com/nholik/status-sentry/internal/notify"
	"github.com/nholik/status-sentry/internal/scope"
	"github.com/nholik/status-sentry/internal/snapshot"
	"github.com/nholik/status-sentry/internal/statuspage"
	"github.com/rs/zerolog"
)

// Ticker is the minimal interface needed for driving the runner loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// Outcome summarizes a completed run. NotifyErr and PersistErr are
// degraded-but-completed failures; fatal failures are returned from
// RunOnce as an error instead.
type Outcome struct {
	Changes           diff.ChangeSet
	ComponentsChecked int
	MissingGroups     []string
	NotifyErr         error
	PersistErr        error
}

// Degraded reports whether the run completed with a non-fatal failure.
func (o Outcome) Degraded() bool {
	return o.NotifyErr != nil || o.PersistErr != nil
}

// Runner orchestrates one monitoring cycle: fetch, select, diff, notify,
// persist. The design assumes at most one run executing at a time; the
// snapshot file is the diff baseline and concurrent runs would corrupt it.
type Runner struct {
	logger         zerolog.Logger
	pollInterval   time.Duration
	tickerFactory  func(time.Duration) Ticker
	runOnce        func(context.Context) (Outcome, error)
	client         statuspage.Client
	store          snapshot.Store
	notifier       notify.Notifier
	scopeCfg       scope.Config
	filter         diff.ImpactFilter
	metrics        *metrics.Metrics
	tracker        *healthcheck.Tracker
	etag           string
	lastComponents []statuspage.Component
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// WithRunOnce overrides the single-cycle execution step.
func WithRunOnce(runOnce func(context.Context) (Outcome, error)) Option {
	return func(r *Runner) {
		r.runOnce = runOnce
	}
}

// WithClient sets the status page client.
func WithClient(client statuspage.Client) Option {
	return func(r *Runner) {
		r.client = client
	}
}

// WithStore sets the snapshot store.
func WithStore(store snapshot.Store) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithNotifier sets the notifier for change-sets.
func WithNotifier(notifier notify.Notifier) Option {
	return func(r *Runner) {
		r.notifier = notifier
	}
}

// WithScope sets the component selection configuration.
func WithScope(cfg scope.Config) Option {
	return func(r *Runner) {
		r.scopeCfg = cfg
	}
}

// WithImpactFilter overrides the default alert-impact filter.
func WithImpactFilter(filter diff.ImpactFilter) Option {
	return func(r *Runner) {
		r.filter = filter
	}
}

// WithMetrics enables Prometheus metric updates per cycle.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracker enables healthcheck cycle tracking.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// New constructs a Runner with the given logger and poll interval.
func New(logger zerolog.Logger, pollInterval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:       logger,
		pollInterval: pollInterval,
		filter:       diff.DefaultImpactFilter(),
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}
	r.runOnce = r.defaultRunOnce

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the poll loop and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}

	// Run immediately on startup
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial run cycle failed")
	}

	ticker := r.tickerFactory(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("runner stopped")
			return nil
		case <-ticker.C():
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("run cycle failed")
			}
		}
	}
}

// RunOnce executes a single monitoring cycle. The returned error is
// fatal for the run: nothing was notified or persisted. Degraded
// failures are reported on the Outcome and logged.
func (r *Runner) RunOnce(ctx context.Context) (Outcome, error) {
	return r.runOnce(ctx)
}

func (r *Runner) defaultRunOnce(ctx context.Context) (Outcome, error) {
	started := time.Now().UTC()

	page, err := r.client.Fetch(ctx, r.etag)
	if err != nil {
		r.metrics.IncFetchErrors()
		return Outcome{}, &FetchError{Err: err}
	}

	components := page.Components
	if page.NotModified {
		if r.lastComponents == nil {
			r.metrics.IncFetchErrors()
			return Outcome{}, &FetchError{Err: errors.New("not modified response without cached components")}
		}
		components = r.lastComponents
		r.logger.Debug().Msg("components unchanged")
	}
	if page.ETag != "" {
		r.etag = page.ETag
	}
	r.lastComponents = components

	selection, err := scope.Resolve(components, r.scopeCfg)
	if len(selection.MissingGroups) > 0 {
		r.logger.Warn().
			Strs("groups", selection.MissingGroups).
			Msg("configured groups not found in response")
	}
	if err != nil {
		return Outcome{}, &SelectionError{MissingGroups: selection.MissingGroups, Err: err}
	}

	prev, err := r.store.Load(ctx)
	if err != nil {
		// Load only fails on context cancellation; corruption degrades
		// to an empty snapshot inside the store.
		return Outcome{}, err
	}

	changes := diff.Detect(prev, selection.Components, r.filter)
	r.logChanges(changes)
	r.recordComponents(selection.Components)

	outcome := Outcome{
		Changes:           changes,
		ComponentsChecked: len(selection.Components),
		MissingGroups:     selection.MissingGroups,
	}

	if r.notifier != nil {
		if err := r.notifier.Notify(ctx, changes); err != nil {
			outcome.NotifyErr = &NotifyError{Err: err}
			r.logger.Error().Err(err).Msg("notification delivery failed")
		}
	}

	next := diff.NextSnapshot(selection.Components, started)
	if err := r.store.Save(ctx, next); err != nil {
		outcome.PersistErr = &PersistError{Err: err}
		r.logger.Error().Err(err).Msg("snapshot persistence failed; next run diffs against stale state")
	}

	duration := time.Since(started)
	r.metrics.ObserveCycleDuration(duration)
	if outcome.PersistErr == nil {
		r.metrics.SetLastSuccessfulCycleTimestamp(time.Now().UTC())
	}
	r.tracker.RecordCycle(duration, len(selection.Components))

	r.logger.Info().
		Int("components", len(selection.Components)).
		Int("broken", len(changes.Broken)).
		Int("resolved", len(changes.Resolved)).
		Int("dropped", changes.Dropped).
		Dur("duration", duration).
		Msg("cycle complete")

	return outcome, nil
}

func (r *Runner) logChanges(changes diff.ChangeSet) {
	for _, entry := range changes.Broken {
		event := r.logger.Warn()
		if entry.Current == statuspage.StatusMajorOutage {
			event = r.logger.Error()
		}
		event.
			Str("component", entry.Name).
			Str("group", entry.GroupLabel).
			Str("previous_status", string(entry.Previous)).
			Str("current_status", string(entry.Current)).
			Bool("maintenance", entry.Maintenance).
			Msg("component broke")
		r.metrics.IncAlerts(alertKind(entry))
	}
	for _, entry := range changes.Resolved {
		r.logger.Info().
			Str("component", entry.Name).
			Str("group", entry.GroupLabel).
			Str("previous_status", string(entry.Previous)).
			Msg("component recovered")
		r.metrics.IncAlerts("resolved")
	}
	if changes.Dropped > 0 {
		r.logger.Warn().
			Int("count", changes.Dropped).
			Msg("components disappeared from response; dropped from snapshot without resolution")
	}
}

func (r *Runner) recordComponents(selected []scope.ScopedComponent) {
	if r.metrics == nil {
		return
	}
	counts := map[[2]string]int{}
	for _, scoped := range selected {
		key := [2]string{scoped.GroupLabel, string(scoped.Component.Status)}
		counts[key]++
	}
	for key, count := range counts {
		r.metrics.SetComponentsTotal(key[0], key[1], count)
	}
}

func alertKind(entry diff.Entry) string {
	if entry.Maintenance {
		return "maintenance"
	}
	return "outage"
}
