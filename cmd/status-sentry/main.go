package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nholik/status-sentry/internal/config"
	"github.com/nholik/status-sentry/internal/diff"
	"github.com/nholik/status-sentry/internal/healthcheck"
	"github.com/nholik/status-sentry/internal/logging"
	"github.com/nholik/status-sentry/internal/metrics"
	"github.com/nholik/status-sentry/internal/notify"
	"github.com/nholik/status-sentry/internal/runner"
	"github.com/nholik/status-sentry/internal/scope"
	"github.com/nholik/status-sentry/internal/server"
	"github.com/nholik/status-sentry/internal/snapshot"
	"github.com/nholik/status-sentry/internal/statuspage"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Error().Err(err).Msg("configuration invalid")
		return 1
	}
	logger = logging.NewWithLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	client, err := statuspage.NewHTTPClient(cfg.StatusURL, cfg.FetchTimeout, 0)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize status page client")
		return 1
	}

	store := snapshot.NewFileStore(cfg.StateFile, logger)

	webhookNotifier, err := notify.NewWebhookNotifier(logger, cfg.WebhookURL, cfg.WebhookToken, "")
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize webhook notifier")
		return 1
	}
	var notifier notify.Notifier = notify.NewMultiNotifier(
		notify.NewSlackNotifier(logger, cfg.SlackWebhookURL),
		webhookNotifier,
	)
	if cfg.DryRun {
		notifier = notify.NewDryRunNotifier(logger, notifier)
	}

	filter := diff.DefaultImpactFilter()
	if len(cfg.AlertStatuses) > 0 {
		filter = diff.NewImpactFilter(cfg.AlertStatuses...)
	}

	metricsCollector := metrics.New()
	tracker := healthcheck.NewTracker()

	r := runner.New(logger, cfg.PollInterval,
		runner.WithClient(client),
		runner.WithStore(store),
		runner.WithNotifier(notifier),
		runner.WithScope(scope.Config{Groups: cfg.Groups, Services: cfg.Services}),
		runner.WithImpactFilter(filter),
		runner.WithMetrics(metricsCollector),
		runner.WithTracker(tracker),
	)

	if cfg.RunOnce {
		outcome, err := r.RunOnce(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("run failed")
			return 1
		}
		if outcome.Degraded() {
			logger.Warn().Msg("run completed with degraded outcome")
		}
		return 0
	}

	server.Start(ctx, logger, cfg.PollInterval, tracker, metricsCollector, cfg.HealthPort, cfg.MetricsPort)

	logger.Info().
		Str("status_url", cfg.StatusURL).
		Dur("poll_interval", cfg.PollInterval).
		Strs("groups", cfg.Groups).
		Strs("services", cfg.Services).
		Msg("status-sentry starting")

	if err := r.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("runner exited with error")
		return 1
	}
	return 0
}
