package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nholik/status-sentry/internal/statuspage"
)

const (
	envStatusURL       = "ST_STATUS_URL"
	envPollInterval    = "ST_POLL_INTERVAL"
	envFetchTimeout    = "ST_FETCH_TIMEOUT"
	envStateFile       = "ST_STATE_FILE"
	envSlackWebhookURL = "ST_SLACK_WEBHOOK_URL"
	envWebhookURL      = "ST_WEBHOOK_URL"
	envWebhookToken    = "ST_WEBHOOK_TOKEN"
	envGroups          = "ST_GROUPS"
	envServices        = "ST_SERVICES"
	envAlertStatuses   = "ST_ALERT_STATUSES"
	envScopeFile       = "ST_SCOPE_FILE"
	envRunOnce         = "ST_RUN_ONCE"
	envDryRun          = "ST_DRY_RUN"
	envHealthPort      = "ST_HEALTH_PORT"
	envMetricsPort     = "ST_METRICS_PORT"
	envLogLevel        = "ST_LOG_LEVEL"
)

const (
	defaultPollInterval = 60 * time.Second
	defaultFetchTimeout = 30 * time.Second
	defaultStateFile    = "status-sentry-snapshot.json"
)

// Config describes runtime configuration loaded from the environment
// and an optional YAML scope file.
type Config struct {
	StatusURL       string
	PollInterval    time.Duration
	FetchTimeout    time.Duration
	StateFile       string
	SlackWebhookURL string
	WebhookURL      string
	WebhookToken    string
	Groups          []string
	Services        []string
	AlertStatuses   []statuspage.Status
	RunOnce         bool
	DryRun          bool
	HealthPort      int
	MetricsPort     int
	LogLevel        string
}

// Load reads configuration from environment variables and a local .env file
// if present. Existing environment variables take precedence over values in
// .env; environment values take precedence over the scope file.
func Load() (Config, error) {
	if err := loadDotEnvIfPresent(".env"); err != nil {
		return Config{}, err
	}

	cfg := Config{
		PollInterval: defaultPollInterval,
		FetchTimeout: defaultFetchTimeout,
		StateFile:    defaultStateFile,
	}

	if value, ok := lookupTrimmed(envStatusURL); ok {
		cfg.StatusURL = value
	}
	if value, ok := lookupTrimmed(envStateFile); ok {
		cfg.StateFile = value
	}
	if value, ok := lookupTrimmed(envSlackWebhookURL); ok {
		cfg.SlackWebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookURL); ok {
		cfg.WebhookURL = value
	}
	if value, ok := lookupTrimmed(envWebhookToken); ok {
		cfg.WebhookToken = value
	}
	if value, ok := lookupTrimmed(envLogLevel); ok {
		cfg.LogLevel = value
	}

	if value, ok := lookupTrimmed(envPollInterval); ok {
		interval, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envPollInterval, err)
		}
		if interval <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envPollInterval)
		}
		cfg.PollInterval = interval
	}

	if value, ok := lookupTrimmed(envFetchTimeout); ok {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envFetchTimeout, err)
		}
		if timeout <= 0 {
			return Config{}, fmt.Errorf("%s must be greater than zero", envFetchTimeout)
		}
		cfg.FetchTimeout = timeout
	}

	if value, ok := lookupTrimmed(envGroups); ok {
		cfg.Groups = splitList(value)
	}
	if value, ok := lookupTrimmed(envServices); ok {
		cfg.Services = splitList(value)
	}

	var rawStatuses []string
	if value, ok := lookupTrimmed(envAlertStatuses); ok {
		rawStatuses = splitList(value)
	}

	if value, ok := lookupTrimmed(envScopeFile); ok {
		scopeFile, err := LoadScopeFile(value)
		if err != nil {
			return Config{}, err
		}
		if scopeFile != nil {
			if len(cfg.Groups) == 0 {
				cfg.Groups = scopeFile.Groups
			}
			if len(cfg.Services) == 0 {
				cfg.Services = scopeFile.Services
			}
			if len(rawStatuses) == 0 {
				rawStatuses = scopeFile.AlertStatuses
			}
		}
	}

	statuses, err := parseAlertStatuses(rawStatuses)
	if err != nil {
		return Config{}, err
	}
	cfg.AlertStatuses = statuses

	if value, ok := lookupTrimmed(envRunOnce); ok {
		flag, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envRunOnce, err)
		}
		cfg.RunOnce = flag
	}
	if value, ok := lookupTrimmed(envDryRun); ok {
		flag, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDryRun, err)
		}
		cfg.DryRun = flag
	}

	if value, ok := lookupTrimmed(envHealthPort); ok {
		port, err := parsePort(value, envHealthPort)
		if err != nil {
			return Config{}, err
		}
		cfg.HealthPort = port
	}
	if value, ok := lookupTrimmed(envMetricsPort); ok {
		port, err := parsePort(value, envMetricsPort)
		if err != nil {
			return Config{}, err
		}
		cfg.MetricsPort = port
	}

	if cfg.StatusURL == "" {
		return Config{}, errors.New("ST_STATUS_URL is required")
	}
	if err := validateURL(cfg.StatusURL, envStatusURL); err != nil {
		return Config{}, err
	}
	if cfg.SlackWebhookURL != "" {
		if err := validateURL(cfg.SlackWebhookURL, envSlackWebhookURL); err != nil {
			return Config{}, err
		}
	}
	if cfg.WebhookURL != "" {
		if err := validateURL(cfg.WebhookURL, envWebhookURL); err != nil {
			return Config{}, err
		}
	}
	if len(cfg.Groups) == 0 && len(cfg.Services) == 0 {
		return Config{}, errors.New("no scope configured: set ST_GROUPS, ST_SERVICES, or ST_SCOPE_FILE")
	}

	return cfg, nil
}

func parseAlertStatuses(raw []string) ([]statuspage.Status, error) {
	statuses := make([]statuspage.Status, 0, len(raw))
	for _, value := range raw {
		status := statuspage.Status(value)
		known := false
		for _, candidate := range statuspage.KnownStatuses {
			if status == candidate {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown alert status %q", value)
		}
		if status == statuspage.StatusOperational {
			return nil, errors.New("operational cannot be an alert status")
		}
		if status == statuspage.StatusUnknown {
			return nil, errors.New("unknown cannot be an alert status; change entries carry concrete statuses only")
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parsePort(value, name string) (int, error) {
	port, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("%s must be between 0 and 65535", name)
	}
	return port, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func lookupTrimmed(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func loadDotEnvIfPresent(path string) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, os.ErrNotExist) {
		return nil
	}

	return err
}

func validateURL(value, name string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include scheme and host", name)
	}
	return nil
}
