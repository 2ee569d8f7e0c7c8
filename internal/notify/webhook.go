package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/nholik/status-sentry/internal/diff"
	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"broken":{{ toJson .Broken }},"resolved":{{ toJson .Resolved }},"generated_at":"{{ .GeneratedAt.Format "2006-01-02T15:04:05Z07:00" }}"}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Broken      []diff.Entry
	Resolved    []diff.Entry
	GeneratedAt time.Time
}

// WebhookNotifier sends change-sets to a generic incident webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
}

// NewWebhookNotifier creates a webhook notifier with the provided template.
// The bearer token is optional and sent as an Authorization header.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL, bearerToken, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster(logger, "webhook", webhookURL, "application/json", bearerToken, defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, changes diff.ChangeSet) error {
	if n == nil || !changes.HasChanges() {
		return nil
	}

	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	payload := WebhookPayload{
		Broken:      changes.Broken,
		Resolved:    changes.Resolved,
		GeneratedAt: time.Now().UTC(),
	}
	if payload.Broken == nil {
		payload.Broken = []diff.Entry{}
	}
	if payload.Resolved == nil {
		payload.Resolved = []diff.Entry{}
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}

	if err := n.poster.postWithRetry(ctx, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Int("broken", len(changes.Broken)).
		Int("resolved", len(changes.Resolved)).
		Msg("webhook notification sent")

	return nil
}
