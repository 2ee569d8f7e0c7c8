package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nholik/status-sentry/internal/diff"
	"github.com/nholik/status-sentry/internal/statuspage"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

const (
	slackMaxBlocks = 50
	// slackReservedBlocks accounts for the header and context block in each message
	slackReservedBlocks = 2
	slackMaxEntries     = slackMaxBlocks - slackReservedBlocks
)

type SlackNotifier struct {
	logger     zerolog.Logger
	webhookURL string
	timing     timingConfig
	poster     *httpPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger:     logger,
		webhookURL: webhookURL,
		timing:     defaultTiming,
	}

	for _, opt := range opts {
		opt(notifier)
	}

	notifier.poster = newHTTPPoster(logger, "slack", webhookURL, "application/json", "", notifier.timing)

	return notifier
}

// Notify implements Notifier. Empty change-sets are skipped entirely.
func (n *SlackNotifier) Notify(ctx context.Context, changes diff.ChangeSet) error {
	if !changes.HasChanges() {
		return nil
	}
	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	messages := buildSlackMessages(changes.SortedByName())
	for _, message := range messages {
		payload, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("marshal slack payload: %w", err)
		}
		if err := n.poster.postWithRetry(ctx, payload); err != nil {
			return err
		}
	}

	n.logger.Debug().
		Int("broken", len(changes.Broken)).
		Int("resolved", len(changes.Resolved)).
		Int("messages", len(messages)).
		Msg("slack notification sent")

	return nil
}

func (n *SlackNotifier) postOnce(ctx context.Context, payload []byte) error {
	return n.poster.postOnce(ctx, payload)
}

func buildSlackMessages(changes diff.ChangeSet) []slack.WebhookMessage {
	entries := make([]diff.Entry, 0, len(changes.Broken)+len(changes.Resolved))
	entries = append(entries, changes.Broken...)
	entries = append(entries, changes.Resolved...)
	if len(entries) == 0 {
		return nil
	}

	total := len(entries)
	chunkTotal := (total + slackMaxEntries - 1) / slackMaxEntries
	messages := make([]slack.WebhookMessage, 0, chunkTotal)

	for i := 0; i < total; i += slackMaxEntries {
		end := i + slackMaxEntries
		if end > total {
			end = total
		}
		partIndex := (i / slackMaxEntries) + 1
		messages = append(messages, buildSlackMessage(changes, entries[i:end], partIndex, chunkTotal))
	}
	return messages
}

func buildSlackMessage(changes diff.ChangeSet, entries []diff.Entry, partIndex, partTotal int) slack.WebhookMessage {
	summary := summaryLine(changes)
	if partTotal > 1 {
		summary = fmt.Sprintf("%s (part %d/%d)", summary, partIndex, partTotal)
	}

	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", "Status Page Update", false, false))
	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", summary, false, false),
	}
	if partTotal > 1 {
		contextElements = append(contextElements, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Batch: %d/%d", partIndex, partTotal), false, false))
	}
	contextBlock := slack.NewContextBlock("", contextElements...)

	blocks := []slack.Block{header, contextBlock}
	for _, entry := range entries {
		blocks = append(blocks, buildEntryBlock(entry))
	}

	blockSet := slack.Blocks{BlockSet: blocks}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func summaryLine(changes diff.ChangeSet) string {
	parts := make([]string, 0, 2)
	if len(changes.Broken) > 0 {
		parts = append(parts, fmt.Sprintf("%d component(s) with issues", len(changes.Broken)))
	}
	if len(changes.Resolved) > 0 {
		parts = append(parts, fmt.Sprintf("%d component(s) recovered", len(changes.Resolved)))
	}
	return strings.Join(parts, ", ")
}

func buildEntryBlock(entry diff.Entry) slack.Block {
	var title string
	switch {
	case entry.Current == statuspage.StatusOperational:
		title = fmt.Sprintf(":white_check_mark: *%s* recovered: `%s` → `%s`",
			entry.Name, statusLabel(entry.Previous), statusLabel(entry.Current))
	case entry.Maintenance:
		title = fmt.Sprintf(":wrench: *%s* under maintenance: `%s` → `%s`",
			entry.Name, statusLabel(entry.Previous), statusLabel(entry.Current))
	default:
		title = fmt.Sprintf(":warning: *%s*: `%s` → `%s`",
			entry.Name, statusLabel(entry.Previous), statusLabel(entry.Current))
	}
	text := slack.NewTextBlockObject("mrkdwn", title, false, false)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", "*Group:*\n"+entry.GroupLabel, false, false),
	}

	return slack.NewSectionBlock(text, fields, nil)
}

func statusLabel(status statuspage.Status) string {
	if status == "" {
		return "unknown"
	}
	return strings.ReplaceAll(string(status), "_", " ")
}
