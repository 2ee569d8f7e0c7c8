package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nholik/status-sentry/internal/diff"
	"github.com/nholik/status-sentry/internal/statuspage"
	"github.com/rs/zerolog"
)

func TestBuildSlackMessagesSingle(t *testing.T) {
	changes := diff.ChangeSet{
		Broken:   makeEntries(2, statuspage.StatusMajorOutage),
		Resolved: makeEntries(1, statuspage.StatusOperational),
	}

	messages := buildSlackMessages(changes)
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	msg := messages[0]
	if !strings.Contains(msg.Text, "2 component(s) with issues") {
		t.Fatalf("expected summary to include broken count, got %q", msg.Text)
	}
	if !strings.Contains(msg.Text, "1 component(s) recovered") {
		t.Fatalf("expected summary to include resolved count, got %q", msg.Text)
	}
	if msg.Blocks == nil {
		t.Fatalf("expected blocks to be set")
	}
	if len(msg.Blocks.BlockSet) != slackReservedBlocks+3 {
		t.Fatalf("expected %d blocks, got %d", slackReservedBlocks+3, len(msg.Blocks.BlockSet))
	}
}

func TestBuildSlackMessagesChunking(t *testing.T) {
	total := slackMaxEntries*2 + 3
	changes := diff.ChangeSet{Broken: makeEntries(total, statuspage.StatusMajorOutage)}

	messages := buildSlackMessages(changes)
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}

	for i, msg := range messages {
		if msg.Blocks == nil {
			t.Fatalf("message %d missing blocks", i)
		}
		if len(msg.Blocks.BlockSet) > slackMaxBlocks {
			t.Fatalf("message %d exceeds block limit: %d", i, len(msg.Blocks.BlockSet))
		}
		if !strings.Contains(msg.Text, fmt.Sprintf("part %d/3", i+1)) {
			t.Fatalf("message %d missing part marker: %q", i, msg.Text)
		}
	}
}

func TestSlackNotifierSkipsEmptyChangeSet(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewSlackNotifier(zerolog.Nop(), server.URL)
	if err := notifier.Notify(context.Background(), diff.ChangeSet{}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 0 {
		t.Fatalf("expected no delivery for empty change-set, got %d calls", got)
	}
}

func TestSlackNotifierRetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&calls, 1)
		if count <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	logger := zerolog.New(io.Discard)
	notifier := NewSlackNotifier(logger, server.URL,
		WithSlackTiming(time.Millisecond, 1, 5*time.Millisecond, 10*time.Millisecond, 50*time.Millisecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	changes := diff.ChangeSet{Broken: makeEntries(1, statuspage.StatusMajorOutage)}
	if err := notifier.Notify(ctx, changes); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestSlackNotifierRetryAfterError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	logger := zerolog.New(io.Discard)
	notifier := NewSlackNotifier(logger, server.URL,
		WithSlackTiming(time.Millisecond, 1, time.Millisecond, 2*time.Millisecond, 20*time.Millisecond),
	)
	slackNotifier, ok := notifier.(*SlackNotifier)
	if !ok {
		t.Fatalf("expected SlackNotifier, got %T", notifier)
	}

	err := slackNotifier.postOnce(context.Background(), []byte(`{}`))
	var retryAfterErr *retryAfterError
	if !errors.As(err, &retryAfterErr) {
		t.Fatalf("expected retry-after error, got %v", err)
	}
	if retryAfterErr.Duration != time.Second {
		t.Fatalf("expected 1s retry-after, got %s", retryAfterErr.Duration)
	}
}

func TestSlackNotifierPersistentRateLimitGivesUp(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	logger := zerolog.New(io.Discard)
	notifier := NewSlackNotifier(logger, server.URL,
		// Retry-After of 1s exceeds the 20ms elapsed budget.
		WithSlackTiming(time.Millisecond, 1, time.Millisecond, 2*time.Millisecond, 20*time.Millisecond),
	)

	changes := diff.ChangeSet{Broken: makeEntries(1, statuspage.StatusMajorOutage)}

	start := time.Now()
	err := notifier.Notify(context.Background(), changes)
	if err == nil {
		t.Fatal("expected error when rate limiting never clears")
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected delivery to give up after 1 attempt, got %d", got)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("expected fast give-up, took %s", elapsed)
	}
}

func TestSlackNotifierClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid_payload"))
	}))
	defer server.Close()

	logger := zerolog.New(io.Discard)
	notifier := NewSlackNotifier(logger, server.URL,
		WithSlackTiming(time.Millisecond, 1, time.Millisecond, 2*time.Millisecond, 20*time.Millisecond),
	)

	changes := diff.ChangeSet{Broken: makeEntries(1, statuspage.StatusMajorOutage)}
	err := notifier.Notify(context.Background(), changes)
	if err == nil {
		t.Fatalf("expected error for 400 response, got nil")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected error to contain status code, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_payload") {
		t.Fatalf("expected error to contain response body, got %v", err)
	}
	// 4xx errors should not be retried
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected exactly 1 call (no retries for 4xx), got %d", got)
	}
}

func TestSlackNotifierContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	logger := zerolog.New(io.Discard)
	notifier := NewSlackNotifier(logger, server.URL,
		WithSlackTiming(time.Millisecond, 1, 100*time.Millisecond, 200*time.Millisecond, 1*time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	changes := diff.ChangeSet{Broken: makeEntries(1, statuspage.StatusMajorOutage)}
	err := notifier.Notify(ctx, changes)
	if err == nil {
		t.Fatalf("expected context cancellation error, got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled error, got %v", err)
	}
}

func makeEntries(count int, status statuspage.Status) []diff.Entry {
	entries := make([]diff.Entry, count)
	for i := 0; i < count; i++ {
		previous := statuspage.StatusOperational
		if status == statuspage.StatusOperational {
			previous = statuspage.StatusMajorOutage
		}
		entries[i] = diff.Entry{
			ID:         fmt.Sprintf("cmp-%02d", i+1),
			Name:       fmt.Sprintf("Region %02d", i+1),
			GroupLabel: "Africa",
			Previous:   previous,
			Current:    status,
		}
	}
	return entries
}
