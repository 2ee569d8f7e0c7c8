package healthcheck

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlerHealthy(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordCycle(150*time.Millisecond, 12)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker, 5*time.Second)
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "ok" {
		t.Fatalf("expected ok verdict, got %q", payload.Status)
	}
	if payload.LastCycleTime == nil {
		t.Fatalf("expected last cycle time to be set")
	}
	if payload.ComponentsChecked != 12 {
		t.Fatalf("expected components checked 12, got %d", payload.ComponentsChecked)
	}
	if payload.CycleDurationMS != 150 {
		t.Fatalf("expected duration 150ms, got %d", payload.CycleDurationMS)
	}
}

func TestHealthHandlerUnhealthyWhenStale(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordCycle(10*time.Millisecond, 1)
	tracker.lastCycle = time.Now().Add(-10 * time.Second)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler := HealthHandler(tracker, 3*time.Second)
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var payload healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "unavailable" {
		t.Fatalf("expected unavailable verdict, got %q", payload.Status)
	}
	// The stale cycle details are still reported for debugging.
	if payload.LastCycleTime == nil {
		t.Fatalf("expected last cycle time to be set")
	}
}

func TestReadyHandler(t *testing.T) {
	tracker := NewTracker()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	ReadyHandler(tracker)(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before first cycle, got %d", rec.Code)
	}

	tracker.RecordCycle(time.Millisecond, 1)

	rec = httptest.NewRecorder()
	ReadyHandler(tracker)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after first cycle, got %d", rec.Code)
	}
}

func TestNilTrackerIsUnhealthy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	HealthHandler(nil, time.Second)(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for nil tracker, got %d", rec.Code)
	}
}
