package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"
)

// healthResponse is the body served by both probe endpoints: a verdict
// plus the latest cycle details from the tracker.
type healthResponse struct {
	Status string `json:"status"`
	Snapshot
}

// HealthHandler serves /healthz. Healthy means the monitor completed a
// cycle within twice the poll interval; a stalled poll loop or a run
// that keeps failing before completion turns the probe unhealthy.
func HealthHandler(tracker *Tracker, pollInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy := tracker.Healthy(time.Now().UTC(), pollInterval)
		writeProbe(w, healthy, tracker)
	}
}

// ReadyHandler serves /readyz. Ready means at least one cycle has
// completed, so the snapshot baseline and component gauges are populated.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeProbe(w, tracker.Ready(), tracker)
	}
}

func writeProbe(w http.ResponseWriter, ok bool, tracker *Tracker) {
	response := healthResponse{
		Status:   "unavailable",
		Snapshot: tracker.Snapshot(),
	}
	status := http.StatusServiceUnavailable
	if ok {
		response.Status = "ok"
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
