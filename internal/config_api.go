package internal

import (
	"encoding/json"
	"net/http"
)

// statusProvider is set by the supervisor once the pipeline is wired up
// so StatusHandler can report live stream/track state without an
// import cycle back into main.
var statusProvider func() any

// SetStatusProvider registers the function StatusHandler calls to build
// its response body.
func SetStatusProvider(fn func() any) {
	statusProvider = fn
}

// StatusHandler serves, read-only, whatever the registered status
// provider returns; the supervisor's provider reports the Stream-info
// record, the latest RTT and the recent alerts, and includes no
// per-track report. It never accepts writes back into the
// running config: this probe's configuration is a file watched for
// changes, not a service config mutable over HTTP.
func StatusHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var payload any
	if statusProvider != nil {
		payload = statusProvider()
	} else {
		payload = map[string]string{"status": "not ready"}
	}

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode status", http.StatusInternalServerError)
	}
}

// SetupRoutes registers the probe's read-only HTTP endpoints.
func SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", StatusHandler)
	return mux
}
