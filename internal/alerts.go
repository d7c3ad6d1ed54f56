package internal

import (
	"log"
	"sync"
	"time"
)

// Alert records one threshold crossing detected by the Net Analyzer.
// These are internal log lines surfaced through the status API, not
// an external notification channel: AlertSettings.NotifyAdmin,
// SlackWebhook and PagerDutyKey are accepted for config compatibility
// but nothing in this package dispatches to them (see DESIGN.md).
type Alert struct {
	Timestamp   time.Time `json:"timestamp"`
	Track       string    `json:"track"`
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Description string    `json:"description"`
}

var (
	alertMu      sync.RWMutex
	recentAlerts []Alert
)

const maxRetainedAlerts = 50

// CheckNetworkAlerts compares one Net Analyzer report against the
// configured thresholds and records a threshold-crossing alert for
// each metric that exceeds its limit.
func CheckNetworkAlerts(track string, lossPct, jitterMs, rttMs float64, cfg AlertSettings) {
	if cfg.PacketLossThreshold > 0 && lossPct > cfg.PacketLossThreshold {
		recordAlert(track, "packet_loss", lossPct, cfg.PacketLossThreshold,
			"packet loss exceeded configured threshold")
	}
	if cfg.JitterThresholdMs > 0 && jitterMs > cfg.JitterThresholdMs {
		recordAlert(track, "jitter", jitterMs, cfg.JitterThresholdMs,
			"jitter exceeded configured threshold")
	}
	if cfg.RTTThresholdMs > 0 && rttMs > cfg.RTTThresholdMs && rttMs < 999.0 {
		recordAlert(track, "rtt", rttMs, cfg.RTTThresholdMs,
			"round-trip time exceeded configured threshold")
	}
}

func recordAlert(track, metric string, value, threshold float64, description string) {
	alert := Alert{
		Timestamp:   time.Now(),
		Track:       track,
		Metric:      metric,
		Value:       value,
		Threshold:   threshold,
		Description: description,
	}

	alertMu.Lock()
	recentAlerts = append(recentAlerts, alert)
	if len(recentAlerts) > maxRetainedAlerts {
		recentAlerts = recentAlerts[len(recentAlerts)-maxRetainedAlerts:]
	}
	alertMu.Unlock()

	log.Printf("⚠️ ALERT [%s/%s] value=%.2f threshold=%.2f: %s",
		track, metric, value, threshold, description)
}

// GetRecentAlerts returns a snapshot of the most recently recorded
// alerts, newest last. Consumed by the status API.
func GetRecentAlerts() []Alert {
	alertMu.RLock()
	defer alertMu.RUnlock()
	out := make([]Alert, len(recentAlerts))
	copy(out, recentAlerts)
	return out
}
