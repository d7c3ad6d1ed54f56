package internal

import "time"

// Version information
const (
	ConfigVersion = "1.0.0"
)

// DatabaseConfig defines the optional MySQL/Redis collaborators, both
// disabled by default.
type DatabaseConfig struct {
	MySQLDSN             string `json:"mysql_dsn"`
	RedisEnabled         bool   `json:"redis_enabled"`
	RedisAddr            string `json:"redis_addr"`
	RedisCleanupInterval int    `json:"redis_cleanup_interval"`
}

// RTPSettings controls optional debug features layered on the core
// pipeline.
type RTPSettings struct {
	EnablePCAP bool `json:"enable_pcap"`
}

// AlertSettings defines the internal threshold-crossing log thresholds.
// NotifyAdmin/SlackWebhook/PagerDutyKey are accepted for
// config-schema compatibility but intentionally left unwired — see
// DESIGN.md.
type AlertSettings struct {
	PacketLossThreshold float64 `json:"packet_loss_threshold"`
	JitterThresholdMs   float64 `json:"jitter_threshold_ms"`
	RTTThresholdMs      float64 `json:"rtt_threshold_ms"`
	NotifyAdmin         bool    `json:"notify_admin"`
	SlackWebhook        string  `json:"slack_webhook"`
	PagerDutyKey        string  `json:"pagerduty_key"`
}

// SpeechConfig configures the optional Speech-Text.srt writer. Absent
// (zero-value) by default: speech recognition is an external
// collaborator this probe does not implement.
type SpeechConfig struct {
	Enabled bool `json:"enabled"`
}

// Config holds every setting loaded from config.json. RTSPURL is the
// only required key; everything else has a safe zero value.
type Config struct {
	Version       string         `json:"version"`
	LastUpdated   time.Time      `json:"last_updated"`
	RTSPURL       string         `json:"rtsp_url"`
	ServerHost    string         `json:"-"`
	ServerPort    int            `json:"-"`
	Path          string         `json:"-"`
	RTPSettings   RTPSettings    `json:"rtp_settings"`
	AlertSettings AlertSettings  `json:"alert_settings"`
	Database      DatabaseConfig `json:"database"`
	Speech        SpeechConfig   `json:"speech"`
}
