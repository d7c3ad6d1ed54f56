package internal

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config      *Config
	configMutex sync.RWMutex
)

// LoadConfig reads, parses and validates config.json. The only required
// key is rtsp_url; everything else defaults to zero values
// that leave the optional domain-stack collaborators disabled.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, NewError(err, ErrCodeConfig, "ConfigLoader", "LoadConfig").WithContext(filePath)
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		return nil, NewError(err, ErrCodeConfig, "ConfigLoader", "ParseConfig")
	}

	newConfig.LastUpdated = time.Now()
	if newConfig.Version == "" {
		newConfig.Version = ConfigVersion
	}

	if err := ValidateConfig(&newConfig); err != nil {
		return nil, NewError(err, ErrCodeConfig, "ConfigLoader", "ValidateConfig")
	}

	configMutex.Lock()
	config = &newConfig
	configMutex.Unlock()

	return &newConfig, nil
}

// ValidateConfig checks rtsp_url is present and well-formed and splits
// it into server_host/server_port/path, plus sanity-checks
// the optional collaborator settings.
func ValidateConfig(cfg *Config) error {
	if cfg.RTSPURL == "" {
		return fmt.Errorf("rtsp_url is required")
	}

	u, err := url.Parse(cfg.RTSPURL)
	if err != nil {
		return fmt.Errorf("invalid rtsp_url: %w", err)
	}
	if u.Scheme != "rtsp" {
		return fmt.Errorf("rtsp_url must use the rtsp scheme, got %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("rtsp_url is missing a host")
	}

	portStr := u.Port()
	port := 554
	if portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid rtsp_url port: %w", err)
		}
	}

	cfg.ServerHost = host
	cfg.ServerPort = port
	cfg.Path = strings.TrimPrefix(u.Path, "/")

	if cfg.Database.RedisEnabled && cfg.Database.RedisAddr == "" {
		return fmt.Errorf("database.redis_enabled is true but redis_addr is empty")
	}

	return nil
}

// GetConfig returns the most recently loaded configuration.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return config
}

// WatchConfig polls filePath for modifications and hot-swaps the
// in-memory config pointer on change. This probe has no live
// transport settings to re-apply: the forwarder's upstream binding and
// RTSP URL are fixed for the life of the process, so only
// AlertSettings is meaningfully hot-reloadable.
func WatchConfig(filePath string) {
	lastMod := time.Now()

	for {
		time.Sleep(5 * time.Second)

		info, err := os.Stat(filePath)
		if err != nil {
			log.Printf("❌ Error checking config file: %v", err)
			continue
		}

		if info.ModTime().After(lastMod) {
			log.Println("📝 Configuration file changed, reloading...")

			newConfig, err := LoadConfig(filePath)
			if err != nil {
				log.Printf("❌ Failed to reload config: %v", err)
				continue
			}

			lastMod = info.ModTime()
			log.Printf("✅ Configuration reloaded; alert thresholds now loss=%.2f%% jitter=%.2fms rtt=%.2fms",
				newConfig.AlertSettings.PacketLossThreshold,
				newConfig.AlertSettings.JitterThresholdMs,
				newConfig.AlertSettings.RTTThresholdMs)
		}
	}
}
