package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigValidRTSPURL(t *testing.T) {
	path := writeConfigFile(t, `{"rtsp_url": "rtsp://camera.local:8554/stream1"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "camera.local", cfg.ServerHost)
	assert.Equal(t, 8554, cfg.ServerPort)
	assert.Equal(t, "stream1", cfg.Path)
	assert.Equal(t, ConfigVersion, cfg.Version)
}

func TestLoadConfigDefaultsPortWhenOmitted(t *testing.T) {
	path := writeConfigFile(t, `{"rtsp_url": "rtsp://camera.local/stream1"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 554, cfg.ServerPort)
}

func TestLoadConfigMissingRTSPURL(t *testing.T) {
	path := writeConfigFile(t, `{}`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsNonRTSPScheme(t *testing.T) {
	path := writeConfigFile(t, `{"rtsp_url": "http://camera.local/stream1"}`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRedisEnabledRequiresAddr(t *testing.T) {
	path := writeConfigFile(t, `{"rtsp_url": "rtsp://camera.local/stream1", "database": {"redis_enabled": true}}`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}
