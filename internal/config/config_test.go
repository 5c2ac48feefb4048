package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.BaseURL, "https://tarkov-market.com")
	assert.Equal(t, c.DatabasePath, "data/tarkov_markers.db")
	assert.Equal(t, c.UserAgent, "TarkovHelper/1.0")
	assert.Len(t, c.SupportedMaps, 10)
	assert.Equal(t, c.RequestTimeout, 30*time.Second)
	assert.Equal(t, c.RenderTimeout, 60*time.Second)
	assert.Equal(t, c.RenderWait, 3*time.Second)
	assert.Equal(t, c.DefaultTolerance, 5.0)
	assert.Equal(t, c.ScreenshotDir, "verification_screenshots")
	assert.True(t, c.Headless)
}

func TestSupportsMap(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.True(t, c.SupportsMap("woods"))
	assert.True(t, c.SupportsMap("ground-zero"))
	assert.False(t, c.SupportsMap("tarkov"))
	assert.False(t, c.SupportsMap(""))
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_OverlaysOnlyPresentFields(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"base_url":        "http://localhost:9999",
		"database_path":   "test.db",
		"request_timeout": "5s",
		"headless":        false,
	})
	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, "test.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.Headless)
	// untouched fields keep their defaults
	assert.Equal(t, "TarkovHelper/1.0", cfg.UserAgent)
	assert.Equal(t, 5.0, cfg.DefaultTolerance)
	assert.Len(t, cfg.SupportedMaps, 10)
}

func Test_parseFlags_OverridesJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"database_path": "from_json.db",
	})
	os.Args = []string{"testbin", "-config", path, "-d", "from_flag.db", "-v"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)

	assert.Equal(t, "from_flag.db", cfg.DatabasePath)
	assert.True(t, cfg.Verbose)
}
