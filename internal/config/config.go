// Package config handles configuration for the tarkovsync commands,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings shared by the sync and verify commands.
//
// Fields:
//   - BaseURL: scheme://host of the Tarkov Market service.
//   - DatabasePath: path of the sqlite file other applications consume.
//   - UserAgent: client identification sent on every request.
//   - SupportedMaps: map identifiers a full sync / full verify iterates over.
//   - RequestTimeout: wall-clock timeout per API request.
//   - RenderTimeout / RenderWait: page-load timeout and post-load settle delay
//     for the browser-based secondary source.
//   - DefaultTolerance: maximum distance (map coordinate units) at which two
//     positions are considered the same point.
//   - ScreenshotDir: directory (relative to cwd) for single-marker screenshots.
//   - Headless: run the secondary-source browser without a window.
type Config struct {
	BaseURL          string
	DatabasePath     string
	UserAgent        string
	SupportedMaps    []string
	RequestTimeout   time.Duration
	RenderTimeout    time.Duration
	RenderWait       time.Duration
	DefaultTolerance float64
	ScreenshotDir    string
	Headless         bool
	Verbose          bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://tarkov-market.com"
	c.DatabasePath = "data/tarkov_markers.db"
	c.UserAgent = "TarkovHelper/1.0"
	c.SupportedMaps = []string{
		"customs", "factory", "interchange", "labs", "lighthouse",
		"reserve", "shoreline", "streets", "woods", "ground-zero",
	}
	c.RequestTimeout = 30 * time.Second
	c.RenderTimeout = 60 * time.Second
	c.RenderWait = 3 * time.Second
	c.DefaultTolerance = 5.0
	c.ScreenshotDir = "verification_screenshots"
	c.Headless = true
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// SupportsMap reports whether mapName is one of the configured map identifiers.
func (c *Config) SupportsMap(mapName string) bool {
	for _, m := range c.SupportedMaps {
		if m == mapName {
			return true
		}
	}
	return false
}
