package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tarkovsync/internal/flagx"
	"github.com/dmitrijs2005/tarkovsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "30s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	BaseURL          *string         `json:"base_url"`
	DatabasePath     *string         `json:"database_path"`
	UserAgent        *string         `json:"user_agent"`
	SupportedMaps    []string        `json:"supported_maps"`
	RequestTimeout   *timex.Duration `json:"request_timeout"`
	RenderTimeout    *timex.Duration `json:"render_timeout"`
	RenderWait       *timex.Duration `json:"render_wait"`
	DefaultTolerance *float64        `json:"default_tolerance"`
	ScreenshotDir    *string         `json:"screenshot_dir"`
	Headless         *bool           `json:"headless"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Only fields present in the file override the current values, so a partial
// config file is valid. Panics on read or unmarshal errors (caller should
// recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != nil {
		cfg.BaseURL = *jc.BaseURL
	}
	if jc.DatabasePath != nil {
		cfg.DatabasePath = *jc.DatabasePath
	}
	if jc.UserAgent != nil {
		cfg.UserAgent = *jc.UserAgent
	}
	if jc.SupportedMaps != nil {
		cfg.SupportedMaps = jc.SupportedMaps
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RenderTimeout != nil {
		cfg.RenderTimeout = jc.RenderTimeout.Duration
	}
	if jc.RenderWait != nil {
		cfg.RenderWait = jc.RenderWait.Duration
	}
	if jc.DefaultTolerance != nil {
		cfg.DefaultTolerance = *jc.DefaultTolerance
	}
	if jc.ScreenshotDir != nil {
		cfg.ScreenshotDir = *jc.ScreenshotDir
	}
	if jc.Headless != nil {
		cfg.Headless = *jc.Headless
	}
}
