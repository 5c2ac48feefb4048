package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/tarkovsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   path to the sqlite database file (default from Config)
//	-b string   base URL of the remote service (default from Config)
//	-v          verbose output
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so command-level action flags (e.g. -map, -full)
// parsed elsewhere do not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-b", "-v"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the sqlite database file")
	fs.StringVar(&cfg.BaseURL, "b", cfg.BaseURL, "base URL of the remote service")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose output")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
