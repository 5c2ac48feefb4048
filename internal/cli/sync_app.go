// Package cli implements the flag-driven command surface of the sync and
// verify binaries. Each binary parses its own action flags; shared settings
// (-d, -b, -v) belong to the config package.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/tarkovsync/internal/config"
	"github.com/dmitrijs2005/tarkovsync/internal/flagx"
	"github.com/dmitrijs2005/tarkovsync/internal/logging"
	"github.com/dmitrijs2005/tarkovsync/internal/market"
	"github.com/dmitrijs2005/tarkovsync/internal/services"
	"github.com/dmitrijs2005/tarkovsync/internal/store"
)

// SyncOptions are the action flags of the sync command.
type SyncOptions struct {
	Full       bool
	Map        string
	QuestsOnly bool
	InitDB     bool
	Stats      bool
}

// HasAction reports whether any action flag was given. With no action the
// command prints usage and exits successfully.
func (o *SyncOptions) HasAction() bool {
	return o.Full || o.Map != "" || o.QuestsOnly || o.InitDB || o.Stats
}

var syncFlagNames = []string{"-full", "-map", "-quests-only", "-init-db", "-stats"}

// ParseSyncOptions reads the sync action flags from args. Flags owned by
// other packages are filtered out first so they do not trip the flag set.
func ParseSyncOptions(args []string) (*SyncOptions, error) {
	opts := &SyncOptions{}

	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.BoolVar(&opts.Full, "full", false, "perform full sync of all maps and quests")
	fs.StringVar(&opts.Map, "map", "", "sync a single map only")
	fs.BoolVar(&opts.QuestsOnly, "quests-only", false, "sync quests only")
	fs.BoolVar(&opts.InitDB, "init-db", false, "initialize the database schema")
	fs.BoolVar(&opts.Stats, "stats", false, "show database statistics")

	if err := fs.Parse(flagx.FilterArgs(args, syncFlagNames)); err != nil {
		return nil, err
	}
	return opts, nil
}

// SyncUsage prints the full command surface, including the shared flags.
func SyncUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: sync [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  -full          perform full sync of all maps and quests")
	fmt.Fprintln(w, "  -map name      sync a single map only")
	fmt.Fprintln(w, "  -quests-only   sync quests only")
	fmt.Fprintln(w, "  -init-db       initialize the database schema")
	fmt.Fprintln(w, "  -stats         show database statistics")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -d path        sqlite database file")
	fmt.Fprintln(w, "  -b url         base URL of the remote service")
	fmt.Fprintln(w, "  -c path        JSON config file")
	fmt.Fprintln(w, "  -v             verbose output")
}

// SyncApp wires the sync command's collaborators and dispatches one action.
type SyncApp struct {
	cfg *config.Config
	log logging.Logger
	out io.Writer
}

func NewSyncApp(cfg *config.Config) *SyncApp {
	return &SyncApp{
		cfg: cfg,
		log: logging.NewDefault(cfg.Verbose),
		out: os.Stdout,
	}
}

func (a *SyncApp) Run(ctx context.Context, opts *SyncOptions) error {
	st, err := store.Open(ctx, a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.InitDB {
		// opening the store already applied the schema
		fmt.Fprintln(a.out, "Database initialized successfully")
		return nil
	}

	svc := services.NewSyncService(a.cfg, a.log, market.NewClient(a.cfg, a.log), st)

	switch {
	case opts.Stats:
		return a.printStats(ctx, svc)

	case opts.QuestsOnly:
		count, err := svc.SyncQuests(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Synced %d quests\n", count)

	case opts.Map != "":
		count, err := svc.SyncMarkers(ctx, opts.Map)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Synced %d markers for %s\n", count, opts.Map)

	case opts.Full:
		summary, err := svc.FullSync(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Full sync completed:")
		fmt.Fprintf(a.out, "  Markers: %d\n", summary.Markers)
		fmt.Fprintf(a.out, "  Quests: %d\n", summary.Quests)
		for _, m := range summary.FailedMaps {
			fmt.Fprintf(a.out, "  Failed: %s\n", m)
		}
	}
	return nil
}

func (a *SyncApp) printStats(ctx context.Context, svc *services.SyncService) error {
	stats, err := svc.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "=== Tarkov Markers Database Statistics ===")
	fmt.Fprintln(a.out)
	if v := stats.Metadata["schema_version"]; v != "" {
		fmt.Fprintf(a.out, "Schema Version: %s\n", v)
	}
	fmt.Fprintf(a.out, "Total Markers: %d\n", stats.TotalMarkers)
	fmt.Fprintf(a.out, "Total Quests: %d\n", stats.TotalQuests)
	fmt.Fprintf(a.out, "Kappa Quests: %d\n", stats.KappaQuests)
	fmt.Fprintf(a.out, "Verified Markers: %d\n", stats.VerifiedMarkers)
	last := stats.LastFullSync
	if last == "" {
		last = "Never"
	}
	fmt.Fprintf(a.out, "Last Full Sync: %s\n", last)

	if len(stats.ByMap) > 0 {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Markers by Map and Category:")
		for _, s := range stats.ByMap {
			fmt.Fprintf(a.out, "  %s / %s: %d (%d verified)\n", s.Map, s.Category, s.Count, s.Verified)
		}
	}
	return nil
}
