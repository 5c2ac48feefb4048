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
	"github.com/dmitrijs2005/tarkovsync/internal/models"
	"github.com/dmitrijs2005/tarkovsync/internal/observer"
	"github.com/dmitrijs2005/tarkovsync/internal/report"
	"github.com/dmitrijs2005/tarkovsync/internal/services"
	"github.com/dmitrijs2005/tarkovsync/internal/store"
)

// VerifyOptions are the action flags of the verify command.
type VerifyOptions struct {
	Map        string
	All        bool
	MarkerID   string
	Category   string
	Tolerance  float64
	Report     string
	SaveDB     bool
	Screenshot bool
}

func (o *VerifyOptions) HasAction() bool {
	return o.Map != "" || o.All || o.MarkerID != ""
}

var verifyFlagNames = []string{
	"-map", "-all", "-marker-id", "-category",
	"-tolerance", "-report", "-save-db", "-screenshot",
}

func ParseVerifyOptions(cfg *config.Config, args []string) (*VerifyOptions, error) {
	opts := &VerifyOptions{}

	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.StringVar(&opts.Map, "map", "", "map to verify")
	fs.BoolVar(&opts.All, "all", false, "verify all supported maps")
	fs.StringVar(&opts.MarkerID, "marker-id", "", "verify a single marker by uid")
	fs.StringVar(&opts.Category, "category", "", "restrict verification to one marker category")
	fs.Float64Var(&opts.Tolerance, "tolerance", cfg.DefaultTolerance, "position tolerance in map units")
	fs.StringVar(&opts.Report, "report", "json", "report format: json, csv or text")
	fs.BoolVar(&opts.SaveDB, "save-db", false, "persist results to the database")
	fs.BoolVar(&opts.Screenshot, "screenshot", false, "capture a screenshot (single marker only)")

	if err := fs.Parse(flagx.FilterArgs(args, verifyFlagNames)); err != nil {
		return nil, err
	}
	return opts, nil
}

func VerifyUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: verify [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Actions:")
	fmt.Fprintln(w, "  -map name        verify a single map")
	fmt.Fprintln(w, "  -all             verify all supported maps")
	fmt.Fprintln(w, "  -marker-id uid   verify a single marker")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  -category name   restrict verification to one marker category")
	fmt.Fprintln(w, "  -tolerance n     position tolerance in map units")
	fmt.Fprintln(w, "  -report format   report format: json, csv or text")
	fmt.Fprintln(w, "  -save-db         persist results to the database")
	fmt.Fprintln(w, "  -screenshot      capture a screenshot (single marker only)")
	fmt.Fprintln(w, "  -d path          sqlite database file")
	fmt.Fprintln(w, "  -b url           base URL of the remote service")
	fmt.Fprintln(w, "  -c path          JSON config file")
	fmt.Fprintln(w, "  -v               verbose output")
}

// VerifyApp wires the verify command's collaborators and dispatches one
// action. The secondary source is constructed once and passed down, so the
// matcher sees collaborator absence only as an empty observed set.
type VerifyApp struct {
	cfg *config.Config
	log logging.Logger
	out io.Writer
}

func NewVerifyApp(cfg *config.Config) *VerifyApp {
	return &VerifyApp{
		cfg: cfg,
		log: logging.NewDefault(cfg.Verbose),
		out: os.Stdout,
	}
}

func (a *VerifyApp) Run(ctx context.Context, opts *VerifyOptions) error {
	st, err := store.Open(ctx, a.cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	source := observer.NewRodSource(a.cfg, a.log)
	defer source.Close()

	svc := services.NewVerifyService(a.cfg, a.log, market.NewClient(a.cfg, a.log), source, st)

	if opts.MarkerID != "" {
		return a.runSingle(ctx, svc, opts)
	}

	maps := []string{opts.Map}
	if opts.All {
		maps = a.cfg.SupportedMaps
	}

	var results []models.VerificationResult
	for _, mapName := range maps {
		rs, err := svc.Compare(ctx, mapName, opts.Tolerance, opts.Category)
		if err != nil {
			a.log.Error(ctx, "verification failed", "map", mapName, "error", err)
			continue
		}
		results = append(results, rs...)
	}

	rep := report.Aggregate(results)
	writeSummary(a.out, rep)

	path, err := a.writeReport(rep, opts.Report)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Report generated: %s\n", path)

	if opts.SaveDB {
		if err := svc.Persist(ctx, results); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved %d results to %s\n", len(results), a.cfg.DatabasePath)
	}
	return nil
}

func (a *VerifyApp) runSingle(ctx context.Context, svc *services.VerifyService, opts *VerifyOptions) error {
	r, err := svc.VerifySingle(ctx, opts.MarkerID, opts.Tolerance, opts.Screenshot)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Verification Result:")
	fmt.Fprintf(a.out, "  Marker: %s\n", r.MarkerName)
	fmt.Fprintf(a.out, "  Map: %s\n", r.Map)
	fmt.Fprintf(a.out, "  API Position: (%.2f, %.2f)\n", r.PrimaryPosition.X, r.PrimaryPosition.Y)
	if r.SecondaryPosition != nil {
		fmt.Fprintf(a.out, "  Web Position: (%.2f, %.2f)\n", r.SecondaryPosition.X, r.SecondaryPosition.Y)
		fmt.Fprintf(a.out, "  Distance: %.2f\n", *r.Distance)
		match := "No"
		if r.IsMatch {
			match = "Yes"
		}
		fmt.Fprintf(a.out, "  Match: %s\n", match)
	}
	if r.Error != "" {
		fmt.Fprintf(a.out, "  Error: %s\n", r.Error)
	}
	if r.ScreenshotPath != "" {
		fmt.Fprintf(a.out, "  Screenshot: %s\n", r.ScreenshotPath)
	}

	if opts.SaveDB {
		return svc.Persist(ctx, []models.VerificationResult{*r})
	}
	return nil
}

// writeSummary prints the aggregate counts every run reports, independent of
// the chosen report format.
func writeSummary(w io.Writer, rep *report.Report) {
	fmt.Fprintf(w, "Summary: %d/%d matched, %d discrepancies, %d missing\n",
		rep.Matched, rep.Total, rep.Discrepancies, rep.Missing)
}

// writeReport writes the rendered report into the working directory, named
// by format.
func (a *VerifyApp) writeReport(rep *report.Report, format string) (string, error) {
	path := "verification_report." + reportExt(format)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := report.NewFormatter(format).Format(f, rep); err != nil {
		return "", err
	}
	return path, nil
}

func reportExt(format string) string {
	switch format {
	case "csv":
		return "csv"
	case "text":
		return "txt"
	default:
		return "json"
	}
}
