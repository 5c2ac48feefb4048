package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"
)

// NewFormatter maps a format name to its formatter. Unknown names fall back
// to JSON, the machine-readable default.
func NewFormatter(name string) Formatter {
	switch name {
	case "csv":
		return CSVFormatter{}
	case "text":
		return TextFormatter{}
	default:
		return JSONFormatter{}
	}
}

// JSONFormatter emits the report as an indented JSON document.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// CSVFormatter emits one row per discrepancy detail, suitable for loading
// into a spreadsheet. Summary counts are not part of the CSV surface.
type CSVFormatter struct{}

func (CSVFormatter) Format(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	header := []string{"uid", "name", "map", "primary_x", "primary_y", "secondary_x", "secondary_y", "distance"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, d := range r.Details {
		row := []string{
			d.UID, d.Name, d.Map,
			formatFloat(d.Primary.X), formatFloat(d.Primary.Y),
			formatFloat(d.Secondary.X), formatFloat(d.Secondary.Y),
			formatFloat(d.Distance),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// TextFormatter emits a human-readable summary with aligned columns.
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, r *Report) error {
	if _, err := fmt.Fprintf(w, "Verification report %s (%s)\n\n", r.RunID, r.GeneratedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total:         %d\n", r.Total)
	fmt.Fprintf(w, "Matched:       %d\n", r.Matched)
	fmt.Fprintf(w, "Discrepancies: %d\n", r.Discrepancies)
	fmt.Fprintf(w, "Missing:       %d\n", r.Missing)

	if len(r.ByMap) > 0 {
		fmt.Fprintln(w, "\nBy map:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MAP\tTOTAL\tMATCHED\tDISCREPANCIES\tMISSING")
		for _, mc := range r.ByMap {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n",
				mc.Map, mc.Total, mc.Matched, mc.Discrepancies, mc.Missing)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.Details) > 0 {
		fmt.Fprintln(w, "\nDiscrepancies:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MARKER\tMAP\tPRIMARY\tSECONDARY\tDISTANCE")
		for _, d := range r.Details {
			fmt.Fprintf(tw, "%s\t%s\t(%.2f, %.2f)\t(%.2f, %.2f)\t%.2f\n",
				d.Name, d.Map, d.Primary.X, d.Primary.Y, d.Secondary.X, d.Secondary.Y, d.Distance)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
