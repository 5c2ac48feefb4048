// Package report folds verification results into summary counts and renders
// them through interchangeable formatters.
package report

import (
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// maxDiscrepancyDetails bounds the detail list so a badly drifted map cannot
// blow up the report.
const maxDiscrepancyDetails = 50

// Counts is one row of the matched/discrepancy/missing breakdown. The three
// outcome counters are mutually exclusive and sum to Total.
type Counts struct {
	Total         int `json:"total"`
	Matched       int `json:"matched"`
	Discrepancies int `json:"discrepancies"`
	Missing       int `json:"missing"`
}

// MapCounts is the per-map breakdown entry.
type MapCounts struct {
	Map string `json:"map"`
	Counts
}

// Discrepancy is one detail record for a marker whose observed position
// disagrees with the canonical one.
type Discrepancy struct {
	UID       string          `json:"uid"`
	Name      string          `json:"name"`
	Map       string          `json:"map"`
	Primary   models.Position `json:"primary"`
	Secondary models.Position `json:"secondary"`
	Distance  float64         `json:"distance"`
}

type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Counts
	ByMap   []MapCounts   `json:"by_map"`
	Details []Discrepancy `json:"discrepancy_details"`
}

// Formatter renders a report to a writer. Formatter choice never affects
// aggregation semantics.
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// Aggregate folds results into totals, a per-map breakdown sorted by map
// name, and a capped discrepancy detail list.
func Aggregate(results []models.VerificationResult) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}

	byMap := make(map[string]*Counts)
	for i := range results {
		res := &results[i]
		mc := byMap[res.Map]
		if mc == nil {
			mc = &Counts{}
			byMap[res.Map] = mc
		}

		r.Total++
		mc.Total++
		switch {
		case res.IsMatch:
			r.Matched++
			mc.Matched++
		case res.Distance != nil:
			r.Discrepancies++
			mc.Discrepancies++
			if len(r.Details) < maxDiscrepancyDetails {
				r.Details = append(r.Details, Discrepancy{
					UID:       res.MarkerUID,
					Name:      res.MarkerName,
					Map:       res.Map,
					Primary:   res.PrimaryPosition,
					Secondary: *res.SecondaryPosition,
					Distance:  *res.Distance,
				})
			}
		default:
			r.Missing++
			mc.Missing++
		}
	}

	names := make([]string, 0, len(byMap))
	for name := range byMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.ByMap = append(r.ByMap, MapCounts{Map: name, Counts: *byMap[name]})
	}
	return r
}
