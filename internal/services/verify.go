package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tarkovsync/internal/common"
	"github.com/dmitrijs2005/tarkovsync/internal/config"
	"github.com/dmitrijs2005/tarkovsync/internal/dbx"
	"github.com/dmitrijs2005/tarkovsync/internal/logging"
	"github.com/dmitrijs2005/tarkovsync/internal/models"
	"github.com/dmitrijs2005/tarkovsync/internal/observer"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/markers"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/verifications"
	"github.com/dmitrijs2005/tarkovsync/internal/store"
)

// Error classifications carried in VerificationResult.Error. These strings
// end up in the database and in reports, so they are part of the data
// contract and must stay stable.
const (
	errNoSecondaryData   = "no secondary data"
	errNoMatchingElement = "no matching element found"
	errElementNotFound   = "marker element not found"
)

// VerifyService compares canonical marker positions against an independently
// observed secondary set. Primary sets are fetched lazily per map and cached
// for the lifetime of the service, so a multi-map run hits the source once
// per map.
type VerifyService struct {
	cfg    *config.Config
	log    logging.Logger
	fetch  Fetcher
	source observer.Source
	store  *store.Store

	primary   map[string][]models.Marker
	secondary map[string][]observer.Point
}

func NewVerifyService(cfg *config.Config, log logging.Logger, fetch Fetcher, source observer.Source, st *store.Store) *VerifyService {
	return &VerifyService{
		cfg:       cfg,
		log:       log,
		fetch:     fetch,
		source:    source,
		store:     st,
		primary:   make(map[string][]models.Marker),
		secondary: make(map[string][]observer.Point),
	}
}

func (s *VerifyService) primarySet(ctx context.Context, mapName string) ([]models.Marker, error) {
	if set, ok := s.primary[mapName]; ok {
		return set, nil
	}
	set, err := s.fetch.FetchMarkers(ctx, mapName)
	if err != nil {
		return nil, err
	}
	s.primary[mapName] = set
	return set, nil
}

// secondarySet observes the map through the collaborator. Observation
// failures are not fatal: they degrade to an empty secondary set, which the
// matcher reports uniformly as "no secondary data".
func (s *VerifyService) secondarySet(ctx context.Context, mapName string) []observer.Point {
	if set, ok := s.secondary[mapName]; ok {
		return set
	}
	set, err := s.source.Observe(ctx, mapName)
	if err != nil {
		s.log.Warn(ctx, "secondary observation failed", "map", mapName, "error", err)
		set = nil
	}
	s.secondary[mapName] = set
	return set
}

// Compare runs the matching algorithm for one map. categoryFilter restricts
// which primary entries are considered; the secondary set is never filtered.
func (s *VerifyService) Compare(ctx context.Context, mapName string, tolerance float64, categoryFilter string) ([]models.VerificationResult, error) {
	if !s.cfg.SupportsMap(mapName) {
		return nil, fmt.Errorf("unsupported map: %s", mapName)
	}

	primary, err := s.primarySet(ctx, mapName)
	if err != nil {
		return nil, err
	}
	if categoryFilter != "" {
		filtered := make([]models.Marker, 0, len(primary))
		for _, m := range primary {
			if m.Category == categoryFilter {
				filtered = append(filtered, m)
			}
		}
		primary = filtered
	}

	secondary := s.secondarySet(ctx, mapName)
	results := match(primary, secondary, mapName, tolerance, time.Now().UTC())

	matched, discrepancies, missing := classify(results)
	s.log.Info(ctx, "comparison finished", "map", mapName,
		"total", len(results), "matched", matched, "discrepancies", discrepancies, "missing", missing)
	return results, nil
}

// match is the pure core of the verifier.
//
// Per primary entry: with an empty secondary set every entry reports
// "no secondary data". Otherwise an identity match by uid is tried first;
// failing that, the nearest secondary point is taken if it lies within twice
// the tolerance (search wide), while isMatch always uses the plain tolerance
// (accept strict). Nearest-neighbor ties resolve to the earliest point in
// secondary's slice order, which is deterministic for a given observation.
func match(primary []models.Marker, secondary []observer.Point, mapName string, tolerance float64, now time.Time) []models.VerificationResult {
	results := make([]models.VerificationResult, 0, len(primary))

	if len(secondary) == 0 {
		for _, p := range primary {
			results = append(results, models.VerificationResult{
				MarkerUID:       p.UID,
				MarkerName:      p.Name,
				Map:             mapName,
				VerifiedAt:      now,
				PrimaryPosition: p.Position,
				Error:           errNoSecondaryData,
			})
		}
		return results
	}

	byUID := make(map[string]observer.Point, len(secondary))
	for _, pt := range secondary {
		if pt.UID == "" {
			continue
		}
		if _, exists := byUID[pt.UID]; !exists {
			byUID[pt.UID] = pt
		}
	}

	for _, p := range primary {
		r := models.VerificationResult{
			MarkerUID:       p.UID,
			MarkerName:      p.Name,
			Map:             mapName,
			VerifiedAt:      now,
			PrimaryPosition: p.Position,
		}

		if pt, ok := byUID[p.UID]; ok {
			d := p.Position.DistanceTo(pt.Position)
			pos := pt.Position
			r.SecondaryPosition = &pos
			r.Distance = &d
			r.IsMatch = d <= tolerance
		} else if pt, d, ok := nearest(p.Position, secondary); ok && d <= tolerance*2 {
			pos := pt.Position
			r.SecondaryPosition = &pos
			r.Distance = &d
			r.IsMatch = d <= tolerance
		} else {
			r.Error = errNoMatchingElement
		}

		results = append(results, r)
	}
	return results
}

// nearest returns the secondary point closest to pos. Strictly-less
// comparison keeps the first of equidistant points.
func nearest(pos models.Position, secondary []observer.Point) (observer.Point, float64, bool) {
	var best observer.Point
	bestDist := -1.0
	for _, pt := range secondary {
		d := pos.DistanceTo(pt.Position)
		if bestDist < 0 || d < bestDist {
			best = pt
			bestDist = d
		}
	}
	if bestDist < 0 {
		return observer.Point{}, 0, false
	}
	return best, bestDist, true
}

// classify derives the three mutually exclusive outcome counts.
func classify(results []models.VerificationResult) (matched, discrepancies, missing int) {
	for _, r := range results {
		switch {
		case r.IsMatch:
			matched++
		case r.Distance != nil:
			discrepancies++
		default:
			missing++
		}
	}
	return
}

// VerifySingle locates the map a marker belongs to by scanning the primary
// sets map by map (fetching lazily), then asks the collaborator for the one
// observed position, optionally capturing a screenshot.
func (s *VerifyService) VerifySingle(ctx context.Context, markerUID string, tolerance float64, screenshot bool) (*models.VerificationResult, error) {
	var found *models.Marker
	var foundMap string

	for _, mapName := range s.cfg.SupportedMaps {
		set, err := s.primarySet(ctx, mapName)
		if err != nil {
			s.log.Warn(ctx, "primary fetch failed during scan", "map", mapName, "error", err)
			continue
		}
		for i := range set {
			if set[i].UID == markerUID {
				found = &set[i]
				foundMap = mapName
				break
			}
		}
		if found != nil {
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("marker %s: %w", markerUID, common.ErrorNotFound)
	}

	r := &models.VerificationResult{
		MarkerUID:       found.UID,
		MarkerName:      found.Name,
		Map:             foundMap,
		VerifiedAt:      time.Now().UTC(),
		PrimaryPosition: found.Position,
	}

	pt, shot, err := s.source.Locate(ctx, foundMap, markerUID, screenshot)
	if err != nil {
		return nil, err
	}
	r.ScreenshotPath = shot

	if pt == nil {
		r.Error = errElementNotFound
		return r, nil
	}

	pos := pt.Position
	d := found.Position.DistanceTo(pos)
	r.SecondaryPosition = &pos
	r.Distance = &d
	r.IsMatch = d <= tolerance
	return r, nil
}

// Persist appends the results to the audit log and mirrors the outcome onto
// the marker rows that recorded a distance. Markers absent from the store
// (verified straight from the source before any sync) are skipped silently.
func (s *VerifyService) Persist(ctx context.Context, results []models.VerificationResult) error {
	return dbx.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		vrepo := verifications.NewSQLiteRepository(tx)
		mrepo := markers.NewSQLiteRepository(tx)

		for i := range results {
			r := &results[i]
			if err := vrepo.Insert(ctx, r); err != nil {
				return fmt.Errorf("result for %s: %w", r.MarkerUID, err)
			}
			if r.Distance == nil {
				continue
			}
			err := mrepo.UpdateVerification(ctx, r.MarkerUID, r.IsMatch, r.Distance)
			if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("marker %s: %w", r.MarkerUID, err)
			}
		}
		return nil
	})
}
