// Package services holds the two workflows the commands drive: syncing the
// remote source into the local database and verifying stored positions
// against an independently observed set.
package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/tarkovsync/internal/config"
	"github.com/dmitrijs2005/tarkovsync/internal/dbx"
	"github.com/dmitrijs2005/tarkovsync/internal/logging"
	"github.com/dmitrijs2005/tarkovsync/internal/models"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/markers"
	"github.com/dmitrijs2005/tarkovsync/internal/repositories/quests"
	"github.com/dmitrijs2005/tarkovsync/internal/store"
)

// Fetcher is the remote-source surface the sync workflow needs.
type Fetcher interface {
	FetchMarkers(ctx context.Context, mapName string) ([]models.Marker, error)
	FetchQuests(ctx context.Context) ([]models.Quest, error)
}

// SyncSummary reports what a full sync accomplished. FailedMaps lists maps
// whose fetch or write failed; the run still covers every other map.
type SyncSummary struct {
	Markers      int
	Quests       int
	MarkersByMap map[string]int
	FailedMaps   []string
}

// Stats is the read-side snapshot of the database. Metadata carries the full
// sync bookkeeping (schema version, last sync time, aggregate counts).
type Stats struct {
	TotalMarkers    int
	VerifiedMarkers int
	TotalQuests     int
	KappaQuests     int
	ByMap           []markers.MapStat
	Metadata        map[string]string
	LastFullSync    string
}

type SyncService struct {
	cfg     *config.Config
	log     logging.Logger
	fetcher Fetcher
	store   *store.Store
}

func NewSyncService(cfg *config.Config, log logging.Logger, fetcher Fetcher, st *store.Store) *SyncService {
	return &SyncService{cfg: cfg, log: log, fetcher: fetcher, store: st}
}

// SyncMarkers fetches one map's markers and writes them in a single
// transaction, so a partially failed write never leaves a half-updated map.
// Markers that disappeared from the source are kept: the database is an
// accumulating record, not a mirror.
func (s *SyncService) SyncMarkers(ctx context.Context, mapName string) (int, error) {
	if !s.cfg.SupportsMap(mapName) {
		return 0, fmt.Errorf("unsupported map: %s", mapName)
	}

	items, err := s.fetcher.FetchMarkers(ctx, mapName)
	if err != nil {
		return 0, err
	}

	err = dbx.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := markers.NewSQLiteRepository(tx)
		for i := range items {
			m := &items[i]
			if err := repo.Upsert(ctx, m); err != nil {
				return fmt.Errorf("marker %s: %w", m.UID, err)
			}
			if err := repo.ReplaceImages(ctx, m.UID, m.Images); err != nil {
				return fmt.Errorf("marker %s images: %w", m.UID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("syncing markers for %s: %w", mapName, err)
	}

	s.log.Info(ctx, "markers synced", "map", mapName, "count", len(items))
	return len(items), nil
}

// SyncQuests fetches the global quest list and upserts it in one transaction.
func (s *SyncService) SyncQuests(ctx context.Context) (int, error) {
	items, err := s.fetcher.FetchQuests(ctx)
	if err != nil {
		return 0, err
	}

	err = dbx.WithTx(ctx, s.store.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := quests.NewSQLiteRepository(tx)
		for i := range items {
			if err := repo.Upsert(ctx, &items[i]); err != nil {
				return fmt.Errorf("quest %s: %w", items[i].UID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("syncing quests: %w", err)
	}

	s.log.Info(ctx, "quests synced", "count", len(items))
	return len(items), nil
}

// FullSync runs a marker sync for every supported map plus a quest sync.
// One failing map never aborts the run; it is recorded in the summary and
// the remaining maps still sync. Afterwards the bookkeeping keys
// last_full_sync, total_markers and total_quests are updated.
func (s *SyncService) FullSync(ctx context.Context, maps []string) (*SyncSummary, error) {
	if len(maps) == 0 {
		maps = s.cfg.SupportedMaps
	}

	summary := &SyncSummary{MarkersByMap: make(map[string]int, len(maps))}

	for _, mapName := range maps {
		count, err := s.SyncMarkers(ctx, mapName)
		if err != nil {
			s.log.Error(ctx, "map sync failed", "map", mapName, "error", err)
			summary.FailedMaps = append(summary.FailedMaps, mapName)
			continue
		}
		summary.MarkersByMap[mapName] = count
		summary.Markers += count
	}

	questCount, err := s.SyncQuests(ctx)
	if err != nil {
		s.log.Error(ctx, "quest sync failed", "error", err)
	} else {
		summary.Quests = questCount
	}

	meta := s.store.Repos.Metadata
	if err := meta.Set(ctx, "last_full_sync", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return summary, err
	}
	if err := meta.Set(ctx, "total_markers", strconv.Itoa(summary.Markers)); err != nil {
		return summary, err
	}
	if err := meta.Set(ctx, "total_quests", strconv.Itoa(summary.Quests)); err != nil {
		return summary, err
	}

	s.log.Info(ctx, "full sync completed",
		"markers", summary.Markers, "quests", summary.Quests, "failed_maps", len(summary.FailedMaps))
	return summary, nil
}

// Stats assembles the read-side snapshot shown by the stats command.
func (s *SyncService) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	var err error

	if st.TotalMarkers, err = s.store.Repos.Markers.CountAll(ctx); err != nil {
		return nil, err
	}
	if st.VerifiedMarkers, err = s.store.Repos.Markers.CountVerified(ctx); err != nil {
		return nil, err
	}
	if st.TotalQuests, err = s.store.Repos.Quests.CountAll(ctx); err != nil {
		return nil, err
	}
	if st.KappaQuests, err = s.store.Repos.Quests.CountKappa(ctx); err != nil {
		return nil, err
	}
	if st.ByMap, err = s.store.Repos.Markers.StatsByMap(ctx); err != nil {
		return nil, err
	}

	if st.Metadata, err = s.store.Repos.Metadata.List(ctx); err != nil {
		return nil, err
	}
	st.LastFullSync = st.Metadata["last_full_sync"]
	return st, nil
}
