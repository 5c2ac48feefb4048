package quests

import (
	"context"

	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// QuestMarkerCount is one row of the per-quest marker count view.
type QuestMarkerCount struct {
	UID         string
	BsgID       string
	Name        string
	Trader      string
	MarkerCount int
}

type Repository interface {
	// Upsert inserts the quest or replaces all source-derived fields of an
	// existing row (keyed by uid), advancing synced_at. bsg_id stays unique.
	Upsert(ctx context.Context, q *models.Quest) error

	GetByUID(ctx context.Context, uid string) (*models.Quest, error)

	CountAll(ctx context.Context) (int, error)
	CountKappa(ctx context.Context) (int, error)
	MarkerCounts(ctx context.Context) ([]QuestMarkerCount, error)
}
