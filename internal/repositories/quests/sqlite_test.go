package quests

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tarkovsync/internal/migrations"
	"github.com/dmitrijs2005/tarkovsync/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Run(context.Background(), db))
	return db
}

func intPtr(v int) *int { return &v }

func sampleQuest() *models.Quest {
	rep := 0.02
	return &models.Quest{
		UID:                  "q1",
		BsgID:                "bsg-1",
		Name:                 "Debut",
		NameRU:               "Дебют",
		Trader:               "Prapor",
		Type:                 "elimination",
		WikiURL:              "https://wiki/debut",
		RequiredLevel:        intPtr(1),
		RequiredLoyaltyLevel: intPtr(1),
		RequiredReputation:   &rep,
		RequiredForKappa:     true,
		Active:               true,
		ObjectivesEN:         []string{"Kill 5 scavs"},
		ObjectivesRU:         []string{"Убить 5 диких"},
		Updated:              "2025-11-02T00:00:00Z",
	}
}

func TestUpsert_InsertThenReplace(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sampleQuest()))

	q2 := sampleQuest()
	q2.Name = "Debut (reworked)"
	q2.RequiredForKappa = false
	q2.ObjectivesEN = []string{"Kill 10 scavs", "Hand over two shotguns"}
	require.NoError(t, r.Upsert(ctx, q2))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM quests`).Scan(&count))
	assert.Equal(t, 1, count)

	got, err := r.GetByUID(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, "Debut (reworked)", got.Name)
	assert.False(t, got.RequiredForKappa)
	assert.Equal(t, []string{"Kill 10 scavs", "Hand over two shotguns"}, got.ObjectivesEN)
	require.NotNil(t, got.RequiredLevel)
	assert.Equal(t, 1, *got.RequiredLevel)
}

func TestUpsert_ReplacesByBsgID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sampleQuest()))

	// the source renamed the uid but kept the bsg_id: the old row is
	// replaced, not rejected by the unique constraint
	renamed := sampleQuest()
	renamed.UID = "q2"
	renamed.Name = "Debut (renumbered)"
	require.NoError(t, r.Upsert(ctx, renamed))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM quests`).Scan(&count))
	assert.Equal(t, 1, count)

	_, err := r.GetByUID(ctx, "q1")
	require.Error(t, err)

	got, err := r.GetByUID(ctx, "q2")
	require.NoError(t, err)
	assert.Equal(t, "bsg-1", got.BsgID)
	assert.Equal(t, "Debut (renumbered)", got.Name)
}

func TestCounts(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sampleQuest()))

	q2 := sampleQuest()
	q2.UID = "q2"
	q2.BsgID = "bsg-2"
	q2.RequiredForKappa = false
	require.NoError(t, r.Upsert(ctx, q2))

	total, err := r.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	kappa, err := r.CountKappa(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, kappa)
}

func TestMarkerCounts_UsesView(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Upsert(ctx, sampleQuest()))

	_, err := db.Exec(`INSERT INTO markers (uid, map, category, name, geometry_x, geometry_y, quest_uid)
		VALUES ('m1', 'woods', 'Quests', 'a', 0, 0, 'q1'),
		       ('m2', 'woods', 'Quests', 'b', 1, 1, 'q1'),
		       ('m3', 'woods', 'Loot', 'c', 2, 2, NULL)`)
	require.NoError(t, err)

	counts, err := r.MarkerCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, "q1", counts[0].UID)
	assert.Equal(t, "Prapor", counts[0].Trader)
	assert.Equal(t, 2, counts[0].MarkerCount)
}

func TestGetByUID_NotFound(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	_, err := r.GetByUID(context.Background(), "missing")
	require.Error(t, err)
}
