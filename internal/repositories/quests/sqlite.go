package quests

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tarkovsync/internal/common"
	"github.com/dmitrijs2005/tarkovsync/internal/dbx"
	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Upsert inserts or replaces a quest. Both unique keys act as replace
// targets: a row under the same uid is updated in place, and a row holding
// the same bsg_id under a different uid is dropped first, so a renamed uid
// never trips the bsg_id constraint.
func (r *SQLiteRepository) Upsert(ctx context.Context, q *models.Quest) error {
	objectivesEN, err := marshalNullable(q.ObjectivesEN)
	if err != nil {
		return fmt.Errorf("failed to marshal objectives_en: %w", err)
	}
	objectivesRU, err := marshalNullable(q.ObjectivesRU)
	if err != nil {
		return fmt.Errorf("failed to marshal objectives_ru: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM quests WHERE bsg_id = ? AND uid <> ?`, q.BsgID, q.UID)
	if err != nil {
		return fmt.Errorf("failed to clear stale quest row: %w", err)
	}

	query := ` INSERT INTO quests (
			uid, bsg_id, name, name_ru, trader, type,
			wiki_url, required_level, required_loyalty_level,
			required_reputation, required_for_kappa, is_active,
			objectives_en, objectives_ru, updated_at, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(uid) DO UPDATE SET
			bsg_id = excluded.bsg_id,
			name = excluded.name,
			name_ru = excluded.name_ru,
			trader = excluded.trader,
			type = excluded.type,
			wiki_url = excluded.wiki_url,
			required_level = excluded.required_level,
			required_loyalty_level = excluded.required_loyalty_level,
			required_reputation = excluded.required_reputation,
			required_for_kappa = excluded.required_for_kappa,
			is_active = excluded.is_active,
			objectives_en = excluded.objectives_en,
			objectives_ru = excluded.objectives_ru,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at
	`
	_, err = r.db.ExecContext(ctx, query,
		q.UID, q.BsgID, q.Name, nullString(q.NameRU), nullString(q.Trader),
		nullString(q.Type), nullString(q.WikiURL),
		nullIntPtr(q.RequiredLevel), nullIntPtr(q.RequiredLoyaltyLevel),
		nullFloatPtr(q.RequiredReputation), q.RequiredForKappa, q.Active,
		objectivesEN, objectivesRU, nullString(q.Updated))
	if err != nil {
		return fmt.Errorf("failed to upsert quest: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByUID(ctx context.Context, uid string) (*models.Quest, error) {
	query := `SELECT uid, bsg_id, name, name_ru, trader, type, wiki_url,
			required_level, required_loyalty_level, required_reputation,
			required_for_kappa, is_active, objectives_en, objectives_ru,
			updated_at, synced_at
		FROM quests WHERE uid = ?`
	row := r.db.QueryRowContext(ctx, query, uid)

	q := &models.Quest{}
	var nameRU, trader, qType, wikiURL, objectivesEN, objectivesRU sql.NullString
	var updated dbx.Text
	var reqLevel, reqLL sql.NullInt64
	var reqRep sql.NullFloat64

	err := row.Scan(&q.UID, &q.BsgID, &q.Name, &nameRU, &trader, &qType, &wikiURL,
		&reqLevel, &reqLL, &reqRep, &q.RequiredForKappa, &q.Active,
		&objectivesEN, &objectivesRU, &updated, &q.SyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	q.NameRU = nameRU.String
	q.Trader = trader.String
	q.Type = qType.String
	q.WikiURL = wikiURL.String
	q.Updated = updated.String
	if reqLevel.Valid {
		v := int(reqLevel.Int64)
		q.RequiredLevel = &v
	}
	if reqLL.Valid {
		v := int(reqLL.Int64)
		q.RequiredLoyaltyLevel = &v
	}
	if reqRep.Valid {
		v := reqRep.Float64
		q.RequiredReputation = &v
	}
	if objectivesEN.Valid && objectivesEN.String != "" {
		if err := json.Unmarshal([]byte(objectivesEN.String), &q.ObjectivesEN); err != nil {
			return nil, fmt.Errorf("failed to unmarshal objectives_en: %w", err)
		}
	}
	if objectivesRU.Valid && objectivesRU.String != "" {
		if err := json.Unmarshal([]byte(objectivesRU.String), &q.ObjectivesRU); err != nil {
			return nil, fmt.Errorf("failed to unmarshal objectives_ru: %w", err)
		}
	}
	return q, nil
}

func (r *SQLiteRepository) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM quests`)
}

func (r *SQLiteRepository) CountKappa(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM quests WHERE required_for_kappa = TRUE`)
}

// MarkerCounts reads the v_quest_marker_counts view.
func (r *SQLiteRepository) MarkerCounts(ctx context.Context) ([]QuestMarkerCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT uid, bsg_id, name, COALESCE(trader, ''), marker_count FROM v_quest_marker_counts ORDER BY marker_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select quest marker counts: %w", err)
	}
	defer rows.Close()

	var result []QuestMarkerCount
	for rows.Next() {
		var c QuestMarkerCount
		if err := rows.Scan(&c.UID, &c.BsgID, &c.Name, &c.Trader, &c.MarkerCount); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) count(ctx context.Context, query string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

func marshalNullable(s []string) (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIntPtr(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func nullFloatPtr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
