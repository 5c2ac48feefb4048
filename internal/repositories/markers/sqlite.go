package markers

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

// Upsert inserts or replaces a marker by uid. On conflict only the
// source-derived columns are updated; is_verified and verification_distance
// stay as the verification workflow left them.
func (r *SQLiteRepository) Upsert(ctx context.Context, m *models.Marker) error {
	itemsUID, err := marshalNullable(m.ItemsUID)
	if err != nil {
		return fmt.Errorf("failed to marshal items_uid: %w", err)
	}
	images, err := marshalNullable(m.Images)
	if err != nil {
		return fmt.Errorf("failed to marshal images: %w", err)
	}

	query := ` INSERT INTO markers (
			uid, map, category, sub_category,
			name, name_ko, name_ru, description, description_ko,
			geometry_x, geometry_y, level, quest_uid,
			items_uid, images, updated_at, synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(uid) DO UPDATE SET
			map = excluded.map,
			category = excluded.category,
			sub_category = excluded.sub_category,
			name = excluded.name,
			name_ko = excluded.name_ko,
			name_ru = excluded.name_ru,
			description = excluded.description,
			description_ko = excluded.description_ko,
			geometry_x = excluded.geometry_x,
			geometry_y = excluded.geometry_y,
			level = excluded.level,
			quest_uid = excluded.quest_uid,
			items_uid = excluded.items_uid,
			images = excluded.images,
			updated_at = excluded.updated_at,
			synced_at = excluded.synced_at
	`
	_, err = r.db.ExecContext(ctx, query,
		m.UID, m.Map, m.Category, nullString(m.SubCategory),
		m.Name, nullString(m.NameKO), nullString(m.NameRU),
		nullString(m.Description), nullString(m.DescriptionKO),
		m.Position.X, m.Position.Y, nullIntPtr(m.Level), nullStringPtr(m.QuestUID),
		itemsUID, images, nullString(m.Updated))
	if err != nil {
		return fmt.Errorf("failed to upsert marker: %w", err)
	}
	return nil
}

// ReplaceImages deletes all stored images of a marker and inserts the new
// list in order. Full replace, not a merge: the source always supplies the
// complete current image set.
func (r *SQLiteRepository) ReplaceImages(ctx context.Context, markerUID string, images []models.MarkerImage) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM marker_images WHERE marker_uid = ?`, markerUID); err != nil {
		return fmt.Errorf("failed to clear marker images: %w", err)
	}

	query := `INSERT INTO marker_images (marker_uid, image_url, image_name, image_description, display_order)
		VALUES (?, ?, ?, ?, ?)`
	for i, img := range images {
		_, err := r.db.ExecContext(ctx, query,
			markerUID, img.URL, nullString(img.Name), nullString(img.Description), i)
		if err != nil {
			return fmt.Errorf("failed to insert marker image: %w", err)
		}
	}
	return nil
}

// UpdateVerification writes the verification-owned columns for one marker.
func (r *SQLiteRepository) UpdateVerification(ctx context.Context, markerUID string, verified bool, distance *float64) error {
	query := `UPDATE markers SET is_verified = ?, verification_distance = ? WHERE uid = ?`
	res, err := r.db.ExecContext(ctx, query, verified, nullFloatPtr(distance), markerUID)
	if err != nil {
		return fmt.Errorf("failed to update verification state: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetByUID(ctx context.Context, uid string) (*models.Marker, error) {
	query := `SELECT uid, map, category, sub_category, name, name_ko, name_ru,
			description, description_ko, geometry_x, geometry_y, level, quest_uid,
			items_uid, updated_at, synced_at, is_verified, verification_distance
		FROM markers WHERE uid = ?`
	row := r.db.QueryRowContext(ctx, query, uid)

	m := &models.Marker{}
	var subCategory, nameKO, nameRU, description, descriptionKO, questUID, itemsUID sql.NullString
	var updated dbx.Text
	var level sql.NullInt64
	var distance sql.NullFloat64

	err := row.Scan(&m.UID, &m.Map, &m.Category, &subCategory, &m.Name, &nameKO, &nameRU,
		&description, &descriptionKO, &m.Position.X, &m.Position.Y, &level, &questUID,
		&itemsUID, &updated, &m.SyncedAt, &m.Verified, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}

	m.SubCategory = subCategory.String
	m.NameKO = nameKO.String
	m.NameRU = nameRU.String
	m.Description = description.String
	m.DescriptionKO = descriptionKO.String
	m.Updated = updated.String
	if level.Valid {
		v := int(level.Int64)
		m.Level = &v
	}
	if questUID.Valid {
		v := questUID.String
		m.QuestUID = &v
	}
	if distance.Valid {
		v := distance.Float64
		m.VerificationDistance = &v
	}
	if itemsUID.Valid && itemsUID.String != "" {
		if err := json.Unmarshal([]byte(itemsUID.String), &m.ItemsUID); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items_uid: %w", err)
		}
	}
	return m, nil
}

func (r *SQLiteRepository) GetImages(ctx context.Context, markerUID string) ([]models.MarkerImage, error) {
	query := `SELECT image_url, image_name, image_description, display_order
		FROM marker_images WHERE marker_uid = ? ORDER BY display_order`
	rows, err := r.db.QueryContext(ctx, query, markerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to select marker images: %w", err)
	}
	defer rows.Close()

	var result []models.MarkerImage
	for rows.Next() {
		var img models.MarkerImage
		var name, description sql.NullString
		if err := rows.Scan(&img.URL, &name, &description, &img.DisplayOrder); err != nil {
			return nil, err
		}
		img.Name = name.String
		img.Description = description.String
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) CountAll(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM markers`)
}

func (r *SQLiteRepository) CountVerified(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM markers WHERE is_verified = TRUE`)
}

// StatsByMap reads the v_map_marker_stats view.
func (r *SQLiteRepository) StatsByMap(ctx context.Context) ([]MapStat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT map, category, count, verified_count FROM v_map_marker_stats ORDER BY map, category`)
	if err != nil {
		return nil, fmt.Errorf("failed to select map stats: %w", err)
	}
	defer rows.Close()

	var result []MapStat
	for rows.Next() {
		var s MapStat
		if err := rows.Scan(&s.Map, &s.Category, &s.Count, &s.Verified); err != nil {
			return nil, err
		}
		result = append(result, s)
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

// marshalNullable serializes a slice as a JSON array, or NULL when empty,
// matching what downstream consumers of the sqlite file expect.
func marshalNullable(v any) (any, error) {
	switch s := v.(type) {
	case []string:
		if len(s) == 0 {
			return nil, nil
		}
	case []models.MarkerImage:
		if len(s) == 0 {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
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

func nullStringPtr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
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
