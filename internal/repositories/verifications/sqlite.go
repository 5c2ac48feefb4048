package verifications

import (
	"context"
	"database/sql"
	"fmt"

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

func (r *SQLiteRepository) Insert(ctx context.Context, result *models.VerificationResult) error {
	query := `INSERT INTO verification_results
		(marker_uid, marker_name, map_name, verified_at,
		 api_x, api_y, web_x, web_y, distance, is_match, error, screenshot_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var webX, webY, distance any
	if result.SecondaryPosition != nil {
		webX = result.SecondaryPosition.X
		webY = result.SecondaryPosition.Y
	}
	if result.Distance != nil {
		distance = *result.Distance
	}

	_, err := r.db.ExecContext(ctx, query,
		result.MarkerUID, result.MarkerName, result.Map,
		result.VerifiedAt.UTC().Format("2006-01-02 15:04:05"),
		result.PrimaryPosition.X, result.PrimaryPosition.Y,
		webX, webY, distance, result.IsMatch,
		nullString(result.Error), nullString(result.ScreenshotPath))
	if err != nil {
		return fmt.Errorf("failed to insert verification result: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByMarker(ctx context.Context, markerUID string) ([]models.VerificationResult, error) {
	query := `SELECT marker_uid, marker_name, map_name, verified_at,
			api_x, api_y, web_x, web_y, distance, is_match, error, screenshot_path
		FROM verification_results WHERE marker_uid = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, markerUID)
	if err != nil {
		return nil, fmt.Errorf("failed to select verification results: %w", err)
	}
	defer rows.Close()

	var result []models.VerificationResult
	for rows.Next() {
		var v models.VerificationResult
		var webX, webY, distance sql.NullFloat64
		var errMsg, screenshot sql.NullString
		err := rows.Scan(&v.MarkerUID, &v.MarkerName, &v.Map, &v.VerifiedAt,
			&v.PrimaryPosition.X, &v.PrimaryPosition.Y,
			&webX, &webY, &distance, &v.IsMatch, &errMsg, &screenshot)
		if err != nil {
			return nil, err
		}
		if webX.Valid && webY.Valid {
			v.SecondaryPosition = &models.Position{X: webX.Float64, Y: webY.Float64}
		}
		if distance.Valid {
			d := distance.Float64
			v.Distance = &d
		}
		v.Error = errMsg.String
		v.ScreenshotPath = screenshot.String
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
