package markers

import (
	"context"

	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// MapStat is one row of the per-map/per-category breakdown.
type MapStat struct {
	Map      string
	Category string
	Count    int
	Verified int
}

type Repository interface {
	// Upsert inserts the marker or replaces all source-derived fields of an
	// existing row, advancing synced_at. Verification-owned columns
	// (is_verified, verification_distance) are never touched.
	Upsert(ctx context.Context, m *models.Marker) error

	// ReplaceImages atomically replaces the full image list of a marker.
	// An empty list removes all previously stored images.
	ReplaceImages(ctx context.Context, markerUID string, images []models.MarkerImage) error

	// UpdateVerification writes the verification-owned columns. Only the
	// verification workflow calls this.
	UpdateVerification(ctx context.Context, markerUID string, verified bool, distance *float64) error

	GetByUID(ctx context.Context, uid string) (*models.Marker, error)
	GetImages(ctx context.Context, markerUID string) ([]models.MarkerImage, error)

	CountAll(ctx context.Context) (int, error)
	CountVerified(ctx context.Context) (int, error)
	StatsByMap(ctx context.Context) ([]MapStat, error)
}
