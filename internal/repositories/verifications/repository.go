package verifications

import (
	"context"

	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// Repository is the append-only audit log of verification outcomes. Rows are
// never updated or deduplicated; each run adds its own.
type Repository interface {
	Insert(ctx context.Context, result *models.VerificationResult) error
	GetByMarker(ctx context.Context, markerUID string) ([]models.VerificationResult, error)
}
