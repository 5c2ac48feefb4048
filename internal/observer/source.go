// Package observer supplies the secondary position set: marker positions
// observed independently of the API, today by rendering the public map pages
// in a headless browser.
//
// The verifier only depends on the Source interface. Absence or failure of
// the collaborator is always expressed as an empty observed set, so the
// matching algorithm has exactly one branch for "nothing to compare against".
package observer

import (
	"context"

	"github.com/dmitrijs2005/tarkovsync/internal/models"
)

// Point is one observed marker position. UID may be empty when the page
// exposes a position without an identity; such points participate only in
// nearest-neighbor matching.
type Point struct {
	UID      string
	Position models.Position
}

type Source interface {
	// Observe returns every marker position visible on the given map.
	Observe(ctx context.Context, mapName string) ([]Point, error)

	// Locate finds a single marker element by uid on the given map and
	// optionally captures a screenshot, returning its path. A nil Point
	// with nil error means the element was not found on the page.
	Locate(ctx context.Context, mapName, markerUID string, screenshot bool) (*Point, string, error)

	// Close releases the underlying browser, if any.
	Close() error
}
