// Package models defines the typed entities the rest of the application
// operates on. Raw API records are mapped into these types once, at the
// fetch boundary; downstream components never see untyped maps.
package models

import "time"

// MarkerImage is one image attached to a marker. The full image list of a
// marker is always replaced wholesale on re-sync, never merged.
// The json tags mirror the source field names so the markers.images column
// round-trips in the shape downstream consumers already parse.
type MarkerImage struct {
	URL          string `json:"img"`
	Name         string `json:"name"`
	Description  string `json:"desc"`
	DisplayOrder int    `json:"-"`
}

// Marker is a located point of interest on one map.
//
// Level and QuestUID are optional; nil means the source did not report them.
// Updated carries the source-reported last-modified value verbatim.
// Verified and VerificationDistance are owned by the verification workflow
// and are never written by the sync path.
type Marker struct {
	UID           string
	Map           string
	Category      string
	SubCategory   string
	Name          string
	NameKO        string
	NameRU        string
	Description   string
	DescriptionKO string
	Position      Position
	Level         *int
	QuestUID      *string
	ItemsUID      []string
	Images        []MarkerImage
	Updated       string

	SyncedAt             time.Time
	Verified             bool
	VerificationDistance *float64
}
