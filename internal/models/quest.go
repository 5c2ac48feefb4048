package models

import "time"

// Quest is a mission definition, optionally referenced by markers via
// Marker.QuestUID. BsgID is a secondary unique business key.
type Quest struct {
	UID                  string
	BsgID                string
	Name                 string
	NameRU               string
	Trader               string
	Type                 string
	WikiURL              string
	RequiredLevel        *int
	RequiredLoyaltyLevel *int
	RequiredReputation   *float64
	RequiredForKappa     bool
	Active               bool
	ObjectivesEN         []string
	ObjectivesRU         []string
	Updated              string

	SyncedAt time.Time
}
