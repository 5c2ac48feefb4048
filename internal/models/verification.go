package models

import "time"

// VerificationResult is the outcome of comparing one canonical marker against
// the independently observed position set, at one point in time. Results are
// an append-only audit log; they are never overwritten or deduplicated.
//
// SecondaryPosition and Distance are set whenever a secondary candidate was
// recorded, regardless of whether it passed the match tolerance. Error holds
// a classification string when no candidate could be recorded at all.
type VerificationResult struct {
	MarkerUID         string
	MarkerName        string
	Map               string
	VerifiedAt        time.Time
	PrimaryPosition   Position
	SecondaryPosition *Position
	Distance          *float64
	IsMatch           bool
	Error             string
	ScreenshotPath    string
}
