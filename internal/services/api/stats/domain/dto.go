// Package domain holds DTOs for the stats http contracts
package domain

import (
	cdom "docketlens/internal/services/api/comments/domain"
)

// StanceOverview pairs the raw aggregate with its deduplicated twin so a
// single call drives both headline numbers
type StanceOverview struct {
	All     cdom.StanceCounts `json:"all"`
	Deduped cdom.StanceCounts `json:"deduped"`
}

// SeriesResponse is one time-series variant plus the inputs that shaped it
type SeriesResponse struct {
	DateField         string            `json:"date_field"`
	IncludeDuplicates bool              `json:"include_duplicates"`
	Buckets           []cdom.TimeBucket `json:"buckets"`
}
