// Package domain holds DTOs for the comments http and service contracts
package domain

import "docketlens/internal/core/engine"

// Comment is one public comment row as served to consumers
type Comment struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Comment         string `json:"comment"`
	Organization    string `json:"organization"`
	City            string `json:"city"`
	State           string `json:"state"`
	Category        string `json:"category"`
	Stance          string `json:"stance"`
	Themes          string `json:"themes"`
	PostedDate      string `json:"posted_date"`
	ReceivedDate    string `json:"received_date"`
	LookupID        string `json:"lookup_id"`
	AttachmentCount int    `json:"attachment_count"`
	CreatedAt       string `json:"created_at"`
}

// AsRow exposes the comment to the in-memory engine's path lookups
func (c Comment) AsRow() engine.Row {
	return engine.Row{
		"id":               c.ID,
		"title":            c.Title,
		"comment":          c.Comment,
		"organization":     c.Organization,
		"city":             c.City,
		"state":            c.State,
		"category":         c.Category,
		"stance":           c.Stance,
		"themes":           c.Themes,
		"posted_date":      c.PostedDate,
		"received_date":    c.ReceivedDate,
		"lookup_id":        c.LookupID,
		"attachment_count": c.AttachmentCount,
		"created_at":       c.CreatedAt,
	}
}

// StanceCounts is the 3-way aggregate over a filtered set
type StanceCounts struct {
	Total   int64 `json:"total"`
	For     int64 `json:"for"`
	Against int64 `json:"against"`
	Neutral int64 `json:"neutral"`
}

// Page is one page of comments plus whole-set aggregates
type Page struct {
	Rows          []Comment     `json:"rows"`
	TotalMatching int64         `json:"total_matching"`
	TotalPages    int           `json:"total_pages"`
	Stats         StanceCounts  `json:"stats"`
	DedupedStats  *StanceCounts `json:"deduped_stats,omitempty"`
}

// TimeBucket is one day of stance counts for the charts
type TimeBucket struct {
	Date    string `json:"date"`
	For     int64  `json:"for"`
	Against int64  `json:"against"`
	Neutral int64  `json:"neutral"`
}

// SeriesInput selects one of the four time-series variants
type SeriesInput struct {
	DateField         string `json:"date_field" validate:"omitempty,oneof=posted_date received_date" example:"posted_date"`
	IncludeDuplicates bool   `json:"include_duplicates"`
}

// InvalidateInput names a cache scope to purge after a store write
type InvalidateInput struct {
	Scope string `json:"scope" validate:"omitempty,oneof=rows stats dedupedStats timeseries all" example:"rows"`
}
