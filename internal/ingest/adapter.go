// Package ingest normalizes raw provider payloads into the canonical
// candidate shape before any matching logic runs. Providers use
// inconsistent field names for the same concepts; aliasing is resolved
// here, at the boundary, and nowhere else.
package ingest

import (
	"errors"
	"strings"
	"time"

	"event-radar/internal/domain"
	"event-radar/internal/idhash"
)

// ErrMalformed is returned for candidates missing a title or source ID.
// Malformed records are a data-quality issue from an external collaborator
// and are dropped without affecting the rest of the batch.
var ErrMalformed = errors.New("malformed candidate: missing title or source id")

// timestampLayouts are tried in order when parsing provider timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RawCandidate mirrors the loosely-structured JSON shape providers emit.
// Alias fields carry the same concept under a different name; Decode
// coalesces them, preferring the canonical name.
type RawCandidate struct {
	Title string `json:"title"`
	Name  string `json:"name"` // alias for title

	Description string `json:"description"`
	Summary     string `json:"summary"` // alias for description

	StartDateTime string `json:"start_datetime"`
	DateTime      string `json:"datetime"` // alias
	Date          string `json:"date"`     // alias, usually date-only

	VenueName string `json:"venue_name"`
	Venue     string `json:"venue"` // alias

	VenueAddress string `json:"venue_address"`
	Address      string `json:"address"` // alias

	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
	Category string `json:"category"`

	Price  *float64 `json:"price"`
	IsFree *bool    `json:"is_free"`

	ImageURL string `json:"image_url"`
	Image    string `json:"image"` // alias

	SourceID        string `json:"source_id"`
	IsDuplicateHint *bool  `json:"is_duplicate_hint"`
}

// Decode converts a raw candidate into the canonical domain shape.
// Returns ErrMalformed when the record lacks a title or a source ID.
// An unparseable timestamp degrades to "date unknown" rather than
// rejecting the record.
func Decode(raw *RawCandidate, sourceID string) (*domain.EventCandidate, error) {
	if raw == nil {
		return nil, ErrMalformed
	}

	title := strings.TrimSpace(coalesce(raw.Title, raw.Name))
	src := strings.TrimSpace(coalesce(raw.SourceID, sourceID))
	if title == "" || src == "" {
		return nil, ErrMalformed
	}

	c := &domain.EventCandidate{
		Title:        title,
		Description:  strings.TrimSpace(coalesce(raw.Description, raw.Summary)),
		VenueName:    strings.TrimSpace(coalesce(raw.VenueName, raw.Venue)),
		VenueAddress: strings.TrimSpace(coalesce(raw.VenueAddress, raw.Address)),
		City:         strings.TrimSpace(raw.City),
		Province:     strings.TrimSpace(raw.Province),
		Country:      strings.TrimSpace(raw.Country),
		Category:     strings.TrimSpace(raw.Category),
		Price:        raw.Price,
		IsFree:       raw.IsFree,
		ImageURL:     strings.TrimSpace(coalesce(raw.ImageURL, raw.Image)),
		SourceID:     src,
	}
	if raw.IsDuplicateHint != nil {
		c.IsDuplicateHint = *raw.IsDuplicateHint
	}

	if ts := coalesce(raw.StartDateTime, raw.DateTime, raw.Date); ts != "" {
		if parsed, ok := parseTimestamp(ts); ok {
			c.StartDateTime = &parsed
		}
	}

	c.EventID = idhash.ComputeEventID(c.SourceID, c.Title, c.VenueName, c.City, c.StartDateTime)
	return c, nil
}

// DecodeBatch converts a raw batch, dropping malformed records silently.
// Returns the decoded candidates and the number of records dropped.
func DecodeBatch(raws []*RawCandidate, sourceID string) ([]*domain.EventCandidate, int) {
	candidates := make([]*domain.EventCandidate, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		c, err := Decode(raw, sourceID)
		if err != nil {
			dropped++
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, dropped
}

// coalesce returns the first non-blank value.
func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseTimestamp tries the known provider layouts.
func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
