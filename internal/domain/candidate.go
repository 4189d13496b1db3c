package domain

import "time"

// EventCandidate represents one unconfirmed event record from one source,
// normalized at the ingestion boundary, before deduplication.
type EventCandidate struct {
	EventID       string     // deterministic hash, used only as archive key
	Title         string     // required, free text
	Description   string     // optional
	StartDateTime *time.Time // optional, providers may not know the exact date
	VenueName     string     // optional
	VenueAddress  string     // optional
	City          string     // optional geographic hierarchy, each level
	Province      string     // independently optional
	Country       string     //
	Category      string     //
	Price         *float64   // optional
	IsFree        *bool      // optional
	ImageURL      string     // optional
	SourceID      string     // producing provider; diagnostics only, never matched on

	// IsDuplicateHint marks records a source itself flagged as intra-batch
	// duplicates. Hinted candidates never reach the accumulated set, not
	// even as the losing side of a merge.
	IsDuplicateHint bool
}

// Clone returns a deep copy of the candidate.
func (c *EventCandidate) Clone() *EventCandidate {
	if c == nil {
		return nil
	}
	cp := *c
	if c.StartDateTime != nil {
		t := *c.StartDateTime
		cp.StartDateTime = &t
	}
	if c.Price != nil {
		p := *c.Price
		cp.Price = &p
	}
	if c.IsFree != nil {
		f := *c.IsFree
		cp.IsFree = &f
	}
	return &cp
}
