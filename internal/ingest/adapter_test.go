package ingest

import (
	"errors"
	"testing"
)

func TestDecode_CanonicalFields(t *testing.T) {
	price := 1500.0
	raw := &RawCandidate{
		Title:         "Festival de Jazz",
		Description:   "Una noche de jazz en vivo en el teatro",
		StartDateTime: "2025-11-20T21:00:00Z",
		VenueName:     "Teatro Colón",
		VenueAddress:  "Cerrito 628",
		City:          "Buenos Aires",
		Country:       "Argentina",
		Category:      "music",
		Price:         &price,
		ImageURL:      "https://example.com/jazz.jpg",
		SourceID:      "scraper-a",
	}

	c, err := Decode(raw, "frame-source")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if c.Title != "Festival de Jazz" {
		t.Errorf("Title mismatch: %q", c.Title)
	}
	if c.SourceID != "scraper-a" {
		t.Errorf("Explicit source_id must win over the frame source, got %q", c.SourceID)
	}
	if c.StartDateTime == nil || c.StartDateTime.Year() != 2025 {
		t.Errorf("StartDateTime not parsed: %v", c.StartDateTime)
	}
	if c.EventID == "" {
		t.Error("EventID must be computed at the boundary")
	}
}

func TestDecode_Aliases(t *testing.T) {
	raw := &RawCandidate{
		Name:    "Rock en el Parque",
		Venue:   "Anfiteatro Municipal",
		Address: "Av. Costanera 100",
		Date:    "2025-10-05",
		Image:   "https://example.com/rock.jpg",
	}

	c, err := Decode(raw, "scraper-b")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if c.Title != "Rock en el Parque" {
		t.Errorf("name alias not coalesced into title: %q", c.Title)
	}
	if c.VenueName != "Anfiteatro Municipal" {
		t.Errorf("venue alias not coalesced: %q", c.VenueName)
	}
	if c.VenueAddress != "Av. Costanera 100" {
		t.Errorf("address alias not coalesced: %q", c.VenueAddress)
	}
	if c.ImageURL != "https://example.com/rock.jpg" {
		t.Errorf("image alias not coalesced: %q", c.ImageURL)
	}
	if c.SourceID != "scraper-b" {
		t.Errorf("frame source must fill a missing source_id, got %q", c.SourceID)
	}
	if c.StartDateTime == nil || c.StartDateTime.Day() != 5 {
		t.Errorf("date-only timestamp not parsed: %v", c.StartDateTime)
	}
}

func TestDecode_Malformed(t *testing.T) {
	if _, err := Decode(&RawCandidate{SourceID: "scraper-a"}, ""); !errors.Is(err, ErrMalformed) {
		t.Errorf("Missing title must be ErrMalformed, got %v", err)
	}
	if _, err := Decode(&RawCandidate{Title: "Algo"}, ""); !errors.Is(err, ErrMalformed) {
		t.Errorf("Missing source must be ErrMalformed, got %v", err)
	}
	if _, err := Decode(nil, "scraper-a"); !errors.Is(err, ErrMalformed) {
		t.Errorf("nil record must be ErrMalformed, got %v", err)
	}
}

func TestDecode_UnparseableTimestampDegrades(t *testing.T) {
	raw := &RawCandidate{Title: "Feria", Date: "next friday"}

	c, err := Decode(raw, "scraper-a")
	if err != nil {
		t.Fatalf("Unparseable timestamp must not reject the record: %v", err)
	}
	if c.StartDateTime != nil {
		t.Errorf("Expected unknown date, got %v", c.StartDateTime)
	}
}

func TestDecodeBatch_DropsMalformedOnly(t *testing.T) {
	raws := []*RawCandidate{
		{Title: "Feria Artesanal"},
		{},  // no title
		nil, // nil record
		{Name: "Cine al Aire Libre"},
	}

	candidates, dropped := DecodeBatch(raws, "scraper-a")
	if len(candidates) != 2 {
		t.Errorf("Expected 2 decoded candidates, got %d", len(candidates))
	}
	if dropped != 2 {
		t.Errorf("Expected 2 dropped records, got %d", dropped)
	}
}

func TestDecode_DuplicateHint(t *testing.T) {
	hint := true
	raw := &RawCandidate{Title: "Feria", IsDuplicateHint: &hint}

	c, err := Decode(raw, "scraper-a")
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !c.IsDuplicateHint {
		t.Error("Duplicate hint not carried through")
	}
}
