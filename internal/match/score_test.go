package match

import (
	"testing"
	"time"

	"event-radar/internal/domain"
)

func TestScore_EmptyCandidate(t *testing.T) {
	if got := Score(&domain.EventCandidate{Title: "Algo"}); got != 0 {
		t.Errorf("Expected 0 for bare candidate, got %d", got)
	}
	if got := Score(nil); got != 0 {
		t.Errorf("Expected 0 for nil candidate, got %d", got)
	}
}

func TestScore_AllFields(t *testing.T) {
	price := 1500.0
	start := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)
	c := &domain.EventCandidate{
		Title:         "Festival de Jazz",
		Description:   "Una noche inolvidable de jazz en vivo", // > 20 chars: +3
		ImageURL:      "https://example.com/jazz.jpg",          // +2
		VenueAddress:  "Cerrito 628",                           // +1
		Price:         &price,                                  // > 0: +1
		StartDateTime: &start,                                  // +1
	}

	if got := Score(c); got != 8 {
		t.Errorf("Expected score 8, got %d", got)
	}
}

func TestScore_ShortDescriptionNotCounted(t *testing.T) {
	c := &domain.EventCandidate{Title: "Feria", Description: "short"}
	if got := Score(c); got != 0 {
		t.Errorf("Short description must not score, got %d", got)
	}
}

func TestScore_ZeroPriceNotCounted(t *testing.T) {
	zero := 0.0
	c := &domain.EventCandidate{Title: "Feria", Price: &zero}
	if got := Score(c); got != 0 {
		t.Errorf("Zero price must not score, got %d", got)
	}
}
