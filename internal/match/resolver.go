// Package match decides whether two event candidates describe the same
// real-world event, and which of two duplicates is worth keeping.
package match

import (
	"math"
	"strings"

	"event-radar/internal/domain"
	"event-radar/internal/textnorm"
)

// minVenueLen is the minimum normalized venue-name length for the venue
// to be considered discriminating.
const minVenueLen = 3

// Config holds the keyword-overlap thresholds. Both are empirically tuned
// heuristics; treat them as constants to validate against a labeled corpus
// rather than as optimal values.
type Config struct {
	// TitleOverlap is the required share of common keywords, relative to
	// the larger of the two keyword sets, when both records carry a date.
	// The maximum (not minimum) is a deliberately stricter denominator,
	// suppressing false positives between unrelated events that share a
	// few common words.
	TitleOverlap float64

	// TitleOverlapNoDate replaces TitleOverlap when either record lacks a
	// date and title similarity must carry the entire matching burden.
	TitleOverlapNoDate float64
}

// DefaultConfig returns the default matching thresholds.
func DefaultConfig() Config {
	return Config{
		TitleOverlap:       0.75,
		TitleOverlapNoDate: 0.90,
	}
}

// Resolver applies the four duplicate criteria with per-criterion
// vacuous-pass rules: a field absent on either side never vetoes a match,
// but whenever both sides state a value they must agree.
type Resolver struct {
	cfg Config
}

// NewResolver creates a resolver with the given thresholds. Zero-valued
// thresholds fall back to the defaults.
func NewResolver(cfg Config) *Resolver {
	def := DefaultConfig()
	if cfg.TitleOverlap <= 0 {
		cfg.TitleOverlap = def.TitleOverlap
	}
	if cfg.TitleOverlapNoDate <= 0 {
		cfg.TitleOverlapNoDate = def.TitleOverlapNoDate
	}
	return &Resolver{cfg: cfg}
}

// IsDuplicate reports whether a and b represent the same real-world event.
// All four criteria must hold: title keyword overlap, venue, location
// hierarchy, and date.
func (r *Resolver) IsDuplicate(a, b *domain.EventCandidate) bool {
	if a == nil || b == nil {
		return false
	}

	kwA := textnorm.Keywords(a.Title)
	kwB := textnorm.Keywords(b.Title)

	maxw := len(kwA)
	if len(kwB) > maxw {
		maxw = len(kwB)
	}
	if maxw == 0 {
		return false
	}

	common := 0
	for kw := range kwA {
		if _, ok := kwB[kw]; ok {
			common++
		}
	}

	threshold := r.cfg.TitleOverlap
	if a.StartDateTime == nil || b.StartDateTime == nil {
		// No reliable date on one side: title alone carries the match.
		threshold = r.cfg.TitleOverlapNoDate
	} else if !sameCalendarDay(a, b) {
		return false
	}

	if common < int(math.Ceil(float64(maxw)*threshold)) {
		return false
	}

	if !venueMatches(a.VenueName, b.VenueName) {
		return false
	}

	return locationMatches(a, b)
}

// sameCalendarDay compares dates at day granularity. Times of day are
// unreliable across providers.
func sameCalendarDay(a, b *domain.EventCandidate) bool {
	ya, ma, da := a.StartDateTime.UTC().Date()
	yb, mb, db := b.StartDateTime.UTC().Date()
	return ya == yb && ma == mb && da == db
}

// venueMatches passes vacuously when either venue name is absent or too
// short to discriminate; otherwise it requires normalized equality or
// substring containment in either direction.
func venueMatches(a, b string) bool {
	na := textnorm.Normalize(a)
	nb := textnorm.Normalize(b)
	if len(na) < minVenueLen || len(nb) < minVenueLen {
		return true
	}
	return na == nb || strings.Contains(na, nb) || strings.Contains(nb, na)
}

// locationMatches compares country, province and city in that order.
// Providers populate geography at different granularities, so a level is
// compared only when both records state it; absence skips the level.
func locationMatches(a, b *domain.EventCandidate) bool {
	levels := [][2]string{
		{a.Country, b.Country},
		{a.Province, b.Province},
		{a.City, b.City},
	}
	for _, level := range levels {
		na := textnorm.Normalize(level[0])
		nb := textnorm.Normalize(level[1])
		if na == "" || nb == "" {
			continue
		}
		if na != nb {
			return false
		}
	}
	return true
}
