package match

import "event-radar/internal/domain"

// Field completeness weights. Description carries the most signal for a
// reader deciding between two records of the same event.
const (
	scoreDescription   = 3
	scoreImage         = 2
	scoreVenueAddress  = 1
	scorePrice         = 1
	scoreStartDateTime = 1

	minDescriptionLen = 20
)

// Score assigns a completeness score to a candidate. Additive, unbounded,
// used only for relative comparison between two records already judged
// duplicates of each other.
func Score(e *domain.EventCandidate) int {
	if e == nil {
		return 0
	}

	score := 0
	if len(e.Description) > minDescriptionLen {
		score += scoreDescription
	}
	if e.ImageURL != "" {
		score += scoreImage
	}
	if e.VenueAddress != "" {
		score += scoreVenueAddress
	}
	if e.Price != nil && *e.Price > 0 {
		score += scorePrice
	}
	if e.StartDateTime != nil {
		score += scoreStartDateTime
	}
	return score
}
