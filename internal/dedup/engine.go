// Package dedup folds an accumulated candidate list into a pairwise
// non-duplicate result list, keeping the higher-quality representative of
// every duplicate pair.
package dedup

import (
	"event-radar/internal/domain"
	"event-radar/internal/match"
)

// Engine deduplicates the full accumulated set of one session. Pure and
// synchronous; the Session Manager re-runs it after every incoming batch
// so that a later, higher-quality record can replace an earlier kept one
// regardless of arrival order.
type Engine struct {
	resolver *match.Resolver
}

// NewEngine creates a deduplication engine backed by the given resolver.
func NewEngine(resolver *match.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// Result carries the deduplicated list plus fold statistics.
type Result struct {
	Kept     []*domain.EventCandidate
	Merged   int // duplicate pairs resolved (replaced or discarded)
	Filtered int // candidates excluded by their own source's duplicate hint
}

// Deduplicate folds candidates left to right into a kept list. For each
// candidate the kept list is scanned in order; on the first duplicate
// match the higher-scoring record survives, with replacement happening in
// place so the kept order never changes. First-match-wins is the
// deterministic tie-break if source data ever violates the assumption
// that duplicates form mutually exclusive sets.
//
// Idempotent: running Deduplicate on its own output returns it unchanged.
// O(n²) in the accumulated-set size, acceptable for the low hundreds of
// candidates a session accumulates in practice.
func (e *Engine) Deduplicate(all []*domain.EventCandidate) Result {
	res := Result{Kept: make([]*domain.EventCandidate, 0, len(all))}

	for _, c := range all {
		if c == nil {
			continue
		}
		if c.IsDuplicateHint {
			res.Filtered++
			continue
		}

		matched := false
		for i, kept := range res.Kept {
			if !e.resolver.IsDuplicate(c, kept) {
				continue
			}
			matched = true
			res.Merged++
			if match.Score(c) > match.Score(kept) {
				// Replace in place: a later higher-quality record must not
				// change the relative order of the kept list.
				res.Kept[i] = c
			}
			break
		}

		if !matched {
			res.Kept = append(res.Kept, c)
		}
	}

	return res
}
