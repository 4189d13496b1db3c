// Package diagnostics derives human-facing summaries from per-source
// timing and status entries. Purely derived data; candidate content is
// never read here.
package diagnostics

import (
	"fmt"
	"sort"

	"event-radar/internal/domain"
)

// FastestSource returns the source with the lowest first-event latency
// among sources that produced at least one event. Returns empty when no
// source qualifies. Ties break on source ID for deterministic output.
func FastestSource(diags map[string]*domain.SourceDiagnostic) string {
	best := ""
	var bestLatency int64
	for _, id := range sortedIDs(diags) {
		d := diags[id]
		if d.EventsCount == 0 || d.FirstEventLatencyMs == nil {
			continue
		}
		if best == "" || *d.FirstEventLatencyMs < bestLatency {
			best = id
			bestLatency = *d.FirstEventLatencyMs
		}
	}
	return best
}

// SlowestSource returns the succeeded source with the highest total
// latency. Returns empty when no source qualifies.
func SlowestSource(diags map[string]*domain.SourceDiagnostic) string {
	worst := ""
	var worstLatency int64
	for _, id := range sortedIDs(diags) {
		d := diags[id]
		if d.Status != domain.SourceSuccess || d.TotalLatencyMs == nil {
			continue
		}
		if worst == "" || *d.TotalLatencyMs > worstLatency {
			worst = id
			worstLatency = *d.TotalLatencyMs
		}
	}
	return worst
}

// Summary renders the overall session outcome, computed exactly once when
// the session completes: how many sources returned results out of how many
// responded, and the total deduplicated event count.
func Summary(diags map[string]*domain.SourceDiagnostic, totalEvents int) string {
	returned := 0
	for _, d := range diags {
		if d.Status == domain.SourceSuccess && d.EventsCount > 0 {
			returned++
		}
	}
	return fmt.Sprintf("%d/%d sources returned results - %d total events",
		returned, len(diags), totalEvents)
}

// Succeeded counts sources that reached SUCCESS, with or without results.
func Succeeded(diags map[string]*domain.SourceDiagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Status == domain.SourceSuccess {
			n++
		}
	}
	return n
}

// sortedIDs returns the diagnostic keys in deterministic order.
func sortedIDs(diags map[string]*domain.SourceDiagnostic) []string {
	ids := make([]string, 0, len(diags))
	for id := range diags {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
