package activity

import (
	"strings"
	"time"
)

// MaxContextGap is the largest gap allowed between consecutive records in a
// context window. One gap beyond it truncates everything older, even records
// that would individually be near the reference point.
const MaxContextGap = 24 * time.Hour

// ContextWindow selects the records forming the rolling context for a capture
// at ref. Candidates must be ordered newest-first (as returned by
// store.RecentAnalyzedBefore). The walk tracks the previous timestamp starting
// at ref; the first consecutive gap exceeding MaxContextGap stops inclusion.
// The result is reversed to oldest-first so callers see a natural timeline.
// An empty result is normal, not an error.
func ContextWindow(ref time.Time, newestFirst []Record) []Record {
	var included []Record
	prev := ref
	for _, rec := range newestFirst {
		if prev.Sub(rec.Timestamp) > MaxContextGap {
			break
		}
		included = append(included, rec)
		prev = rec.Timestamp
	}

	// Reverse in place: included is newest-first, consumers want oldest-first.
	for i, j := 0, len(included)-1; i < j; i, j = i+1, j-1 {
		included[i], included[j] = included[j], included[i]
	}
	return included
}

// FormatContext renders an oldest-first context window as prompt-ready lines,
// one "- 15:04: description" entry per record. Records without a description
// are skipped. Returns "" for an empty window.
func FormatContext(oldestFirst []Record) string {
	var sb strings.Builder
	for _, rec := range oldestFirst {
		if rec.Description == nil {
			continue
		}
		sb.WriteString("- ")
		sb.WriteString(rec.Timestamp.Format("15:04"))
		sb.WriteString(": ")
		sb.WriteString(*rec.Description)
		sb.WriteString("\n")
	}
	return sb.String()
}
