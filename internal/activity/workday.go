package activity

import (
	"math"
	"sort"
	"time"
)

// MaxBridgeGap is the longest pause between consecutive captures still counted
// as continuous engagement. Longer pauses are treated as breaks and excluded
// entirely rather than capped.
const MaxBridgeGap = 15 * time.Minute

// EstimateHours estimates engaged work time for a set of records by bridging
// adjacent captures: each gap of at most MaxBridgeGap contributes its full
// length, larger gaps contribute nothing. The input need not be sorted. The
// result is in hours, rounded to one decimal place; zero or one record yields
// 0.0.
//
// This deliberately replaces the older record-count-times-interval estimate,
// which overcounted sparse days and undercounted dense ones.
func EstimateHours(records []Record) float64 {
	if len(records) < 2 {
		return 0.0
	}

	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var engaged time.Duration
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
		if gap <= MaxBridgeGap {
			engaged += gap
		}
	}

	return math.Round(engaged.Minutes()/60*10) / 10
}

// CategoryBreakdown counts analyzed records per category. Unanalyzed records
// are ignored.
func CategoryBreakdown(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, rec := range records {
		if !rec.Analyzed || rec.Category == nil {
			continue
		}
		counts[*rec.Category]++
	}
	return counts
}
