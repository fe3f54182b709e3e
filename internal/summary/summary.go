// Package summary turns a day's analyzed activity records into a narrative
// daily work log and persists it alongside the raw records.
package summary

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/ai"
)

const maxPeriodLines = 5

// SummaryStore is the slice of the store a Generator needs.
type SummaryStore interface {
	QueryByDate(date string) ([]activity.Record, error)
	UpsertSummary(date, text string) error
	GetSummary(date string) (activity.DailySummary, error)
}

// Generator produces and stores daily summaries.
type Generator struct {
	store  SummaryStore
	engine ai.Engine
	log    *zap.Logger
}

// New assembles a Generator.
func New(store SummaryStore, engine ai.Engine, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{store: store, engine: engine, log: log}
}

// Stats are the aggregate figures for one day of analyzed records.
type Stats struct {
	RecordCount int
	Hours       float64
	Categories  map[string]int
	TopApps     []string
}

// DayStats computes the aggregates for a day's records, counting only the
// analyzed ones.
func DayStats(records []activity.Record) Stats {
	analyzed := make([]activity.Record, 0, len(records))
	for _, r := range records {
		if r.Analyzed {
			analyzed = append(analyzed, r)
		}
	}

	appCounts := make(map[string]int)
	for _, r := range analyzed {
		appCounts[r.AppName]++
	}
	apps := make([]string, 0, len(appCounts))
	for app := range appCounts {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool {
		if appCounts[apps[i]] != appCounts[apps[j]] {
			return appCounts[apps[i]] > appCounts[apps[j]]
		}
		return apps[i] < apps[j]
	})
	if len(apps) > 5 {
		apps = apps[:5]
	}

	return Stats{
		RecordCount: len(analyzed),
		Hours:       activity.EstimateHours(analyzed),
		Categories:  activity.CategoryBreakdown(analyzed),
		TopApps:     apps,
	}
}

// Generate builds a summary for date (YYYY-MM-DD), stores it, and returns the
// text. A day without analyzed records yields a placeholder without consulting
// the model.
func (g *Generator) Generate(ctx context.Context, date string) (string, error) {
	records, err := g.store.QueryByDate(date)
	if err != nil {
		return "", fmt.Errorf("loading records for %s: %w", date, err)
	}

	analyzed := make([]activity.Record, 0, len(records))
	for _, r := range records {
		if r.Analyzed {
			analyzed = append(analyzed, r)
		}
	}
	if len(analyzed) == 0 {
		return fmt.Sprintf("No activity recorded on %s.", date), nil
	}

	prompt := buildPrompt(date, analyzed)
	g.log.Info("generating daily summary", zap.String("date", date), zap.Int("records", len(analyzed)))

	text, err := g.engine.Generate(ctx, ai.Request{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("generating summary for %s: %w", date, err)
	}
	text = stripFences(text)
	if text == "" {
		return "", fmt.Errorf("generating summary for %s: empty model output", date)
	}

	if err := g.store.UpsertSummary(date, text); err != nil {
		return "", fmt.Errorf("storing summary for %s: %w", date, err)
	}
	g.log.Info("daily summary stored", zap.String("date", date), zap.Int("length", len(text)))
	return text, nil
}

func buildPrompt(date string, analyzed []activity.Record) string {
	stats := DayStats(analyzed)

	var catLines []string
	type catCount struct {
		name  string
		count int
	}
	cats := make([]catCount, 0, len(stats.Categories))
	for name, count := range stats.Categories {
		cats = append(cats, catCount{name, count})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].count != cats[j].count {
			return cats[i].count > cats[j].count
		}
		return cats[i].name < cats[j].name
	})
	for _, c := range cats {
		pct := float64(c.count) / float64(stats.RecordCount) * 100
		catLines = append(catLines, fmt.Sprintf("  - %s: %d records (%.1f%%)", c.name, c.count, pct))
	}

	morning, afternoon, evening := periodLines(analyzed)

	weekday := date
	if t, err := time.ParseInLocation("2006-01-02", date, time.Local); err == nil {
		weekday = t.Weekday().String()
	}

	var b strings.Builder
	b.WriteString("Write a professional daily work log from the activity records below.\n\n")
	fmt.Fprintf(&b, "Date: %s (%s)\n\n", date, weekday)
	b.WriteString("Work statistics:\n")
	fmt.Fprintf(&b, "- Estimated engaged time: about %.1f hours (%d records)\n", stats.Hours, stats.RecordCount)
	b.WriteString("- Category breakdown:\n")
	b.WriteString(strings.Join(catLines, "\n"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Main tools: %s\n\n", strings.Join(stats.TopApps, ", "))
	b.WriteString("Activity by period:\n\n")
	fmt.Fprintf(&b, "Morning (06:00-12:00):\n%s\n\n", morning)
	fmt.Fprintf(&b, "Afternoon (12:00-18:00):\n%s\n\n", afternoon)
	fmt.Fprintf(&b, "Evening (18:00-24:00):\n%s\n\n", evening)
	b.WriteString("Requirements:\n")
	b.WriteString("1. Write a coherent narrative of 150-250 words, organized by period.\n")
	b.WriteString("2. Merge related activities into coherent work items instead of listing them one by one.\n")
	b.WriteString("3. Highlight the main work, concrete outcomes, and the key tools involved.\n")
	b.WriteString("4. Call out obvious focus blocks or task switches.\n")
	b.WriteString("5. Keep the tone professional but friendly, as if reporting to a colleague.\n")
	b.WriteString("6. Output the log text directly, without a title or extra formatting.\n")
	return b.String()
}

// periodLines formats up to maxPeriodLines entries per period of the day.
// Records before 06:00 are left out, matching the reporting window.
func periodLines(analyzed []activity.Record) (morning, afternoon, evening string) {
	var m, a, e []string
	for _, rec := range analyzed {
		desc := "working"
		if rec.Description != nil && *rec.Description != "" {
			desc = *rec.Description
		}
		line := fmt.Sprintf("  %s - %s", rec.Timestamp.Format("15:04"), desc)
		switch h := rec.Timestamp.Hour(); {
		case h >= 6 && h < 12:
			m = append(m, line)
		case h >= 12 && h < 18:
			a = append(a, line)
		case h >= 18:
			e = append(e, line)
		}
	}
	return joinPeriod(m), joinPeriod(a), joinPeriod(e)
}

func joinPeriod(lines []string) string {
	if len(lines) == 0 {
		return "  (none)"
	}
	if len(lines) > maxPeriodLines {
		lines = lines[:maxPeriodLines]
	}
	return strings.Join(lines, "\n")
}

var fenceRe = regexp.MustCompile("(?s)^```(?:markdown|text)?\\s*|\\s*```$")

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = fenceRe.ReplaceAllString(s, "")
	}
	return strings.TrimSpace(s)
}
