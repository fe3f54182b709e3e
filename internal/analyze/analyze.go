// Package analyze turns captured screenshots into categorized activity
// descriptions via the AI engine, and owns the screenshot's end of life: a
// successfully analyzed screenshot is deleted, a lost one is written off.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/ai"
)

// DefaultContextSize is how many prior analyzed records are offered to the
// model as rolling context.
const DefaultContextSize = 5

// RecordStore is the slice of the store the analyzer needs.
type RecordStore interface {
	GetRecord(id int64) (activity.Record, error)
	MarkAnalyzed(id int64, category, description string, confidence int) error
	RecentAnalyzedBefore(ref time.Time, limit int) ([]activity.Record, error)
	Unanalyzed(limit int) ([]activity.Record, error)
}

// Analyzer analyzes persisted activity records.
type Analyzer struct {
	store           RecordStore
	engine          ai.Engine
	log             *zap.Logger
	contextSize     int
	keepScreenshots bool
}

// SetContextSize bounds how many prior records feed each analysis prompt.
func (a *Analyzer) SetContextSize(n int) {
	if n > 0 {
		a.contextSize = n
	}
}

// SetKeepScreenshots disables deletion of screenshots after analysis.
func (a *Analyzer) SetKeepScreenshots(keep bool) {
	a.keepScreenshots = keep
}

// New assembles an Analyzer.
func New(store RecordStore, engine ai.Engine, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		store:       store,
		engine:      engine,
		log:         log,
		contextSize: DefaultContextSize,
	}
}

// result is the JSON shape the model is asked to return.
type result struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Confidence  *int   `json:"confidence"`
}

// Analyze processes one record: reads its screenshot, builds the rolling
// context, asks the model for a categorized description, stores the result,
// and deletes the screenshot.
//
// Failure disposition: a missing screenshot is terminal; the record is
// marked analyzed with sentinel values and never retried. A model or parse
// failure leaves the record unanalyzed; only an explicit Sweep retries it.
// An already-analyzed record is a no-op.
func (a *Analyzer) Analyze(ctx context.Context, recordID int64) error {
	rec, err := a.store.GetRecord(recordID)
	if err != nil {
		return fmt.Errorf("loading record %d: %w", recordID, err)
	}
	if rec.Analyzed {
		return nil
	}

	img, err := os.ReadFile(rec.ScreenshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			a.log.Warn("screenshot lost before analysis",
				zap.Int64("id", recordID),
				zap.String("path", rec.ScreenshotPath))
			if markErr := a.store.MarkAnalyzed(recordID, activity.CategoryOther, "screenshot file lost before analysis", 0); markErr != nil {
				return fmt.Errorf("writing off lost screenshot for record %d: %w", recordID, markErr)
			}
			return fmt.Errorf("screenshot missing for record %d: %w", recordID, err)
		}
		return fmt.Errorf("reading screenshot for record %d: %w", recordID, err)
	}

	contextText, err := a.buildContext(rec)
	if err != nil {
		// Context is an enrichment, not a requirement.
		a.log.Warn("building context failed; analyzing without it", zap.Error(err))
		contextText = ""
	}

	out, err := a.engine.Generate(ctx, ai.Request{
		Prompt:   buildPrompt(rec, contextText),
		ImagePNG: img,
	})
	if err != nil {
		return fmt.Errorf("analyzing record %d: %w", recordID, err)
	}

	res, err := parseResult(out)
	if err != nil {
		return fmt.Errorf("parsing analysis of record %d: %w", recordID, err)
	}

	if err := a.store.MarkAnalyzed(recordID, res.Category, res.Description, *res.Confidence); err != nil {
		return fmt.Errorf("storing analysis of record %d: %w", recordID, err)
	}

	if a.keepScreenshots {
		return nil
	}
	// The screenshot has served its purpose; removal is best-effort.
	if err := os.Remove(rec.ScreenshotPath); err != nil && !os.IsNotExist(err) {
		a.log.Warn("deleting analyzed screenshot failed",
			zap.String("path", rec.ScreenshotPath),
			zap.Error(err))
	}

	return nil
}

// Sweep analyzes up to limit backlogged records, continuing past individual
// failures. Returns how many were successfully analyzed.
func (a *Analyzer) Sweep(ctx context.Context, limit int) (int, error) {
	backlog, err := a.store.Unanalyzed(limit)
	if err != nil {
		return 0, fmt.Errorf("loading backlog: %w", err)
	}

	analyzed := 0
	for _, rec := range backlog {
		if err := a.Analyze(ctx, rec.ID); err != nil {
			a.log.Warn("backlog analysis failed", zap.Int64("id", rec.ID), zap.Error(err))
			continue
		}
		analyzed++
	}
	return analyzed, nil
}

// buildContext renders the rolling context window preceding rec.
func (a *Analyzer) buildContext(rec activity.Record) (string, error) {
	candidates, err := a.store.RecentAnalyzedBefore(rec.Timestamp, a.contextSize)
	if err != nil {
		return "", err
	}
	window := activity.ContextWindow(rec.Timestamp, candidates)
	return activity.FormatContext(window), nil
}

func buildPrompt(rec activity.Record, contextText string) string {
	if contextText == "" {
		contextText = "(no prior records)"
	}

	var sb strings.Builder
	sb.WriteString("You are analyzing a full-desktop screenshot to identify what the user is working on.\n\n")
	sb.WriteString("The image may span several monitors; consider all of them, not just the active window.\n\n")
	sb.WriteString("Current foreground window:\n")
	fmt.Fprintf(&sb, "- Application: %s\n", rec.AppName)
	fmt.Fprintf(&sb, "- Title: %s\n", rec.WindowTitle)
	fmt.Fprintf(&sb, "- Time: %s\n\n", rec.Timestamp.Format("15:04"))
	sb.WriteString("Recent activity:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n")
	sb.WriteString("Describe concretely what the user is doing (which tool, which content, whether it continues the recent activity). ")
	sb.WriteString("Pick one category: coding, writing, meeting, browsing, communication, design, data_analysis, entertainment, other.\n\n")
	sb.WriteString("Respond with a single JSON object and nothing else:\n")
	sb.WriteString(`{"category": "...", "description": "one or two specific sentences", "confidence": 0-100}`)
	sb.WriteString("\n")
	return sb.String()
}

var fenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*|\\s*```$")

// parseResult extracts the model's JSON answer, tolerating code fences and
// surrounding prose, and fills defaults for missing fields.
func parseResult(out string) (result, error) {
	text := strings.TrimSpace(out)
	text = fenceRe.ReplaceAllString(text, "")

	var res result
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		// Fall back to the first {...} span in the output.
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start == -1 || end <= start {
			return result{}, fmt.Errorf("no JSON object in model output: %w", err)
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &res); err != nil {
			return result{}, fmt.Errorf("invalid JSON in model output: %w", err)
		}
	}

	if res.Category == "" {
		res.Category = activity.CategoryOther
	}
	if res.Description == "" {
		res.Description = "unrecognized activity"
	}
	if res.Confidence == nil {
		zero := 0
		res.Confidence = &zero
	}
	return res, nil
}
