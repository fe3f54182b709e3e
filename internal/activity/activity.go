// Package activity defines the records worklens observes and the pure
// derivations computed over them: recent-context windows and work-duration
// estimates.
package activity

import "time"

// Record is one observation of user activity: which window was in the
// foreground when a screenshot was taken, plus the analysis result once the
// screenshot has been processed.
type Record struct {
	ID             int64     `db:"id" json:"id"`
	Timestamp      time.Time `db:"-" json:"timestamp"`
	AppName        string    `db:"app_name" json:"app_name"`
	WindowTitle    string    `db:"window_title" json:"window_title"`
	ScreenshotPath string    `db:"screenshot_path" json:"screenshot_path"`

	// Analysis fields are nil until Analyzed is true; once set they are
	// never revised by a later pass.
	Category    *string `db:"category" json:"category,omitempty"`
	Description *string `db:"description" json:"description,omitempty"`
	Confidence  *int    `db:"confidence" json:"confidence,omitempty"`
	Analyzed    bool    `db:"analyzed" json:"analyzed"`
}

// DailySummary is the AI-written narrative for one calendar date. At most one
// exists per date; regeneration overwrites the previous text.
type DailySummary struct {
	ID          int64     `db:"id" json:"id"`
	Date        string    `db:"date" json:"date"` // YYYY-MM-DD
	SummaryText string    `db:"summary_text" json:"summary_text"`
	GeneratedAt time.Time `db:"-" json:"generated_at"`
}

// Categories an analysis may assign. "other" doubles as the sentinel for
// degraded or failed analysis.
const (
	CategoryCoding        = "coding"
	CategoryWriting       = "writing"
	CategoryMeeting       = "meeting"
	CategoryBrowsing      = "browsing"
	CategoryCommunication = "communication"
	CategoryDesign        = "design"
	CategoryDataAnalysis  = "data_analysis"
	CategoryEntertainment = "entertainment"
	CategoryOther         = "other"
)

// DateOf returns the YYYY-MM-DD key for a timestamp, in local time.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
