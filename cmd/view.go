package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view [date]",
	Short: "Browse a day's activity in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := activity.DateOf(time.Now())
		if len(args) == 1 {
			if _, err := time.Parse("2006-01-02", args[0]); err != nil {
				return fmt.Errorf("invalid date %q, want YYYY-MM-DD", args[0])
			}
			date = args[0]
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.QueryByDate(date)
		if err != nil {
			return err
		}
		summaryText := ""
		sum, err := st.GetSummary(date)
		if err == nil {
			summaryText = sum.SummaryText
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printDay(cmd, date, records, summaryText)
			return nil
		}
		return tui.Run(date, records, summaryText)
	},
}

// printDay writes a plain-text day view to the command output.
func printDay(cmd *cobra.Command, date string, records []activity.Record, summaryText string) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "## %s\n\n", date)
	if len(records) == 0 {
		fmt.Fprintln(out, "  (no activity recorded)")
		return
	}
	for _, rec := range records {
		cat := "pending"
		desc := rec.AppName
		if rec.WindowTitle != "" {
			desc += "  " + rec.WindowTitle
		}
		if rec.Analyzed {
			if rec.Category != nil {
				cat = *rec.Category
			}
			if rec.Description != nil && *rec.Description != "" {
				desc = *rec.Description
			}
		}
		fmt.Fprintf(out, "  %s  [%-13s]  %s\n", rec.Timestamp.Format("15:04"), cat, desc)
	}

	if summaryText != "" {
		fmt.Fprintf(out, "\n## Summary\n\n%s\n", summaryText)
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
