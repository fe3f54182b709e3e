package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/store"
	"github.com/worklens/worklens/internal/summary"
)

var (
	reportDate     string
	reportGenerate bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the work report for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		date := reportDate
		if date == "" {
			date = activity.DateOf(time.Now())
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid date %q, want YYYY-MM-DD", date)
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
		stats := summary.DayStats(records)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Report for %s\n\n", date)
		fmt.Fprintf(out, "  Records:       %d analyzed\n", stats.RecordCount)
		fmt.Fprintf(out, "  Engaged time:  %.1f hours\n", stats.Hours)

		if len(stats.Categories) > 0 {
			fmt.Fprintln(out, "\n  Categories:")
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
				fmt.Fprintf(out, "    %-14s %3d (%4.1f%%)\n", c.name, c.count, pct)
			}
		}
		if len(stats.TopApps) > 0 {
			fmt.Fprintf(out, "\n  Main tools: %s\n", strings.Join(stats.TopApps, ", "))
		}

		if reportGenerate {
			engine, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}
			gen := summary.New(st, engine, logger)
			text, err := gen.Generate(cmd.Context(), date)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nSummary:\n\n%s\n", text)
			return nil
		}

		sum, err := st.GetSummary(date)
		switch {
		case errors.Is(err, store.ErrNotFound):
			fmt.Fprintln(out, "\nNo summary generated yet. Run with --generate to create one.")
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "\nSummary:\n\n%s\n", sum.SummaryText)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportDate, "date", "", "report date (YYYY-MM-DD, default today)")
	reportCmd.Flags().BoolVar(&reportGenerate, "generate", false, "generate the daily summary with the model")
	rootCmd.AddCommand(reportCmd)
}
