package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/summary"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's capture activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		today := activity.DateOf(time.Now())
		records, err := st.QueryByDate(today)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No activity recorded today.")
			return nil
		}

		analyzed := 0
		for _, r := range records {
			if r.Analyzed {
				analyzed++
			}
		}
		last := records[len(records)-1]
		stats := summary.DayStats(records)

		fmt.Fprintf(out, "Date:          %s\n", today)
		fmt.Fprintf(out, "Records:       %d (%d analyzed, %d pending)\n",
			len(records), analyzed, len(records)-analyzed)
		fmt.Fprintf(out, "Last capture:  %s (%s)\n",
			last.Timestamp.Format("15:04:05"), last.AppName)
		fmt.Fprintf(out, "Engaged time:  %.1f hours\n", stats.Hours)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
