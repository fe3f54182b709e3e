package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/worklens/worklens/internal/ai"
	"github.com/worklens/worklens/internal/analyze"
	"github.com/worklens/worklens/internal/store"
)

var (
	analyzeBacklog bool
	analyzeLimit   int
)

// newAnalyzer wires the screenshot analyzer over an open store.
func newAnalyzer(st *store.Store, engine ai.Engine) *analyze.Analyzer {
	a := analyze.New(st, engine, logger)
	a.SetContextSize(cfg.ContextSize)
	a.SetKeepScreenshots(cfg.KeepScreenshot)
	return a
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [record-id]",
	Short: "Analyze captured screenshots with the vision model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !analyzeBacklog && len(args) == 0 {
			return fmt.Errorf("pass a record id or --backlog")
		}
		if analyzeBacklog && len(args) > 0 {
			return fmt.Errorf("--backlog does not take a record id")
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := newEngine(cmd.Context())
		if err != nil {
			return err
		}
		a := newAnalyzer(st, engine)

		if analyzeBacklog {
			n, err := a.Sweep(cmd.Context(), analyzeLimit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analyzed %d records.\n", n)
			return nil
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", args[0])
		}
		if err := a.Analyze(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Record %d analyzed.\n", id)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeBacklog, "backlog", false, "analyze all unanalyzed records")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 100, "maximum records per backlog sweep")
	rootCmd.AddCommand(analyzeCmd)
}
