package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/server"
	"github.com/worklens/worklens/internal/summary"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the activity API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Summary regeneration over the API needs the model; without a
		// credential the endpoint reports itself unavailable.
		var generator server.SummaryGenerator
		if config.APIKey() != "" {
			engine, err := newEngine(ctx)
			if err != nil {
				return err
			}
			generator = summary.New(st, engine, logger)
		} else {
			logger.Warn("GEMINI_API_KEY is not set; POST /api/summary is disabled")
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.ListenAddr
		}
		logger.Info("starting api", zap.String("addr", addr))
		return server.New(st, generator, logger).Serve(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
