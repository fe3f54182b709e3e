package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/worklens/worklens/internal/ai"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/store"
)

// cfg holds the loaded configuration, populated in PersistentPreRunE.
var cfg config.Config

// cfgPath is the config file actually loaded, for the watch command's
// hot-reload watcher.
var cfgPath string

var (
	configFlag string
	verbose    bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "worklens",
	Short: "Capture desktop activity and turn it into daily work logs",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configFlag
		if path == "" {
			var err error
			path, err = config.Path()
			if err != nil {
				return fmt.Errorf("resolving config path: %w", err)
			}
		}
		var err error
		cfg, err = config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfgPath = path

		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the loaded configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// openStore opens the activity database under the configured data dir.
func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("opening activity database: %w", err)
	}
	return st, nil
}

// newEngine builds the vision model client, or fails when no credential is
// set.
func newEngine(ctx context.Context) (ai.Engine, error) {
	key := config.APIKey()
	if key == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	return ai.NewGenAIEngine(ctx, key, cfg.Model)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ~/.config/worklens/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
