package cmd

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/worklens/worklens/internal/capture"
	"github.com/worklens/worklens/internal/config"
	"github.com/worklens/worklens/internal/monitor"
	"github.com/worklens/worklens/internal/sampler"
	"github.com/worklens/worklens/internal/tracker"
)

// noAnalysis leaves records for a later "analyze --backlog" pass when no
// model credential is configured.
type noAnalysis struct{}

func (noAnalysis) Analyze(ctx context.Context, recordID int64) error { return nil }

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the capture loop in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var analyzer monitor.Analyzer = noAnalysis{}
		if config.APIKey() != "" {
			engine, err := newEngine(ctx)
			if err != nil {
				return err
			}
			analyzer = newAnalyzer(st, engine)
		} else {
			logger.Warn("GEMINI_API_KEY is not set; records will pile up unanalyzed")
		}

		smp := sampler.New(cfg.Interval())
		mon := monitor.New(smp,
			tracker.New(),
			capture.New(cfg.ScreenshotDir()),
			analyzer,
			st,
			logger,
		)

		if err := mon.Start(); err != nil {
			return err
		}
		logger.Info("watching",
			zap.Duration("interval", smp.Interval()),
			zap.String("data_dir", cfg.DataDir))

		reloadDone := watchConfig(ctx, smp)

		<-ctx.Done()
		logger.Info("shutting down")
		mon.Stop()
		<-reloadDone
		return nil
	},
}

// watchConfig reloads the capture interval when the config file changes.
// The returned channel closes once the watcher goroutine has exited.
func watchConfig(ctx context.Context, smp *sampler.Sampler) <-chan struct{} {
	done := make(chan struct{})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		close(done)
		return done
	}
	// Watch the directory: editors replace the file, which drops a watch
	// on the file itself.
	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		logger.Warn("config watcher unavailable", zap.Error(err))
		watcher.Close()
		close(done)
		return done
	}

	go func() {
		defer close(done)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != cfgPath || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				next, err := config.LoadFile(cfgPath)
				if err != nil {
					logger.Warn("ignoring config change", zap.Error(err))
					continue
				}
				if next.Interval() != smp.Interval() {
					smp.SetInterval(next.Interval())
					logger.Info("capture interval updated", zap.Duration("interval", next.Interval()))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()
	return done
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
