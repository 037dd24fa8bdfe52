package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sagebind/robo-ftp/internal/daemon"
	"github.com/sagebind/robo-ftp/internal/deploy"
	"github.com/sagebind/robo-ftp/internal/logger"
	"github.com/sagebind/robo-ftp/internal/pipeline"
	"github.com/sagebind/robo-ftp/internal/repository"
	"github.com/sagebind/robo-ftp/internal/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchFlags deployFlags

var watchCmd = &cobra.Command{
	Use:   "watch [source] [target]",
	Short: "Watch a directory and re-deploy on change",
	Args:  cobra.ExactArgs(2),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	runCfg, err := watchFlags.build(args[0], args[1])
	if err != nil {
		return err
	}

	w, err := watcher.New(cfg.BufferSize)
	if err != nil {
		return err
	}

	if err := w.Watch(runCfg.SourceRoot); err != nil {
		return err
	}

	ignoreList := append(append([]string{}, cfg.IgnoreList...), watchFlags.excludes...)
	events := pipeline.Filter(w.Events(), ignoreList)
	triggers := pipeline.Trigger(events, time.Duration(cfg.DebounceMs)*time.Millisecond)

	state := daemon.NewState(runCfg)
	srv := daemon.NewServer(state, cfg.DaemonPort)
	srv.Start()

	repo := repository.NewDeploymentRepository()

	runOnce := func() {
		report, err := runDeploy(runCfg)
		if err != nil {
			report = &deploy.Report{Fatal: err}
		}

		state.Record(report)
		if err := repo.Save(runCfg, report); err != nil {
			logger.Log.Warn("failed to save history",
				zap.Error(err))
		}

		if report.Fatal != nil {
			logger.Log.Error("deploy failed",
				zap.Error(report.Fatal))
			return
		}

		logger.Log.Info("deploy finished",
			zap.String("outcome", string(report.Outcome())),
			zap.Int("uploaded", report.Uploaded),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed))
	}

	logger.Log.Info("watch started",
		zap.String("source", runCfg.SourceRoot),
		zap.String("target", runCfg.TargetRoot),
		zap.String("host", runCfg.Host),
		zap.Int("port", cfg.DaemonPort))

	// Initial deploy brings the remote current before waiting for events.
	runOnce()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

loop:
	for {
		select {
		case sig := <-sigCh:
			logger.Log.Info("shutting down",
				zap.String("signal", sig.String()))
			break loop

		case <-srv.StopCh():
			logger.Log.Info("stop requested via API")
			break loop

		case _, ok := <-triggers:
			if !ok {
				break loop
			}
			runOnce()
		}
	}

	w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func init() {
	addDeployFlags(watchCmd, &watchFlags)
	rootCmd.AddCommand(watchCmd)
}
