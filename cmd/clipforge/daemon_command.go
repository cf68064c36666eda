package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"clipforge/internal/daemon"
	"clipforge/internal/deps"
	"clipforge/internal/downloader"
	"clipforge/internal/logging"
	"clipforge/internal/metadata"
	"clipforge/internal/preflight"
	"clipforge/internal/processor"
	"clipforge/internal/queue"
	"clipforge/internal/workflow"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Manage the background processing daemon",
	}
	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd, ctx)
		},
	}
}

func runDaemonProcess(cmd *cobra.Command, ctx *commandContext) error {
	signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	version, err := deps.VerifyFFmpeg(signalCtx, cfg.Paths.FFmpegBinary)
	if err != nil {
		return err
	}
	logger.Info("ffmpeg verified", logging.String("version", version))

	var failures []string
	for _, result := range preflight.RunAll(cfg) {
		if !result.Passed {
			failures = append(failures, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if !status.Available && !status.Optional {
			failures = append(failures, fmt.Sprintf("%s: %s", status.Name, status.Detail))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("preflight failed:\n  %s", strings.Join(failures, "\n  "))
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	manager := workflow.NewManager(cfg, store, logger, workflow.StageSet{
		Download: downloader.NewStage(cfg, store, logger),
		Process:  processor.NewStage(cfg, store, logger),
		Finalize: metadata.NewStage(cfg, logger),
	})

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("clipforge daemon shutting down")
	d.Stop()
	return nil
}
