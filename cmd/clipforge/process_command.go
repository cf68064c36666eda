package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/deps"
	"clipforge/internal/logging"
	"clipforge/internal/processor"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "process <video-file>",
		Short: "Run the processing pipeline on a single video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			version, err := deps.VerifyFFmpeg(cmd.Context(), cfg.Paths.FFmpegBinary)
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger.Debug("ffmpeg verified", logging.String("version", version))

			interactive := stdoutIsTerminal()
			proc := processor.New(cfg, logger)
			result, err := proc.Process(cmd.Context(), processor.Job{
				InputPath: args[0],
				Channel:   channel,
				OnProgress: func(pct int) {
					if interactive {
						fmt.Printf("\rProcessing %3d%%", pct)
					}
				},
			})
			if interactive {
				fmt.Println()
			}
			if err != nil {
				return err
			}

			fmt.Printf("Output:    %s\n", result.OutputPath)
			if result.ThumbnailPath != "" {
				fmt.Printf("Thumbnail: %s\n", result.ThumbnailPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Channel whose processing overrides and watermark apply")
	return cmd
}
