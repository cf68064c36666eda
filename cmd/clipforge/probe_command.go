package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/processor"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <video-file>",
		Short: "Inspect a video file with ffprobe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			proc := processor.New(cfg, nil)
			probe, err := proc.Probe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			duration := "unknown"
			if probe.Duration != nil {
				duration = fmt.Sprintf("%.2fs", *probe.Duration)
			}
			rows := [][]string{
				{"Duration", duration},
				{"Resolution", fmt.Sprintf("%dx%d", probe.Width, probe.Height)},
				{"Codec", probe.Codec},
				{"Frame rate", fmt.Sprintf("%.3f", probe.FrameRate)},
				{"Audio", yesNo(probe.HasAudio)},
			}
			fmt.Println(renderTable([]string{"Property", "Value"}, rows, nil))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
