package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clipforge/internal/preflight"
	"clipforge/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment and queue health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			depRows := make([][]string, 0, 4)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
				}
				depRows = append(depRows, []string{status.Name, status.Command, state})
			}
			fmt.Println("Dependencies")
			fmt.Println(renderTable([]string{"Name", "Command", "State"}, depRows, nil))

			dirRows := make([][]string, 0, 4)
			for _, result := range preflight.RunAll(cfg) {
				state := "ok"
				if !result.Passed {
					state = result.Detail
				}
				dirRows = append(dirRows, []string{result.Name, state})
			}
			fmt.Println("\nDirectories")
			fmt.Println(renderTable([]string{"Check", "State"}, dirRows, nil))

			return withStore(ctx, func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Total", strconv.Itoa(health.Total)},
					{"Pending", strconv.Itoa(health.Pending)},
					{"Processing", strconv.Itoa(health.Processing)},
					{"Ready", strconv.Itoa(health.Ready)},
					{"Failed", strconv.Itoa(health.Failed)},
				}
				fmt.Println("\nQueue")
				fmt.Println(renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}
