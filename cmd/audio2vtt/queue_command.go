package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "Show worker pool and job queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := ctx.client().QueueStats(cmd.Context())
			if err != nil {
				return wrapDaemonError(err)
			}

			out := cmd.OutOrStdout()
			heading := fmt.Sprintf("Workers: %d  Queue: %d/%d", stats.Workers, stats.QueueSize, stats.MaxQueueSize)
			if shouldColorize(out) {
				heading = ansiBlue + heading + ansiReset
			}
			fmt.Fprintln(out, heading)

			rows := [][]string{
				{"pending", strconv.Itoa(stats.Pending)},
				{"processing", strconv.Itoa(stats.Processing)},
				{"completed", strconv.Itoa(stats.Completed)},
				{"failed", strconv.Itoa(stats.Failed)},
				{"total", strconv.Itoa(stats.TotalJobs)},
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Jobs"},
				rows,
				[]columnAlignment{alignLeft, alignRight},
			))
			return nil
		},
	}
}
