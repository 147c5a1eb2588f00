package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hirelala/audio2vtt/internal/api"
	"github.com/hirelala/audio2vtt/internal/language"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a submitted job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, api.ErrNotFound) {
					return fmt.Errorf("job %s not found", args[0])
				}
				return wrapDaemonError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:      %s\n", status.JobID)
			fmt.Fprintf(out, "File:     %s\n", status.Filename)
			fmt.Fprintf(out, "Language: %s\n", language.DisplayName(status.Language))
			fmt.Fprintf(out, "Format:   %s\n", status.Format)
			fmt.Fprintf(out, "Status:   %s\n", status.Status)
			if status.WordCount > 0 {
				fmt.Fprintf(out, "Words:    %d\n", status.WordCount)
			}
			if status.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", status.Error)
			}
			fmt.Fprintf(out, "Created:  %s\n", status.CreatedAt)
			if status.StartedAt != "" {
				fmt.Fprintf(out, "Started:  %s\n", status.StartedAt)
			}
			if status.CompletedAt != "" {
				fmt.Fprintf(out, "Finished: %s\n", status.CompletedAt)
			}
			return nil
		},
	}
}
