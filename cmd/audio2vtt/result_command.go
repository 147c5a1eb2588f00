package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hirelala/audio2vtt/internal/api"
	"github.com/hirelala/audio2vtt/internal/config"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Fetch the rendered subtitles for a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := ctx.client().Result(cmd.Context(), args[0])
			if err != nil {
				switch {
				case errors.Is(err, api.ErrNotFound):
					return fmt.Errorf("job %s not found", args[0])
				case errors.Is(err, api.ErrNotReady):
					return fmt.Errorf("job %s is still in progress; try again shortly", args[0])
				}
				return wrapDaemonError(err)
			}

			target := strings.TrimSpace(outputPath)
			if target == "" || target == "-" {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}
			target, err = config.ExpandPath(target)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write subtitles: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote subtitles to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default stdout)")
	return cmd
}
