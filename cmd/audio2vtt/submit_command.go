package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hirelala/audio2vtt/internal/media"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var languageFlag string
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "submit <audio-file>",
		Short: "Submit an audio file to the daemon for transcription",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the path to the audio file. Example: audio2vtt submit talk.mp3")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}
			ext := strings.ToLower(filepath.Ext(source))
			if !media.SupportedExtension(ext) {
				return fmt.Errorf("unsupported audio extension %q", ext)
			}
			audio, err := os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("read audio file: %w", err)
			}
			if _, err := media.DetectFormat(audio); err != nil {
				return fmt.Errorf("%s: %w", source, err)
			}

			resp, err := ctx.client().Submit(cmd.Context(), filepath.Base(source), audio, languageFlag, formatFlag)
			if err != nil {
				return wrapDaemonError(err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s accepted (%s)\n", resp.JobID, resp.Status)
			fmt.Fprintf(out, "Check progress with: audio2vtt status %s\n", resp.JobID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Language hint (BCP 47, e.g. en or pt-BR)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "vtt", "Subtitle format: vtt or srt")

	return cmd
}

func wrapDaemonError(err error) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: connection refused; start the daemon with `audio2vttd`")
	}
	return err
}
