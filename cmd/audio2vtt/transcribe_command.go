package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hirelala/audio2vtt/internal/config"
	"github.com/hirelala/audio2vtt/internal/language"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/media"
	"github.com/hirelala/audio2vtt/internal/subtitle"
	"github.com/hirelala/audio2vtt/internal/transcribe"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var formatFlag string
	var languageFlag string
	var modelFlag string
	var deviceFlag string
	var computeTypeFlag string
	var beamSizeFlag int
	var noVAD bool
	var quiet bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file to subtitles locally",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the path to the audio file. Example: audio2vtt transcribe talk.mp3")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return fmt.Errorf("audio file path is required")
			}
			source, err := filepath.Abs(source)
			if err != nil {
				return fmt.Errorf("resolve audio path: %w", err)
			}
			info, err := os.Stat(source)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("audio file %q not found", source)
				}
				return fmt.Errorf("stat audio file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("audio path %q is a directory", source)
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

			format, err := subtitle.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			lang, err := language.Canonicalize(languageFlag)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			whisper := cfg.Whisper
			if modelFlag != "" {
				whisper.Model = modelFlag
			}
			if deviceFlag != "" {
				whisper.Device = strings.ToLower(deviceFlag)
			}
			if computeTypeFlag != "" {
				whisper.ComputeType = strings.ToLower(computeTypeFlag)
			}
			if cmd.Flags().Changed("beam-size") {
				whisper.BeamSize = beamSizeFlag
			}
			if noVAD {
				whisper.VADFilter = false
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			logger := logging.NewNop()
			if !quiet {
				logger, err = logging.New(logging.Options{
					Level:       cfg.Logging.Level,
					Format:      "console",
					OutputPaths: []string{"stderr"},
				})
				if err != nil {
					return err
				}
			}

			engine := transcribe.NewEngine(whisper, cfg.Paths.TempDir, logger)
			segments, err := engine.Transcribe(cmd.Context(), audio, filepath.Base(source), lang)
			if err != nil {
				return err
			}

			cues, wordCount := subtitle.BuildAll(segments)
			content := subtitle.Render(cues, format)

			target := strings.TrimSpace(outputPath)
			if target == "-" {
				fmt.Fprint(cmd.OutOrStdout(), content)
				return nil
			}
			if target == "" {
				target = strings.TrimSuffix(source, filepath.Ext(source)) + "." + format.Extension()
			} else {
				target, err = config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			}
			if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
				return fmt.Errorf("write subtitles: %w", err)
			}

			if !quiet {
				summary := subtitle.Summarize(content)
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d cues (%d words, %.1fs of speech) to %s\n",
					summary.CueCount, wordCount, summary.LastSecond, target)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (\"-\" for stdout)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "vtt", "Subtitle format: vtt or srt")
	cmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Language hint (BCP 47, e.g. en or pt-BR)")
	cmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Whisper model name override")
	cmd.Flags().StringVar(&deviceFlag, "device", "", "Inference device: cpu, cuda, or auto")
	cmd.Flags().StringVar(&computeTypeFlag, "compute-type", "", "Engine compute type override")
	cmd.Flags().IntVar(&beamSizeFlag, "beam-size", 0, "Decoder beam size override")
	cmd.Flags().BoolVar(&noVAD, "no-vad", false, "Disable voice activity filtering")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}
