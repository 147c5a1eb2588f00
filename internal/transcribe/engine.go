package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hirelala/audio2vtt/internal/config"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/media"
	"github.com/hirelala/audio2vtt/internal/services"
	"github.com/hirelala/audio2vtt/internal/subtitle"
)

// Engine shells out to a whisperx-compatible command that emits word-level
// timestamps as JSON. The underlying model is loaded by the engine process
// and is safe to invoke from multiple workers at once.
type Engine struct {
	cfg     config.Whisper
	tempDir string
	logger  *slog.Logger

	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewEngine creates an engine using the given whisper configuration. Scratch
// files are written under tempDir.
func NewEngine(cfg config.Whisper, tempDir string, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		tempDir: tempDir,
		logger:  logging.NewComponentLogger(logger, "transcribe"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Engine) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	e.commandRunner = runner
}

// Model returns the configured model name for logging.
func (e *Engine) Model() string {
	return e.cfg.Model
}

// Transcribe writes the audio to scratch space, runs the engine, and returns
// the raw segments. The audio container is sniffed from magic bytes; data
// that matches no known signature is rejected before the engine runs.
func (e *Engine) Transcribe(ctx context.Context, audio []byte, filename, lang string) ([]subtitle.Segment, error) {
	ext, err := media.DetectFormat(audio)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "detect format", filename, err)
	}

	workDir, err := os.MkdirTemp(e.tempDir, "job-*")
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "scratch dir", "", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "audio"+ext)
	if err := os.WriteFile(audioPath, audio, 0o600); err != nil {
		return nil, services.Wrap(services.ErrTransient, "transcribe", "write audio", "", err)
	}

	args := e.buildArgs(audioPath, workDir, lang)
	e.logger.Debug("invoking engine",
		logging.String("binary", e.cfg.Binary),
		logging.String("model", e.cfg.Model),
		logging.String("language", lang),
		logging.Int("bytes", len(audio)),
	)
	started := time.Now()
	if err := e.run(ctx, e.cfg.Binary, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "run engine", filename, err)
	}

	segments, err := loadSegments(filepath.Join(workDir, "audio.json"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "read engine output", filename, err)
	}
	e.logger.Debug("engine finished",
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return segments, nil
}

func (e *Engine) buildArgs(audioPath, outputDir, lang string) []string {
	args := []string{
		audioPath,
		"--model", e.cfg.Model,
		"--device", e.cfg.Device,
		"--compute_type", e.cfg.ComputeType,
		"--beam_size", strconv.Itoa(e.cfg.BeamSize),
		"--threads", strconv.Itoa(e.cfg.CPUThreads),
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if e.cfg.DeviceIndex > 0 {
		args = append(args, "--device_index", strconv.Itoa(e.cfg.DeviceIndex))
	}
	if e.cfg.ModelDir != "" {
		args = append(args, "--model_dir", e.cfg.ModelDir)
	}
	if e.cfg.LocalFilesOnly {
		args = append(args, "--model_cache_only", "True")
	}
	if !e.cfg.VADFilter {
		args = append(args, "--no_vad_filter")
	}
	if lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

func (e *Engine) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
