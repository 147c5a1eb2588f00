package logging

import (
	"log/slog"
	"path/filepath"

	"github.com/hirelala/audio2vtt/internal/config"
)

// NewFromConfig builds the daemon logger from configuration: console or JSON
// output to stdout with a copy appended under the log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	opts := Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Paths.LogDir != "" {
		opts.OutputPaths = []string{"stdout", filepath.Join(cfg.Paths.LogDir, "audio2vtt.log")}
	}
	return New(opts)
}
