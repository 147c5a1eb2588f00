package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	TempDir string `toml:"temp_dir"`
	APIBind string `toml:"api_bind"`
}

// Whisper contains configuration for the speech engine.
type Whisper struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Device         string `toml:"device"`
	DeviceIndex    int    `toml:"device_index"`
	ComputeType    string `toml:"compute_type"`
	CPUThreads     int    `toml:"cpu_threads"`
	BeamSize       int    `toml:"beam_size"`
	VADFilter      bool   `toml:"vad_filter"`
	ModelDir       string `toml:"model_dir"`
	LocalFilesOnly bool   `toml:"local_files_only"`
}

// Queue contains worker pool and admission control sizing.
type Queue struct {
	Workers  int `toml:"workers"`
	Capacity int `toml:"capacity"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all configuration values for audio2vtt.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Whisper Whisper `toml:"whisper"`
	Queue   Queue   `toml:"queue"`
	Logging Logging `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  "~/.local/share/audio2vtt/logs",
			APIBind: "127.0.0.1:8575",
		},
		Whisper: Whisper{
			Binary:      "whisperx",
			Model:       "base",
			Device:      "cpu",
			ComputeType: "int8",
			CPUThreads:  4,
			BeamSize:    5,
			VADFilter:   true,
			ModelDir:    "~/.cache/audio2vtt/models",
		},
		Queue: Queue{
			Workers:  2,
			Capacity: 100,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/audio2vtt/config.toml")
}

// Sample returns the embedded sample configuration file.
func Sample() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Whisper.ModelDir, err = expandPath(c.Whisper.ModelDir); err != nil {
		return err
	}
	if c.Paths.TempDir == "" {
		c.Paths.TempDir = filepath.Join(os.TempDir(), "audio2vtt")
	} else if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return err
	}

	c.Whisper.Binary = strings.TrimSpace(c.Whisper.Binary)
	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	c.Whisper.Device = strings.ToLower(strings.TrimSpace(c.Whisper.Device))
	c.Whisper.ComputeType = strings.ToLower(strings.TrimSpace(c.Whisper.ComputeType))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Whisper.Binary == "" {
		return errors.New("whisper.binary must not be empty")
	}
	if c.Whisper.Model == "" {
		return errors.New("whisper.model must not be empty")
	}
	switch c.Whisper.Device {
	case "cpu", "cuda", "auto":
	default:
		return fmt.Errorf("whisper.device: unsupported value %q", c.Whisper.Device)
	}
	if c.Whisper.BeamSize < 1 {
		return errors.New("whisper.beam_size must be at least 1")
	}
	if c.Whisper.CPUThreads < 1 {
		return errors.New("whisper.cpu_threads must be at least 1")
	}
	if c.Queue.Workers < 1 {
		return errors.New("queue.workers must be at least 1")
	}
	if c.Queue.Capacity < 1 {
		return errors.New("queue.capacity must be at least 1")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json", "":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// EnsureDirectories creates the directories the daemon writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.TempDir, c.Whisper.ModelDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LockFilePath is the single-instance daemon lock location.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "audio2vttd.lock")
}

// ExpandPath resolves ~ and relative segments in a user-supplied path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// CreateSample writes the embedded sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		path = filepath.Join(home, path[2:])
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
