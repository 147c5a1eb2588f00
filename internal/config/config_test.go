package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hirelala/audio2vtt/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Whisper.Model != "base" || cfg.Queue.Workers != 2 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if cfg.Paths.TempDir == "" {
		t.Fatal("expected temp dir to be defaulted")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[whisper]
model = "large-v3"
device = "CUDA"
beam_size = 3

[queue]
workers = 4
capacity = 10

[logging]
level = "DEBUG"
format = "json"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %s exists=%v", resolved, exists)
	}
	if cfg.Whisper.Model != "large-v3" || cfg.Whisper.Device != "cuda" || cfg.Whisper.BeamSize != 3 {
		t.Fatalf("unexpected whisper config: %#v", cfg.Whisper)
	}
	if cfg.Queue.Workers != 4 || cfg.Queue.Capacity != 10 {
		t.Fatalf("unexpected queue config: %#v", cfg.Queue)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %#v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"bad device", "[whisper]\ndevice = \"gpu\"\n"},
		{"zero workers", "[queue]\nworkers = 0\n"},
		{"zero capacity", "[queue]\ncapacity = 0\n"},
		{"bad format", "[logging]\nformat = \"xml\"\n"},
		{"bad beam", "[whisper]\nbeam_size = 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSampleConfigMentionsAllSections(t *testing.T) {
	sample := config.Sample()
	for _, section := range []string{"[paths]", "[whisper]", "[queue]", "[logging]"} {
		if !strings.Contains(sample, section) {
			t.Fatalf("sample config missing %s", section)
		}
	}
}

func TestLockFilePath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = "/tmp/a2v-test"
	if got := cfg.LockFilePath(); got != "/tmp/a2v-test/audio2vttd.lock" {
		t.Fatalf("unexpected lock path %s", got)
	}
}
