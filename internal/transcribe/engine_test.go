package transcribe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hirelala/audio2vtt/internal/config"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/services"
	"github.com/hirelala/audio2vtt/internal/transcribe"
)

func mp3Bytes() []byte {
	data := make([]byte, 32)
	copy(data, "ID3\x04\x00")
	return data
}

func newEngine(t *testing.T) *transcribe.Engine {
	t.Helper()
	cfg := config.Default().Whisper
	return transcribe.NewEngine(cfg, t.TempDir(), logging.NewNop())
}

func TestTranscribeParsesEngineOutput(t *testing.T) {
	engine := newEngine(t)

	var gotName string
	var gotArgs []string
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		outputDir := argValue(args, "--output_dir")
		if outputDir == "" {
			t.Fatal("missing --output_dir")
		}
		payload := `{"segments":[{"start":0,"end":1.5,"text":"hello there","words":[
            {"word":"hello","start":0,"end":0.7},
            {"word":" there.","start":0.7,"end":1.5}
        ]}],"language":"en"}`
		return os.WriteFile(filepath.Join(outputDir, "audio.json"), []byte(payload), 0o600)
	})

	segments, err := engine.Transcribe(context.Background(), mp3Bytes(), "clip.mp3", "en")
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if gotName != "whisperx" {
		t.Fatalf("unexpected binary %q", gotName)
	}
	if argValue(gotArgs, "--model") != "base" || argValue(gotArgs, "--language") != "en" {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	if len(segments) != 1 {
		t.Fatalf("expected one segment, got %d", len(segments))
	}
	seg := segments[0]
	if seg.Start != 0 || seg.End != 1.5 || len(seg.Words) != 2 {
		t.Fatalf("unexpected segment: %#v", seg)
	}
	if seg.Words[1].Text != " there." {
		t.Fatalf("word whitespace not preserved: %q", seg.Words[1].Text)
	}
}

func TestTranscribeRejectsUnknownFormat(t *testing.T) {
	engine := newEngine(t)
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		t.Fatal("engine must not run for undetectable audio")
		return nil
	})

	_, err := engine.Transcribe(context.Background(), []byte("definitely not audio"), "note.txt", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTranscribeWrapsEngineFailure(t *testing.T) {
	engine := newEngine(t)
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("engine exploded")
	})

	_, err := engine.Transcribe(context.Background(), mp3Bytes(), "clip.mp3", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestTranscribeFailsWhenOutputMissing(t *testing.T) {
	engine := newEngine(t)
	engine.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	_, err := engine.Transcribe(context.Background(), mp3Bytes(), "clip.mp3", "")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func argValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
