package media_test

import (
	"errors"
	"testing"

	"github.com/hirelala/audio2vtt/internal/media"
)

func TestDetectFormat(t *testing.T) {
	pad := func(prefix []byte) []byte {
		data := make([]byte, 24)
		copy(data, prefix)
		return data
	}

	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"mp3 id3", pad([]byte("ID3\x04\x00")), ".mp3"},
		{"mp3 frame fb", pad([]byte{0xFF, 0xFB, 0x90}), ".mp3"},
		{"mp3 frame f3", pad([]byte{0xFF, 0xF3, 0x90}), ".mp3"},
		{"wav", pad([]byte("RIFF\x24\x00\x00\x00WAVE")), ".wav"},
		{"ogg", pad([]byte("OggS")), ".ogg"},
		{"flac", pad([]byte("fLaC")), ".flac"},
		{"m4a", pad([]byte("\x00\x00\x00\x20ftypM4A ")), ".m4a"},
		{"mp4", pad([]byte("\x00\x00\x00\x20ftypisom")), ".mp4"},
		{"webm", pad([]byte{0x1A, 0x45, 0xDF, 0xA3}), ".webm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := media.DetectFormat(tc.data)
			if err != nil {
				t.Fatalf("DetectFormat failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestDetectFormatUnknown(t *testing.T) {
	if _, err := media.DetectFormat([]byte("this is not audio data")); !errors.Is(err, media.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := media.DetectFormat([]byte{0x00}); !errors.Is(err, media.ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat for short input, got %v", err)
	}
}

func TestSupportedExtension(t *testing.T) {
	for _, ext := range []string{".mp3", "wav", "FLAC", ".m4a"} {
		if !media.SupportedExtension(ext) {
			t.Fatalf("expected %s to be supported", ext)
		}
	}
	for _, ext := range []string{"", ".txt", "mov"} {
		if media.SupportedExtension(ext) {
			t.Fatalf("expected %s to be unsupported", ext)
		}
	}
}
