// Package media sniffs audio container formats from magic bytes so obviously
// unsupported uploads are rejected before they reach the speech engine.
package media

import (
	"bytes"
	"errors"
	"strings"
)

// ErrUnknownFormat is returned when no magic-byte signature matches.
var ErrUnknownFormat = errors.New("unrecognized audio format")

// supportedExtensions mirrors what the speech engine accepts as input.
var supportedExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".mp4":  {},
	".flac": {},
	".ogg":  {},
	".aac":  {},
	".webm": {},
}

// DetectFormat inspects the leading bytes of audio data and returns the file
// extension (with dot) for the detected container.
func DetectFormat(data []byte) (string, error) {
	if len(data) < 12 {
		return "", ErrUnknownFormat
	}

	// MP3: ID3 tag or an MPEG frame sync.
	if bytes.HasPrefix(data, []byte("ID3")) {
		return ".mp3", nil
	}
	if data[0] == 0xFF && (data[1] == 0xFB || data[1] == 0xF3 || data[1] == 0xF2) {
		return ".mp3", nil
	}

	// WAV: RIFF....WAVE
	if bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")) {
		return ".wav", nil
	}

	if bytes.HasPrefix(data, []byte("OggS")) {
		return ".ogg", nil
	}

	if bytes.HasPrefix(data, []byte("fLaC")) {
		return ".flac", nil
	}

	// M4A/MP4: ftyp box after the 4-byte size field.
	if bytes.Equal(data[4:8], []byte("ftyp")) {
		brand := data[8:min(len(data), 20)]
		if bytes.Contains(brand, []byte("M4A")) || bytes.Contains(brand, []byte("mp42")) {
			return ".m4a", nil
		}
		return ".mp4", nil
	}

	// WebM/Matroska EBML header.
	if bytes.HasPrefix(data, []byte{0x1A, 0x45, 0xDF, 0xA3}) {
		return ".webm", nil
	}

	return "", ErrUnknownFormat
}

// SupportedExtension reports whether a file extension (with or without dot) is
// accepted for transcription.
func SupportedExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	_, ok := supportedExtensions[ext]
	return ok
}
