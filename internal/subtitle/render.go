package subtitle

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Format selects the subtitle serialization.
type Format string

const (
	FormatVTT Format = "vtt"
	FormatSRT Format = "srt"
)

// ParseFormat normalizes a user-supplied format name.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "vtt", "":
		return FormatVTT, nil
	case "srt":
		return FormatSRT, nil
	default:
		return "", fmt.Errorf("unsupported subtitle format %q", value)
	}
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string {
	return string(f)
}

func (f Format) separator() string {
	if f == FormatSRT {
		return ","
	}
	return "."
}

// Render serializes cues in the given format. Cues whose text is empty after
// trimming are skipped and, for SRT, do not consume an index slot. Rendering
// is pure: the same cues always produce the same text.
func Render(cues []Cue, f Format) string {
	items := make([]string, 0, len(cues))
	index := 0
	for _, cue := range cues {
		text := capitalize(cue.Text)
		if text == "" {
			continue
		}
		index++

		start := FormatTimestamp(cue.Start, f)
		end := FormatTimestamp(cue.End, f)
		if f == FormatSRT {
			items = append(items, fmt.Sprintf("%d\n%s --> %s\n%s\n", index, start, end, text))
		} else {
			items = append(items, fmt.Sprintf("%s --> %s\n%s\n", start, end, text))
		}
	}

	body := strings.Join(items, "\n")
	if f == FormatVTT {
		return "WEBVTT\n\n" + body
	}
	return body
}

// FormatTimestamp renders seconds as zero-padded HH:MM:SS plus three millisecond
// digits, separated by a dot for VTT and a comma for SRT.
func FormatTimestamp(seconds float64, f Format) string {
	hours := int(seconds / 3600)
	seconds = math.Mod(seconds, 3600)
	minutes := int(seconds / 60)
	millis := int(seconds*1000) % 1000
	secs := int(math.Mod(seconds, 60))
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, secs, f.separator(), millis)
}

// capitalize trims surrounding whitespace and upper-cases the first rune.
// Best effort: a no-op for scripts without case.
func capitalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(text)
	upper := unicode.ToUpper(r)
	if upper == r {
		return text
	}
	return string(upper) + text[size:]
}
