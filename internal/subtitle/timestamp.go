package subtitle

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTimestamp converts an HH:MM:SS.mmm or HH:MM:SS,mmm timestamp back to
// seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Summary describes rendered subtitle content.
type Summary struct {
	CueCount   int
	LastSecond float64
}

// Summarize counts cue blocks and finds the latest end timestamp in rendered
// subtitle text. Used for CLI reporting and daemon logging.
func Summarize(content string) Summary {
	var summary Summary

	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "WEBVTT")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return summary
	}

	for _, block := range strings.Split(trimmed, "\n\n") {
		if strings.TrimSpace(block) != "" {
			summary.CueCount++
		}
	}

	for _, line := range strings.Split(trimmed, "\n") {
		if !strings.Contains(line, "-->") {
			continue
		}
		parts := strings.Split(line, "-->")
		if len(parts) != 2 {
			continue
		}
		if seconds, err := ParseTimestamp(parts[1]); err == nil && seconds > summary.LastSecond {
			summary.LastSecond = seconds
		}
	}

	return summary
}
