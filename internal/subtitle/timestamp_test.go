package subtitle_test

import (
	"testing"

	"github.com/hirelala/audio2vtt/internal/subtitle"
)

func TestParseTimestampRoundTrip(t *testing.T) {
	cases := []float64{0, 1.5, 59.999, 3661.123, 7322.5}
	for _, seconds := range cases {
		for _, format := range []subtitle.Format{subtitle.FormatVTT, subtitle.FormatSRT} {
			rendered := subtitle.FormatTimestamp(seconds, format)
			parsed, err := subtitle.ParseTimestamp(rendered)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) failed: %v", rendered, err)
			}
			diff := parsed - seconds
			if diff < -0.001 || diff > 0.001 {
				t.Fatalf("round trip of %v via %q gave %v", seconds, rendered, parsed)
			}
		}
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "1:2", "aa:bb:cc,ddd", "00:00:00"} {
		if _, err := subtitle.ParseTimestamp(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}

func TestSummarize(t *testing.T) {
	cues := []subtitle.Cue{
		{Text: "one", Start: 0, End: 1.5},
		{Text: "two", Start: 2, End: 4.25},
	}
	content := subtitle.Render(cues, subtitle.FormatVTT)

	summary := subtitle.Summarize(content)
	if summary.CueCount != 2 {
		t.Fatalf("expected 2 cues, got %d", summary.CueCount)
	}
	if summary.LastSecond < 4.2 || summary.LastSecond > 4.3 {
		t.Fatalf("unexpected last timestamp %v", summary.LastSecond)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	summary := subtitle.Summarize("WEBVTT\n\n")
	if summary.CueCount != 0 || summary.LastSecond != 0 {
		t.Fatalf("unexpected summary for empty content: %#v", summary)
	}
}
