package transcribe

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hirelala/audio2vtt/internal/subtitle"
)

type payloadWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type payloadSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []payloadWord `json:"words"`
}

type payload struct {
	Segments []payloadSegment `json:"segments"`
	Language string           `json:"language"`
}

// loadSegments parses the engine's JSON output into raw subtitle segments.
func loadSegments(path string) ([]subtitle.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse engine json: %w", err)
	}

	segments := make([]subtitle.Segment, 0, len(p.Segments))
	for _, seg := range p.Segments {
		words := make([]subtitle.Word, 0, len(seg.Words))
		for _, word := range seg.Words {
			words = append(words, subtitle.Word{
				Text:  word.Word,
				Start: word.Start,
				End:   word.End,
			})
		}
		segments = append(segments, subtitle.Segment{
			Start: seg.Start,
			End:   seg.End,
			Words: words,
		})
	}
	return segments, nil
}
