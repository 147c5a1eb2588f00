package subtitle

// Word is a single token with its timestamps as reported by the transcriber.
// Text may carry leading whitespace; it is concatenated verbatim and only the
// final cue text is trimmed.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Segment is one raw transcriber segment. Start and End are VAD-derived bounds
// that may be looser than the first/last word's own timestamps.
type Segment struct {
	Start float64
	End   float64
	Words []Word
}

// Cue is a single timed subtitle entry. Cues produced by Build always satisfy
// Start < End and have non-empty text after trimming.
type Cue struct {
	Text  string
	Start float64
	End   float64
}
