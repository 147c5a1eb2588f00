package subtitle

import (
	"strings"
	"unicode/utf8"
)

// stopChars are clause and sentence boundaries across the scripts whisper
// models emit: Latin punctuation, the one-dot and two-dot leaders, CJK
// fullwidth marks, Devanagari danda, Ethiopic and Syriac terminators, Arabic
// question/semicolon, Burmese sections, and the reversed/doubled question
// forms.
const stopChars = ".!?,:;…‥" +
	"。！？，、；：" +
	"।" +
	"܀።፧" +
	"؟؛" +
	"၊။"

var stopSet = func() map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range stopChars {
		set[r] = struct{}{}
	}
	for _, r := range "⸮⁇⁈⁉" {
		set[r] = struct{}{}
	}
	return set
}()

// endsWithStopChar reports whether the last rune of text is a stop character.
func endsWithStopChar(text string) bool {
	r, size := utf8.DecodeLastRuneInString(text)
	if size == 0 {
		return false
	}
	_, ok := stopSet[r]
	return ok
}

// trimLastRune removes exactly one trailing rune.
func trimLastRune(text string) string {
	_, size := utf8.DecodeLastRuneInString(text)
	return text[:len(text)-size]
}

// Build splits one raw segment into subtitle cues at stop-character
// boundaries. The returned count is the number of word tokens in the segment,
// independent of how many cues were produced.
//
// Word text is accumulated verbatim, so whitespace carried on tokens survives
// until render time. When a word ends with a stop character, that single
// character is stripped and the accumulated text becomes a cue, provided the
// cue spans a non-zero interval and is non-blank. A word that is nothing but a
// stop character leaves the accumulator open so the following words extend the
// same cue.
func Build(seg Segment) ([]Cue, int) {
	var cues []Cue
	last := len(seg.Words) - 1

	var (
		buffer strings.Builder
		start  float64
		end    float64
		active bool
	)

	for i, word := range seg.Words {
		if !active {
			start = word.Start
			active = true
		}
		end = word.End
		buffer.WriteString(word.Text)

		// Segment bounds occasionally disagree with the word timestamps at
		// the edges; the edge words win.
		if i == 0 && seg.Start < word.Start {
			start = word.Start
		}
		if i == last && seg.End > word.End {
			end = seg.End
		}

		if !endsWithStopChar(word.Text) {
			continue
		}

		text := trimLastRune(buffer.String())
		if text == "" {
			// The word was a bare stop character; keep accumulating into
			// the same open cue.
			buffer.Reset()
			continue
		}
		if start < end && strings.TrimSpace(text) != "" {
			cues = append(cues, Cue{Text: text, Start: start, End: end})
		}
		buffer.Reset()
		active = false
	}

	if text := buffer.String(); text != "" && start < end && strings.TrimSpace(text) != "" {
		cues = append(cues, Cue{Text: text, Start: start, End: end})
	}

	return cues, len(seg.Words)
}

// BuildAll runs Build over every segment in order.
func BuildAll(segments []Segment) ([]Cue, int) {
	var cues []Cue
	total := 0
	for _, seg := range segments {
		segCues, count := Build(seg)
		cues = append(cues, segCues...)
		total += count
	}
	return cues, total
}
