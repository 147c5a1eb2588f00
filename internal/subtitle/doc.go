// Package subtitle converts word-level transcription output into timed
// subtitle cues and renders them as WebVTT or SubRip text.
package subtitle
