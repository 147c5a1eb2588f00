// Package transcribe runs the external whisper engine and converts its
// word-timestamp output into raw subtitle segments. The engine is treated as
// a black box: audio in, timestamped words out.
package transcribe
