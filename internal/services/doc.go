// Package services provides the shared error taxonomy used across the
// transcription pipeline. Errors are tagged with sentinel markers so callers
// (the HTTP layer, the worker pool) can classify failures without string
// matching.
package services
