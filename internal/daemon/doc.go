// Package daemon coordinates the long-running audio2vtt process.
//
// It wires configuration, the job store, the worker pool, and the
// transcription engine into a single lifecycle with flock-based locking to
// prevent multiple instances, and exposes the HTTP API clients submit jobs
// through.
//
// Keep orchestration logic here: segmentation and engine invocation live in
// their own packages while the daemon focuses on startup, shutdown, and
// request routing.
package daemon
