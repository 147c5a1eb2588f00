// Package main hosts the audio2vtt CLI entrypoint and command graph.
//
// The Cobra-based command tree covers local one-shot transcription plus
// HTTP calls against the daemon for asynchronous jobs, queue inspection,
// dependency checks, and configuration scaffolding. It centralizes
// configuration resolution and server discovery so subcommands can focus on
// user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
