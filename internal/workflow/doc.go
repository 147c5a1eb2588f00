// Package workflow runs the transcription worker pool: a fixed number of
// long-lived workers that drain the admission queue, call the speech engine,
// and record each job's outcome on the store.
package workflow
