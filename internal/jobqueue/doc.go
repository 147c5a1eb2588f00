// Package jobqueue holds transcription job state: the lifecycle model, the
// in-memory job store, and the bounded admission queue. Job history lives only
// for the lifetime of the process; a restart discards it.
package jobqueue
