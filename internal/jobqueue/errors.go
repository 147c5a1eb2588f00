package jobqueue

import "errors"

// ErrQueueFull is returned by TryEnqueue when the admission queue is at
// capacity. Submitters surface it immediately instead of blocking.
var ErrQueueFull = errors.New("transcription queue is full")
