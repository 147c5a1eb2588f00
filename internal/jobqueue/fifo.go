package jobqueue

import "context"

// FIFO is a bounded first-in-first-out buffer of job ids. Enqueueing never
// blocks: once the buffer is full, submissions are rejected outright so
// callers get bounded-latency feedback.
type FIFO struct {
	ch       chan string
	capacity int
}

// NewFIFO creates a queue with the given capacity. Capacity must be positive.
func NewFIFO(capacity int) *FIFO {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO{ch: make(chan string, capacity), capacity: capacity}
}

// TryEnqueue appends a job id, or returns ErrQueueFull when at capacity.
func (q *FIFO) TryEnqueue(id string) error {
	select {
	case q.ch <- id:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue blocks until a job id is available or the context is canceled.
// The second return value is false on cancellation.
func (q *FIFO) Dequeue(ctx context.Context) (string, bool) {
	select {
	case id := <-q.ch:
		return id, true
	case <-ctx.Done():
		return "", false
	}
}

// Depth returns the number of ids currently buffered.
func (q *FIFO) Depth() int {
	return len(q.ch)
}

// Capacity returns the fixed buffer size.
func (q *FIFO) Capacity() int {
	return q.capacity
}
