package jobqueue

import (
	"time"

	"github.com/hirelala/audio2vtt/internal/subtitle"
)

// Status represents the lifecycle of a transcription job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// IsValid reports whether the status is one of the four lifecycle states.
func (s Status) IsValid() bool {
	_, ok := statusSet[s]
	return ok
}

// Terminal reports whether the status never transitions again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// allowedTransitions is the complete state machine. Pending jobs either get
// claimed by a worker or fail immediately at admission time; processing jobs
// reach exactly one terminal state.
var allowedTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// ValidTransition reports whether moving a job from one status to another is
// permitted.
func ValidTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Job is a single transcription request and its outcome. A job is created
// pending, mutated only by the worker that claims it, and frozen once it
// reaches a terminal state.
type Job struct {
	ID           string
	Filename     string
	Language     string
	Format       subtitle.Format
	Audio        []byte
	Status       Status
	Result       string
	ErrorMessage string
	WordCount    int
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Counts aggregates per-status job totals. Each counter is derived from its
// own scan, so the set is not a single atomic snapshot.
type Counts struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Failed     int
}
