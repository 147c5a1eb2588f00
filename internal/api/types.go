// Package api defines the HTTP payloads exchanged between the daemon and its
// clients, plus a small client used by the CLI.
package api

// SubmitResponse acknowledges an accepted transcription job.
type SubmitResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// JobStatus is a point-in-time snapshot of one job.
type JobStatus struct {
	JobID       string `json:"job_id"`
	Filename    string `json:"filename"`
	Language    string `json:"language,omitempty"`
	Format      string `json:"format"`
	Status      string `json:"status"`
	WordCount   int    `json:"word_count,omitempty"`
	Result      string `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// QueueStats describes worker pool occupancy and job counts.
type QueueStats struct {
	Workers      int `json:"workers"`
	QueueSize    int `json:"queue_size"`
	MaxQueueSize int `json:"max_queue_size"`
	TotalJobs    int `json:"total_jobs"`
	Pending      int `json:"pending"`
	Processing   int `json:"processing"`
	Completed    int `json:"completed"`
	Failed       int `json:"failed"`
}

// DependencyStatus describes availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// PreflightResult describes one startup sanity check.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse reports daemon liveness and environment.
type HealthResponse struct {
	Status       string             `json:"status"`
	Model        string             `json:"model"`
	Workers      int                `json:"workers"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
	Preflight    []PreflightResult  `json:"preflight,omitempty"`
}

// ErrorResponse carries a machine-readable error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
