package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelala/audio2vtt/internal/jobqueue"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/services"
	"github.com/hirelala/audio2vtt/internal/subtitle"
)

// Transcriber is the external speech engine collaborator. Implementations are
// expected to load their model once and tolerate concurrent calls.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename, language string) ([]subtitle.Segment, error)
}

// Manager owns the worker pool over the admission queue and the job store.
type Manager struct {
	store       *jobqueue.Store
	queue       *jobqueue.FIFO
	transcriber Transcriber
	logger      *slog.Logger
	workerCount int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Info summarizes pool and queue state for status endpoints.
type Info struct {
	Workers   int
	QueueSize int
	Capacity  int
	Counts    jobqueue.Counts
}

// NewManager constructs a worker pool with the given fixed size.
func NewManager(store *jobqueue.Store, queue *jobqueue.FIFO, transcriber Transcriber, logger *slog.Logger, workerCount int) *Manager {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Manager{
		store:       store,
		queue:       queue,
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "workflow"),
		workerCount: workerCount,
	}
}

// Start spawns the worker loops.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(m.workerCount)
	for i := 0; i < m.workerCount; i++ {
		go m.runWorker(runCtx, i)
	}
	m.logger.Info("workers started", logging.Int("workers", m.workerCount))
	return nil
}

// Stop signals all workers to exit and waits for them. Jobs mid-transcription
// are abandoned in whatever state they were in; only the waiting loops are
// canceled.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("workers stopped")
}

// Running reports whether the pool has been started.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Submit registers a new pending job and attempts a non-blocking enqueue.
// When the queue is at capacity the job is recorded as failed and the caller
// receives an unavailability error immediately.
func (m *Manager) Submit(ctx context.Context, audio []byte, filename, language string, format subtitle.Format) (string, error) {
	if len(audio) == 0 {
		return "", services.Wrap(services.ErrValidation, "workflow", "submit", "empty audio payload", nil)
	}

	job := &jobqueue.Job{
		ID:       uuid.NewString(),
		Filename: strings.TrimSpace(filename),
		Language: strings.TrimSpace(language),
		Format:   format,
		Audio:    audio,
	}
	if err := m.store.Register(ctx, job); err != nil {
		return "", services.Wrap(services.ErrTransient, "workflow", "submit", "register job", err)
	}

	if err := m.queue.TryEnqueue(job.ID); err != nil {
		if failErr := m.store.Fail(ctx, job.ID, jobqueue.ErrQueueFull.Error()); failErr != nil {
			m.logger.Warn("failed to mark rejected job",
				logging.String("job_id", job.ID),
				logging.Error(failErr),
			)
		}
		m.logger.Warn("submission rejected, queue at capacity",
			logging.String("job_id", job.ID),
			logging.Int("capacity", m.queue.Capacity()),
		)
		return "", services.Wrap(services.ErrUnavailable, "workflow", "submit", "", err)
	}

	m.logger.Info("job submitted",
		logging.String("job_id", job.ID),
		logging.String("filename", job.Filename),
		logging.Int("queue_depth", m.queue.Depth()),
	)
	return job.ID, nil
}

// Info reports pool size, queue occupancy, and per-status job counts.
func (m *Manager) Info(ctx context.Context) (Info, error) {
	counts, err := m.store.Counts(ctx)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Workers:   m.workerCount,
		QueueSize: m.queue.Depth(),
		Capacity:  m.queue.Capacity(),
		Counts:    counts,
	}, nil
}

func (m *Manager) runWorker(ctx context.Context, index int) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int("worker", index))
	logger.Debug("worker loop started")

	for {
		id, ok := m.queue.Dequeue(ctx)
		if !ok {
			logger.Debug("worker loop exiting")
			return
		}
		m.process(ctx, logger, id)
	}
}

// process drives one job to a terminal state. Failures become job data; they
// never escape to kill the worker loop.
func (m *Manager) process(ctx context.Context, logger *slog.Logger, id string) {
	job, err := m.store.Claim(ctx, id)
	if err != nil {
		logger.Error("claim failed", logging.String("job_id", id), logging.Error(err))
		return
	}
	if job == nil {
		// Already failed at admission or otherwise gone; the queue slot is
		// consumed either way.
		logger.Debug("dequeued job no longer pending", logging.String("job_id", id))
		return
	}

	logger.Info("job processing",
		logging.String("job_id", job.ID),
		logging.String("filename", job.Filename),
	)
	started := time.Now()

	segments, err := m.transcriber.Transcribe(ctx, job.Audio, job.Filename, job.Language)
	if err != nil {
		m.failJob(ctx, logger, job.ID, err)
		return
	}

	cues, wordCount := subtitle.BuildAll(segments)
	content := subtitle.Render(cues, job.Format)

	if err := m.store.Complete(ctx, job.ID, content, wordCount); err != nil {
		logger.Error("completion bookkeeping failed", logging.String("job_id", job.ID), logging.Error(err))
		return
	}
	summary := subtitle.Summarize(content)
	logger.Info("job completed",
		logging.String("job_id", job.ID),
		logging.Int("cues", summary.CueCount),
		logging.Float64("last_cue_end", summary.LastSecond),
		logging.Int("words", wordCount),
		logging.Duration("elapsed", time.Since(started)),
	)
}

func (m *Manager) failJob(ctx context.Context, logger *slog.Logger, id string, cause error) {
	if err := m.store.Fail(ctx, id, cause.Error()); err != nil {
		logger.Error("failure bookkeeping failed", logging.String("job_id", id), logging.Error(err))
		return
	}
	logger.Warn("job failed", logging.String("job_id", id), logging.Error(cause))
}
