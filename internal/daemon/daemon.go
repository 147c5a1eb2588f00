package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/hirelala/audio2vtt/internal/config"
	"github.com/hirelala/audio2vtt/internal/deps"
	"github.com/hirelala/audio2vtt/internal/jobqueue"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/preflight"
	"github.com/hirelala/audio2vtt/internal/subtitle"
	"github.com/hirelala/audio2vtt/internal/workflow"
)

// Daemon coordinates the worker pool, job store, and HTTP API, and enforces
// single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobqueue.Store
	manager *workflow.Manager
	model   string

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Health represents daemon runtime information for the health endpoint.
type Health struct {
	Running      bool
	Model        string
	Workers      int
	Dependencies []deps.Status
	Preflight    []preflight.Result
}

// New constructs a daemon with initialized dependencies. model names the
// loaded whisper model for status reporting.
func New(cfg *config.Config, store *jobqueue.Store, manager *workflow.Manager, model string, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, workflow manager, and logger")
	}

	lockPath := cfg.LockFilePath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		manager:  manager,
		model:    model,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = server
	return d, nil
}

// Start acquires the daemon lock, launches the worker pool, and begins
// serving the HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another audio2vtt daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.manager.Stop()
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.running.Store(true)
	d.logger.Info("audio2vtt daemon started",
		logging.String("lock", d.lockPath),
		logging.String("model", d.model),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("audio2vtt daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound HTTP listen address once started. Useful when
// the configuration asked for port 0.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Submit registers a new transcription job.
func (d *Daemon) Submit(ctx context.Context, audio []byte, filename, language string, format subtitle.Format) (string, error) {
	return d.manager.Submit(ctx, audio, filename, language, format)
}

// Job returns a snapshot of the job, or nil when unknown.
func (d *Daemon) Job(ctx context.Context, id string) (*jobqueue.Job, error) {
	return d.store.Get(ctx, id)
}

// Info reports pool and queue occupancy.
func (d *Daemon) Info(ctx context.Context) (workflow.Info, error) {
	return d.manager.Info(ctx)
}

// Health returns the current daemon health summary.
func (d *Daemon) Health(ctx context.Context) Health {
	info, err := d.manager.Info(ctx)
	if err != nil {
		d.logger.Warn("queue info unavailable", logging.Error(err))
	}
	return Health{
		Running:      d.running.Load(),
		Model:        d.model,
		Workers:      info.Workers,
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
		Preflight:    preflight.Run(d.cfg),
	}
}
