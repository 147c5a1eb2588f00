package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hirelala/audio2vtt/internal/api"
	"github.com/hirelala/audio2vtt/internal/config"
	"github.com/hirelala/audio2vtt/internal/jobqueue"
	"github.com/hirelala/audio2vtt/internal/language"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/media"
	"github.com/hirelala/audio2vtt/internal/services"
	"github.com/hirelala/audio2vtt/internal/subtitle"
)

// maxUploadBytes bounds the in-memory footprint per upload request.
const maxUploadBytes = 512 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/", srv.handleJob)
	mux.HandleFunc("/api/queue", srv.handleQueue)
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	audio, filename, langParam, formatParam, ok := s.readSubmission(w, r)
	if !ok {
		return
	}

	// Reject payloads no known container signature matches before they
	// occupy a queue slot.
	if _, err := media.DetectFormat(audio); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lang, err := language.Canonicalize(langParam)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := subtitle.ParseFormat(formatParam)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobID, err := s.daemon.Submit(r.Context(), audio, filename, lang, format)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnavailable):
			s.writeError(w, http.StatusServiceUnavailable, jobqueue.ErrQueueFull.Error())
		case errors.Is(err, services.ErrValidation):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{
		JobID:  jobID,
		Status: string(jobqueue.StatusPending),
	})
}

// readSubmission extracts the audio payload and submission metadata from a
// multipart upload, or from a raw request body with metadata in the query
// string. It writes the error response itself and reports success via ok.
func (s *apiServer) readSubmission(w http.ResponseWriter, r *http.Request) (audio []byte, filename, lang, format string, ok bool) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid multipart upload")
			return nil, "", "", "", false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "missing file field")
			return nil, "", "", "", false
		}
		defer file.Close()

		audio, err = io.ReadAll(file)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "failed to read upload")
			return nil, "", "", "", false
		}
		return audio, header.Filename, r.FormValue("language"), r.FormValue("format"), true
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read upload")
		return nil, "", "", "", false
	}
	if len(audio) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty request body")
		return nil, "", "", "", false
	}
	query := r.URL.Query()
	filename = query.Get("filename")
	if filename == "" {
		filename = "upload"
	}
	return audio, filename, query.Get("language"), query.Get("format"), true
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	id, wantResult := strings.CutSuffix(rest, "/result")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	job, err := s.daemon.Job(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	if wantResult {
		s.writeResult(w, job)
		return
	}
	s.writeJSON(w, http.StatusOK, jobStatusPayload(job))
}

// writeResult serves the rendered subtitle for completed jobs and signals
// in-flight or failed states otherwise.
func (s *apiServer) writeResult(w http.ResponseWriter, job *jobqueue.Job) {
	switch job.Status {
	case jobqueue.StatusCompleted:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := io.WriteString(w, job.Result); err != nil {
			s.log().Error("failed to write result", logging.Error(err))
		}
	case jobqueue.StatusFailed:
		message := job.ErrorMessage
		if message == "" {
			message = "transcription failed"
		}
		s.writeError(w, http.StatusInternalServerError, message)
	default:
		s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{
			JobID:  job.ID,
			Status: string(job.Status),
		})
	}
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	info, err := s.daemon.Info(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueStats{
		Workers:      info.Workers,
		QueueSize:    info.QueueSize,
		MaxQueueSize: info.Capacity,
		TotalJobs:    info.Counts.Total,
		Pending:      info.Counts.Pending,
		Processing:   info.Counts.Processing,
		Completed:    info.Counts.Completed,
		Failed:       info.Counts.Failed,
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health := s.daemon.Health(r.Context())

	statuses := make([]api.DependencyStatus, len(health.Dependencies))
	for i, dep := range health.Dependencies {
		statuses[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	checks := make([]api.PreflightResult, len(health.Preflight))
	for i, check := range health.Preflight {
		checks[i] = api.PreflightResult{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		}
	}

	status := "ok"
	if !health.Running {
		status = "stopped"
	}
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:       status,
		Model:        health.Model,
		Workers:      health.Workers,
		Dependencies: statuses,
		Preflight:    checks,
	})
}

func jobStatusPayload(job *jobqueue.Job) api.JobStatus {
	payload := api.JobStatus{
		JobID:     job.ID,
		Filename:  job.Filename,
		Language:  job.Language,
		Format:    string(job.Format),
		Status:    string(job.Status),
		WordCount: job.WordCount,
		Result:    job.Result,
		Error:     job.ErrorMessage,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		payload.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		payload.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return payload
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
