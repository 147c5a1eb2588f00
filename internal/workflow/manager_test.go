package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hirelala/audio2vtt/internal/jobqueue"
	"github.com/hirelala/audio2vtt/internal/logging"
	"github.com/hirelala/audio2vtt/internal/services"
	"github.com/hirelala/audio2vtt/internal/subtitle"
	"github.com/hirelala/audio2vtt/internal/workflow"
)

type stubTranscriber struct {
	mu        sync.Mutex
	active    int
	maxActive int
	calls     int
	delay     time.Duration
	err       error
	segments  []subtitle.Segment
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte, filename, language string) ([]subtitle.Segment, error) {
	s.mu.Lock()
	s.calls++
	s.active++
	if s.active > s.maxActive {
		s.maxActive = s.active
	}
	err := s.err
	segments := s.segments
	s.mu.Unlock()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.active--
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return segments, nil
}

func newTestManager(t *testing.T, transcriber workflow.Transcriber, workers, capacity int) (*workflow.Manager, *jobqueue.Store) {
	t.Helper()
	store, err := jobqueue.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	queue := jobqueue.NewFIFO(capacity)
	return workflow.NewManager(store, queue, transcriber, logging.NewNop(), workers), store
}

func waitForTerminal(t *testing.T, store *jobqueue.Store, id string) *jobqueue.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if job != nil && job.Status.Terminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", id)
	return nil
}

func TestManagerProcessesJob(t *testing.T) {
	transcriber := &stubTranscriber{
		segments: []subtitle.Segment{{
			Start: 0, End: 1,
			Words: []subtitle.Word{
				{Text: "hello", Start: 0, End: 0.5},
				{Text: " there.", Start: 0.5, End: 1},
			},
		}},
	}
	manager, store := newTestManager(t, transcriber, 1, 4)

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	id, err := manager.Submit(ctx, []byte{1, 2, 3}, "clip.mp3", "en", subtitle.FormatVTT)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	job := waitForTerminal(t, store, id)
	if job.Status != jobqueue.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", job.Status, job.ErrorMessage)
	}
	if job.WordCount != 2 {
		t.Fatalf("expected word count 2, got %d", job.WordCount)
	}
	if job.Result == "" || job.Result[:6] != "WEBVTT" {
		t.Fatalf("unexpected result: %q", job.Result)
	}
	if job.StartedAt == nil || job.CompletedAt == nil {
		t.Fatalf("expected timestamps recorded: %#v", job)
	}
}

func TestManagerRecordsFailureAndKeepsServing(t *testing.T) {
	transcriber := &stubTranscriber{err: errors.New("corrupt audio")}
	manager, store := newTestManager(t, transcriber, 1, 4)

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	first, err := manager.Submit(ctx, []byte{1}, "bad.mp3", "", subtitle.FormatSRT)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	failed := waitForTerminal(t, store, first)
	if failed.Status != jobqueue.StatusFailed {
		t.Fatalf("expected failed, got %s", failed.Status)
	}
	if failed.ErrorMessage != "corrupt audio" {
		t.Fatalf("unexpected error message %q", failed.ErrorMessage)
	}

	// The worker loop must survive the failure and pick up the next job.
	transcriber.mu.Lock()
	transcriber.err = nil
	transcriber.mu.Unlock()
	second, err := manager.Submit(ctx, []byte{2}, "good.mp3", "", subtitle.FormatSRT)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if job := waitForTerminal(t, store, second); job.Status != jobqueue.StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", job.Status, job.ErrorMessage)
	}
}

func TestManagerAdmissionControl(t *testing.T) {
	// Pool not started: nothing drains the queue.
	manager, store := newTestManager(t, &stubTranscriber{}, 1, 3)
	ctx := context.Background()

	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := manager.Submit(ctx, []byte{1}, fmt.Sprintf("clip-%d.mp3", i), "", subtitle.FormatVTT)
		if err != nil {
			t.Fatalf("submission %d rejected: %v", i, err)
		}
		ids = append(ids, id)
	}

	_, err := manager.Submit(ctx, []byte{1}, "overflow.mp3", "", subtitle.FormatVTT)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	if counts.Pending != 3 || counts.Failed != 1 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
	for _, id := range ids {
		job, _ := store.Get(ctx, id)
		if job.Status != jobqueue.StatusPending {
			t.Fatalf("accepted job %s should stay pending, got %s", id, job.Status)
		}
	}
}

func TestManagerConcurrencyBound(t *testing.T) {
	transcriber := &stubTranscriber{
		delay: 30 * time.Millisecond,
		segments: []subtitle.Segment{{
			End:   1,
			Words: []subtitle.Word{{Text: "ok", Start: 0, End: 1}},
		}},
	}
	manager, store := newTestManager(t, transcriber, 2, 8)

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		id, err := manager.Submit(ctx, []byte{1}, fmt.Sprintf("clip-%d.mp3", i), "", subtitle.FormatVTT)
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, id)
	}
	for _, id := range ids {
		waitForTerminal(t, store, id)
	}

	transcriber.mu.Lock()
	maxActive := transcriber.maxActive
	calls := transcriber.calls
	transcriber.mu.Unlock()
	if maxActive > 2 {
		t.Fatalf("observed %d concurrent transcriptions with 2 workers", maxActive)
	}
	if calls != 6 {
		t.Fatalf("expected 6 transcriber calls, got %d", calls)
	}
}

func TestManagerTerminalSnapshotStable(t *testing.T) {
	transcriber := &stubTranscriber{
		segments: []subtitle.Segment{{
			End:   1,
			Words: []subtitle.Word{{Text: "done.", Start: 0, End: 1}},
		}},
	}
	manager, store := newTestManager(t, transcriber, 1, 2)

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()

	id, err := manager.Submit(ctx, []byte{1}, "clip.mp3", "", subtitle.FormatVTT)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	first := waitForTerminal(t, store, id)

	for i := 0; i < 5; i++ {
		again, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if again.Status != first.Status || again.Result != first.Result {
			t.Fatalf("terminal snapshot changed: %#v vs %#v", first, again)
		}
	}
}

func TestManagerStartStop(t *testing.T) {
	manager, _ := newTestManager(t, &stubTranscriber{}, 2, 2)
	ctx := context.Background()

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := manager.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}
	if !manager.Running() {
		t.Fatal("expected Running after Start")
	}
	manager.Stop()
	if manager.Running() {
		t.Fatal("expected not Running after Stop")
	}
	// Stop again is a no-op.
	manager.Stop()
}

func TestManagerInfo(t *testing.T) {
	manager, _ := newTestManager(t, &stubTranscriber{}, 3, 5)
	ctx := context.Background()

	if _, err := manager.Submit(ctx, []byte{1}, "a.mp3", "", subtitle.FormatVTT); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	info, err := manager.Info(ctx)
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if info.Workers != 3 || info.Capacity != 5 || info.QueueSize != 1 {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.Counts.Total != 1 || info.Counts.Pending != 1 {
		t.Fatalf("unexpected counts: %#v", info.Counts)
	}
}

func TestManagerRejectsEmptyAudio(t *testing.T) {
	manager, _ := newTestManager(t, &stubTranscriber{}, 1, 1)
	if _, err := manager.Submit(context.Background(), nil, "a.mp3", "", subtitle.FormatVTT); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// captureHandler records every log line as a flat key/value map so tests can
// assert on individual attributes.
type captureHandler struct {
	mu      *sync.Mutex
	records *[]map[string]any
	attrs   []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]any{"msg": r.Message}
	for _, attr := range h.attrs {
		fields[attr.Key] = attr.Value.Any()
	}
	r.Attrs(func(attr slog.Attr) bool {
		fields[attr.Key] = attr.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.records = append(*h.records, fields)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &captureHandler{mu: h.mu, records: h.records, attrs: merged}
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func TestManagerLogsCompletionSummary(t *testing.T) {
	transcriber := &stubTranscriber{
		segments: []subtitle.Segment{{
			Start: 0, End: 2,
			Words: []subtitle.Word{
				{Text: "hello", Start: 0, End: 0.5},
				{Text: " there.", Start: 0.5, End: 1},
			},
		}},
	}
	store, err := jobqueue.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var mu sync.Mutex
	var records []map[string]any
	logger := slog.New(&captureHandler{mu: &mu, records: &records})
	manager := workflow.NewManager(store, jobqueue.NewFIFO(4), transcriber, logger, 1)

	ctx := context.Background()
	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	id, err := manager.Submit(ctx, []byte{1, 2, 3}, "clip.mp3", "en", subtitle.FormatVTT)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	waitForTerminal(t, store, id)
	manager.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, record := range records {
		if record["msg"] != "job completed" {
			continue
		}
		cues, ok := record["cues"].(int64)
		if !ok || cues < 1 {
			t.Fatalf("expected cue count in completion log, got %#v", record["cues"])
		}
		lastEnd, ok := record["last_cue_end"].(float64)
		if !ok || lastEnd <= 0 {
			t.Fatalf("expected last cue end in completion log, got %#v", record["last_cue_end"])
		}
		return
	}
	t.Fatalf("no completion log record found in %#v", records)
}
