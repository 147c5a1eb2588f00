package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNotReady is returned by Result while a job is still pending or
// processing.
var ErrNotReady = errors.New("job not ready")

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// Client talks to the daemon HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon listening at bind ("host:port" or
// a full URL).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit uploads audio for asynchronous transcription.
func (c *Client) Submit(ctx context.Context, filename string, audio []byte, lang, format string) (*SubmitResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if lang != "" {
		if err := writer.WriteField("language", lang); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
	}
	if format != "" {
		if err := writer.WriteField("format", format); err != nil {
			return nil, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp SubmitResponse
	if err := c.do(req, http.StatusAccepted, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches a job snapshot.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	var status JobStatus
	if err := c.do(req, http.StatusOK, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Result fetches the rendered subtitle text for a completed job. While the
// job is pending or processing it returns ErrNotReady.
func (c *Client) Result(ctx context.Context, jobID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+jobID+"/result", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return string(data), nil
	case http.StatusAccepted:
		return "", ErrNotReady
	case http.StatusNotFound:
		return "", ErrNotFound
	default:
		return "", decodeError(resp.StatusCode, data)
	}
}

// QueueStats fetches pool and queue occupancy.
func (c *Client) QueueStats(ctx context.Context) (*QueueStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/queue", nil)
	if err != nil {
		return nil, err
	}
	var stats QueueStats
	if err := c.do(req, http.StatusOK, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health fetches daemon health and dependency availability.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, err
	}
	var health HealthResponse
	if err := c.do(req, http.StatusOK, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != wantStatus {
		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func decodeError(status int, data []byte) error {
	var payload ErrorResponse
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", status, payload.Error)
	}
	return fmt.Errorf("daemon returned %d", status)
}
