package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subvoice/internal/logging"
	"subvoice/internal/services"
)

const (
	defaultBaseURL           = "https://api.pyannote.ai/v1"
	defaultHTTPTimeout       = 30 * time.Second
	defaultMatchingThreshold = 0.999
	defaultMediaExt          = ".wav"
	maxErrorBody             = 512
)

// Config captures the settings needed to talk to the recognition service.
type Config struct {
	APIKey  string
	BaseURL string
	// MatchingThreshold is sent with identify jobs. It is applied by the
	// service and is unrelated to the client-side trust threshold.
	MatchingThreshold     float64
	RequestTimeoutSeconds int
	Labels                LabelCodec
}

// Client wraps the recognition service HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	// uploadClient is used for presigned PUTs, which may take far longer than API calls.
	uploadClient *http.Client
	sleeper      func(time.Duration)
	newKey       func() string
	logger       *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API and upload calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
			c.uploadClient = client
		}
	}
}

// WithSleeper overrides how poll intervals are waited out (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMediaKeyGenerator overrides the random part of media handles.
func WithMediaKeyGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// NewClient constructs a recognition client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:                strings.TrimSpace(cfg.APIKey),
			BaseURL:               strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			MatchingThreshold:     cfg.MatchingThreshold,
			RequestTimeoutSeconds: cfg.RequestTimeoutSeconds,
			Labels:                cfg.Labels,
		},
		httpClient:   &http.Client{Timeout: timeout},
		uploadClient: &http.Client{},
		newKey:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.cfg.MatchingThreshold <= 0 {
		client.cfg.MatchingThreshold = defaultMatchingThreshold
	}
	client.logger = logging.NewComponentLogger(client.logger, "recognition")
	return client
}

// Labels returns the label codec used for identify jobs.
func (c *Client) Labels() LabelCodec {
	return c.cfg.Labels
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// UploadFile uploads the file at path and returns its media handle.
func (c *Client) UploadFile(ctx context.Context, path string) (MediaHandle, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrUploadFailed, services.StageUpload, "open media", path, err)
	}
	defer file.Close()
	return c.Upload(ctx, filepath.Base(path), file)
}

// Upload requests a presigned upload target for a fresh media key, then PUTs
// the bytes from r to it. name only contributes its extension.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (MediaHandle, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = defaultMediaExt
	}
	handle := MediaHandle("media://" + c.newKey() + ext)

	var target struct {
		URL string `json:"url"`
	}
	if err := c.postJSON(ctx, "/media/input", map[string]string{"url": string(handle)}, &target); err != nil {
		return "", services.Wrap(failureMarker(ctx, services.ErrUploadFailed), services.StageUpload, "request upload location", string(handle), err)
	}
	if strings.TrimSpace(target.URL) == "" {
		return "", services.Wrap(services.ErrUploadFailed, services.StageUpload, "request upload location", "response missing url", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.URL, r)
	if err != nil {
		return "", services.Wrap(services.ErrUploadFailed, services.StageUpload, "transfer media", "build request", err)
	}
	if size := readerSize(r); size >= 0 {
		req.ContentLength = size
	}
	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return "", services.Wrap(failureMarker(ctx, services.ErrUploadFailed), services.StageUpload, "transfer media", string(handle), err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", services.Wrap(services.ErrUploadFailed, services.StageUpload, "transfer media", string(handle), err)
	}

	c.logger.Info("media uploaded",
		logging.String(logging.FieldEventType, "media_uploaded"),
		logging.String("media", string(handle)),
	)
	return handle, nil
}

// StartJob launches a job of the given kind against an uploaded media handle
// and returns the job id. Identify jobs need at least one voiceprint; entries
// without an embedding are skipped and labels pass through SafeLabel.
func (c *Client) StartJob(ctx context.Context, kind JobKind, media MediaHandle, params JobParams) (string, error) {
	op := "start " + string(kind)
	var payload any
	switch kind {
	case KindIdentify:
		voiceprints := make([]Voiceprint, 0, len(params.Voiceprints))
		for _, vp := range params.Voiceprints {
			if isNullJSON(vp.Embedding) || strings.TrimSpace(vp.Label) == "" {
				continue
			}
			voiceprints = append(voiceprints, Voiceprint{
				Label:     c.cfg.Labels.SafeLabel(vp.Label),
				Embedding: vp.Embedding,
			})
		}
		if len(voiceprints) == 0 {
			return "", services.Wrap(services.ErrJobStartFailed, services.StageJobStart, op, "no enrolled voiceprints", services.ErrValidation)
		}
		threshold := params.MatchingThreshold
		if threshold <= 0 {
			threshold = c.cfg.MatchingThreshold
		}
		payload = identifyRequest{
			URL:         string(media),
			Voiceprints: voiceprints,
			Matching:    matchingOptions{Threshold: threshold},
		}
	case KindDiarize, KindVoiceprint:
		payload = map[string]string{"url": string(media)}
	default:
		return "", services.Wrap(services.ErrJobStartFailed, services.StageJobStart, op, "unknown job kind", services.ErrValidation)
	}

	var resp jobResponse
	if err := c.postJSON(ctx, "/"+string(kind), payload, &resp); err != nil {
		return "", services.Wrap(failureMarker(ctx, services.ErrJobStartFailed), services.StageJobStart, op, string(media), err)
	}
	if strings.TrimSpace(resp.JobID) == "" {
		return "", services.Wrap(services.ErrJobStartFailed, services.StageJobStart, op, "response missing jobId", nil)
	}

	c.logger.Info("recognition job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String(logging.FieldJobID, resp.JobID),
		logging.String("kind", string(kind)),
	)
	return resp.JobID, nil
}

type identifyRequest struct {
	URL         string          `json:"url"`
	Voiceprints []Voiceprint    `json:"voiceprints"`
	Matching    matchingOptions `json:"matching"`
}

type matchingOptions struct {
	Threshold float64 `json:"threshold"`
}

// GetJob fetches one snapshot of a job. The output is decoded only once the
// job has succeeded.
func (c *Client) GetJob(ctx context.Context, jobID string) (Job, error) {
	var resp jobResponse
	if err := c.getJSON(ctx, "/jobs/"+url.PathEscape(jobID), &resp); err != nil {
		return Job{}, err
	}
	job := Job{ID: jobID, Status: parseStatus(resp.Status)}
	if job.Status == StatusSucceeded {
		output, err := decodeOutput(resp.Output)
		if err != nil {
			return Job{}, fmt.Errorf("decode job output: %w", err)
		}
		job.Output = output
	}
	if job.Status == StatusFailed {
		job.Message = strings.TrimSpace(resp.Error)
	}
	return job, nil
}

// Ping checks that the API is reachable and accepts the configured key.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.getJSON(ctx, "/test", nil); err != nil {
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && (statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
			return services.Wrap(services.ErrConfiguration, "", "ping", "api key rejected", err)
		}
		return services.Wrap(services.ErrTransient, "", "ping", c.cfg.BaseURL, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, target any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, target)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// failureMarker returns ErrCancelled once ctx is done and marker otherwise.
func failureMarker(ctx context.Context, marker error) error {
	if ctx.Err() != nil {
		return services.ErrCancelled
	}
	return marker
}

// isTransient reports whether a poll failure may succeed on a later attempt.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusRequestTimeout ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode >= http.StatusInternalServerError
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func readerSize(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len())
	case *os.File:
		info, err := v.Stat()
		if err != nil || !info.Mode().IsRegular() {
			return -1
		}
		offset, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		return info.Size() - offset
	default:
		return -1
	}
}
