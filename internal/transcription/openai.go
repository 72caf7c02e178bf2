package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subvoice/internal/services"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1/audio/transcriptions"

// OpenAIConfig configures the OpenAI-compatible speech-to-text backend.
type OpenAIConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	// Language is an ISO 639-1 hint; empty lets the service detect it.
	Language string
	Timeout  time.Duration
}

// OpenAI posts each clip to an /audio/transcriptions endpoint.
type OpenAI struct {
	cfg        OpenAIConfig
	httpClient *http.Client
}

// NewOpenAI builds the backend. A nil client gets one with cfg.Timeout.
func NewOpenAI(cfg OpenAIConfig, client *http.Client) *OpenAI {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultOpenAIEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAI{cfg: cfg, httpClient: client}
}

type openAIResponse struct {
	Text string `json:"text"`
}

// Transcribe implements Transcriber.
func (o *OpenAI) Transcribe(ctx context.Context, _ Span, audioPath string) (string, error) {
	if o.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, services.StageTranscribe, "openai", "api key required", nil)
	}
	body, contentType, err := o.buildForm(audioPath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, services.StageTranscribe, "openai", "build request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.Endpoint, body)
	if err != nil {
		return "", fmt.Errorf("openai transcription: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, services.StageTranscribe, "openai", "request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", services.Wrap(services.ErrExternalTool, services.StageTranscribe, "openai",
			fmt.Sprintf("http %d", resp.StatusCode), fmt.Errorf("%s", strings.TrimSpace(string(snippet))))
	}
	var decoded openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", services.Wrap(services.ErrExternalTool, services.StageTranscribe, "openai", "decode response", err)
	}
	return decoded.Text, nil
}

func (o *OpenAI) buildForm(audioPath string) (*bytes.Buffer, string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", o.cfg.Model); err != nil {
		return nil, "", err
	}
	if o.cfg.Language != "" {
		if err := mw.WriteField("language", o.cfg.Language); err != nil {
			return nil, "", err
		}
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}
