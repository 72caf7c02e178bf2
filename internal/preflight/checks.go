package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"subvoice/internal/config"
	"subvoice/internal/deps"
	"subvoice/internal/logging"
	"subvoice/internal/profiles"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.Translation) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetError("LLM API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckRecognition verifies the speaker-recognition API key against the service.
func CheckRecognition(ctx context.Context, cfg *config.Config) Result {
	const name = "Recognition API"
	if strings.TrimSpace(cfg.Recognition.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing (set PYANNOTE_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := recognition.NewClient(recognition.Config{
		APIKey:                cfg.Recognition.APIKey,
		BaseURL:               cfg.Recognition.BaseURL,
		RequestTimeoutSeconds: cfg.Recognition.RequestTimeoutSeconds,
	}, recognition.WithLogger(logging.NewNop()))
	if err := client.Ping(checkCtx); err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			return Result{Name: name, Detail: "auth failed (invalid api key)"}
		}
		return Result{Name: name, Detail: summarizeNetError("recognition API", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckOpenAIKey reports whether the OpenAI transcription backend has a key.
func CheckOpenAIKey(apiKey string) Result {
	const name = "OpenAI transcription"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "API key missing (set OPENAI_API_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "API key configured"}
}

// CheckProfileStore reports how many speakers are enrolled. A missing store
// passes since diarization needs none.
func CheckProfileStore(path string) Result {
	const name = "Profile store"
	snapshot, err := profiles.NewStore(path, logging.NewNop()).Load()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if len(snapshot) == 0 {
		return Result{Name: name, Passed: true, Detail: "no speakers enrolled (identify mode unavailable)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d speakers enrolled", len(snapshot))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the executables required by the configured backends.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and caption burn-in",
		},
	}
	if cfg.Transcription.Backend == "whisperx" {
		requirements = append(requirements, deps.Requirement{
			Name:        "uvx",
			Command:     "uvx",
			Description: "Required for WhisperX-driven transcription",
		})
	}
	results := deps.CheckBinaries(requirements)
	if results[0].Available {
		results = append(results, deps.CheckFFmpegFilter(ctx, cfg.FFmpegBinary(), "subtitles", nil))
	}
	return results
}

func summarizeNetError(service string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", service)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", service)
	}
	return err.Error()
}
