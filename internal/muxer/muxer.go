// Package muxer burns SRT captions into a video with ffmpeg.
package muxer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subvoice/internal/logging"
	"subvoice/internal/services"
)

// CommandRunner executes name with args and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures the encoder.
type Options struct {
	FFmpegBinary string
	VideoCodec   string
	Preset       string
	// Style is passed to the subtitles filter as force_style.
	Style string
}

// Request describes one burn-in.
type Request struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
}

// Result reports the outcome of a burn-in.
type Result struct {
	OutputPath string
	Args       []string
}

// Muxer renders subtitles into a video stream.
type Muxer struct {
	opts   Options
	logger *slog.Logger
	run    CommandRunner
}

// New constructs a muxer.
func New(opts Options, logger *slog.Logger) *Muxer {
	if opts.FFmpegBinary == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	if opts.VideoCodec == "" {
		opts.VideoCodec = "libx264"
	}
	if opts.Preset == "" {
		opts.Preset = "ultrafast"
	}
	return &Muxer{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "muxer"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (m *Muxer) WithCommandRunner(r CommandRunner) {
	if m != nil && r != nil {
		m.run = r
	}
}

// BurnIn re-encodes the video with the subtitles drawn on every frame. Audio
// is copied. Output appears at req.OutputPath only on success.
func (m *Muxer) BurnIn(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.VideoPath) == "" || strings.TrimSpace(req.SubtitlePath) == "" || strings.TrimSpace(req.OutputPath) == "" {
		return Result{}, services.Wrap(services.ErrValidation, services.StageMux, "burn in", "video, subtitle and output paths are required", nil)
	}
	if strings.Contains(m.opts.Style, "'") {
		return Result{}, services.Wrap(services.ErrConfiguration, services.StageMux, "burn in", "subtitle style must not contain single quotes", nil)
	}
	if _, err := os.Stat(req.VideoPath); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageMux, "burn in", "source video not found", err)
	}
	if _, err := os.Stat(req.SubtitlePath); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageMux, "burn in", "subtitle file not found", err)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("burn in: ensure output dir: %w", err)
	}

	// Keep the extension so ffmpeg infers the container.
	tmpPath := filepath.Join(filepath.Dir(req.OutputPath), ".mux-"+filepath.Base(req.OutputPath))
	args := m.buildArgs(req, tmpPath)

	m.logger.Debug("executing ffmpeg burn-in",
		logging.String("video_path", req.VideoPath),
		logging.String("subtitle_path", req.SubtitlePath),
		logging.String("codec", m.opts.VideoCodec),
		logging.String("preset", m.opts.Preset),
	)

	if output, err := m.run(ctx, m.opts.FFmpegBinary, args...); err != nil {
		_ = os.Remove(tmpPath)
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			detail = "ffmpeg exited with an error"
		}
		return Result{}, services.Wrap(services.ErrMuxingFailed, services.StageMux, "ffmpeg", detail, err)
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return Result{}, services.Wrap(services.ErrMuxingFailed, services.StageMux, "ffmpeg", "ffmpeg did not produce output file", err)
	}
	if err := os.Rename(tmpPath, req.OutputPath); err != nil {
		_ = os.Remove(tmpPath)
		return Result{}, fmt.Errorf("burn in: move output into place: %w", err)
	}

	m.logger.Info("subtitles burned into video",
		logging.String(logging.FieldEventType, "subtitle_burn_in_complete"),
		logging.String("output_path", req.OutputPath),
	)
	return Result{OutputPath: req.OutputPath, Args: args}, nil
}

func (m *Muxer) buildArgs(req Request, outputPath string) []string {
	filter := "subtitles=" + escapeFilterValue(req.SubtitlePath)
	if m.opts.Style != "" {
		filter += ":force_style='" + m.opts.Style + "'"
	}
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", req.VideoPath,
		"-vf", filter,
		"-c:a", "copy",
		"-c:v", m.opts.VideoCodec,
		"-preset", m.opts.Preset,
		"-y", outputPath,
	}
}

// escapeFilterValue escapes a path for use as a filter option value inside a
// filtergraph: once for the option parser and once for the graph parser.
func escapeFilterValue(value string) string {
	return escapeChars(escapeChars(value, `\':`), `\'[],;`)
}

func escapeChars(value, special string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, fmt.Errorf("%s exited with status %d", name, exitErr.ExitCode())
	}
	return output, err
}
