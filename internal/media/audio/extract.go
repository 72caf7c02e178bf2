package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"subvoice/internal/services"
)

// SampleRate is the rate every extracted WAV uses.
const SampleRate = 16000

const defaultFFmpeg = "ffmpeg"

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor converts media into mono 16 kHz PCM WAV.
type Extractor struct {
	FFmpegBinary string
	run          CommandRunner
}

// NewExtractor returns an extractor using ffmpegBinary, or "ffmpeg" when empty.
func NewExtractor(ffmpegBinary string) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = defaultFFmpeg
	}
	return &Extractor{FFmpegBinary: ffmpegBinary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	e.run = runner
}

// ExtractFull writes the first audio stream of source to dest.
func (e *Extractor) ExtractFull(ctx context.Context, source, dest string) error {
	return e.exec(ctx, buildExtractArgs(source, -1, -1, dest))
}

// ExtractSpan writes [start, end) seconds of the first audio stream of source to dest.
func (e *Extractor) ExtractSpan(ctx context.Context, source string, start, end float64, dest string) error {
	if start < 0 || end <= start {
		return services.Wrap(services.ErrValidation, services.StageExtract, "extract span",
			fmt.Sprintf("invalid span %.3f-%.3f", start, end), nil)
	}
	return e.exec(ctx, buildExtractArgs(source, start, end-start, dest))
}

func (e *Extractor) exec(ctx context.Context, args []string) error {
	run := e.run
	if run == nil {
		run = defaultRunner
	}
	if output, err := run(ctx, e.FFmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, services.StageExtract, "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	return nil
}

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// buildExtractArgs seeks before the input when start >= 0 and limits the
// output when duration > 0.
func buildExtractArgs(source string, start, duration float64, dest string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if start >= 0 {
		args = append(args, "-ss", formatSeconds(start))
	}
	if duration > 0 {
		args = append(args, "-t", formatSeconds(duration))
	}
	args = append(args,
		"-i", source,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	)
	return args
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
