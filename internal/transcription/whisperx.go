package transcription

import (
	"context"
	"os"

	"subvoice/internal/services"
	"subvoice/internal/services/whisperx"
)

// WhisperX runs the local WhisperX CLI on each clip.
type WhisperX struct {
	Service *whisperx.Service
	// WorkDir receives per-call output directories. Defaults to the OS temp dir.
	WorkDir string
}

// NewWhisperX builds a WhisperX transcriber.
func NewWhisperX(cfg whisperx.Config, workDir string) *WhisperX {
	return &WhisperX{Service: whisperx.NewService(cfg), WorkDir: workDir}
}

// Transcribe implements Transcriber.
func (w *WhisperX) Transcribe(ctx context.Context, _ Span, audioPath string) (string, error) {
	outDir, err := os.MkdirTemp(w.WorkDir, "whisperx-")
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, services.StageTranscribe, "whisperx", "create output dir", err)
	}
	defer os.RemoveAll(outDir)

	text, err := w.Service.TranscribeFile(ctx, audioPath, outDir)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, services.StageTranscribe, "whisperx", "model "+w.Service.Model(), err)
	}
	return text, nil
}
