package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subvoice/internal/captions"
	"subvoice/internal/fileutil"
	"subvoice/internal/logging"
	"subvoice/internal/muxer"
	"subvoice/internal/services"
	"subvoice/internal/textutil"
	"subvoice/internal/transcript"
)

// RenderRequest describes one burn-in of a finished result.
type RenderRequest struct {
	VideoPath string
	// UseOriginal captions the source-language text instead of the translation.
	UseOriginal bool
	// OutputPath defaults to "<video>_subtitled<ext>" next to the video.
	OutputPath string
	// KeepSRT copies the caption file next to the output. The runner's
	// KeepSRT setting also enables it.
	KeepSRT bool
}

// RenderResult reports what Render produced.
type RenderResult struct {
	OutputPath string
	// SRTPath is empty unless the caption file was kept.
	SRTPath string
	Cues    int
}

// DefaultOutputPath returns the rendered video path used when none is given.
func DefaultOutputPath(videoPath string) string {
	dir := filepath.Dir(videoPath)
	ext := filepath.Ext(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), ext)
	if ext == "" {
		ext = ".mp4"
	}
	return filepath.Join(dir, textutil.SanitizeFileName(base+"_subtitled")+ext)
}

// Cues builds the caption cues for entries.
func (r *Runner) Cues(entries []transcript.Entry, useOriginal bool) []captions.Cue {
	field := captions.Translated
	if useOriginal {
		field = captions.Original
	}
	return r.Captions.Build(entries, field)
}

// Render writes the captions of result to an SRT file and burns them into
// req.VideoPath.
func (r *Runner) Render(ctx context.Context, result Result, req RenderRequest) (RenderResult, error) {
	if strings.TrimSpace(req.VideoPath) == "" {
		req.VideoPath = result.MediaPath
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		return RenderResult{}, services.Wrap(services.ErrValidation, services.StageCaptions, "render", "video path is required", nil)
	}
	if req.OutputPath == "" {
		req.OutputPath = DefaultOutputPath(req.VideoPath)
	}
	if result.RunID != "" {
		ctx = services.WithRunID(ctx, result.RunID)
	}
	ctx = services.WithStage(ctx, services.StageCaptions)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "render"))

	cues := r.Cues(result.Entries, req.UseOriginal)
	if len(cues) == 0 {
		return RenderResult{}, services.Wrap(services.ErrValidation, services.StageCaptions, "render",
			fmt.Sprintf("no captionable entries among %d", len(result.Entries)), nil)
	}
	for _, issue := range captions.Validate(cues) {
		logging.WarnWithContext(logger, "caption validation issue", "caption_issue",
			logging.String("issue", issue),
			logging.String(logging.FieldImpact, "captions may display incorrectly"),
		)
	}

	if err := os.MkdirAll(r.WorkDir, 0o755); err != nil {
		return RenderResult{}, fmt.Errorf("render: create work dir: %w", err)
	}
	tmpDir, err := os.MkdirTemp(r.WorkDir, "render-")
	if err != nil {
		return RenderResult{}, fmt.Errorf("render: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	srtPath := filepath.Join(tmpDir, "captions.srt")
	if err := captions.WriteFile(srtPath, cues); err != nil {
		return RenderResult{}, services.Wrap(services.ErrValidation, services.StageCaptions, "write srt", srtPath, err)
	}

	muxed, err := r.Muxer.BurnIn(ctx, muxer.Request{
		VideoPath:    req.VideoPath,
		SubtitlePath: srtPath,
		OutputPath:   req.OutputPath,
	})
	if err != nil {
		return RenderResult{}, err
	}

	out := RenderResult{OutputPath: muxed.OutputPath, Cues: len(cues)}
	if req.KeepSRT || r.KeepSRT {
		kept := strings.TrimSuffix(muxed.OutputPath, filepath.Ext(muxed.OutputPath)) + ".srt"
		if err := fileutil.CopyFile(srtPath, kept); err != nil {
			return out, fmt.Errorf("render: keep srt: %w", err)
		}
		out.SRTPath = kept
	}
	logger.Info("captions rendered",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", out.OutputPath),
		logging.Int("cues", out.Cues),
	)
	return out, nil
}
