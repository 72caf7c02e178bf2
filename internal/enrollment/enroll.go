// Package enrollment turns a clip of a known speaker into a stored voiceprint.
//
// The sample is cut from the source, uploaded, and submitted as a voiceprint
// job. The profile store is written only after the job has produced an
// embedding, so a failure at any step leaves it as it was.
package enrollment

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"subvoice/internal/logging"
	"subvoice/internal/media/audio"
	"subvoice/internal/profiles"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/textutil"
)

// Request names the speaker and the span of Source that holds their voice.
type Request struct {
	Name   string
	Source string
	Start  float64
	End    float64
	Style  profiles.Style
}

// Result describes a completed enrollment.
type Result struct {
	Name  string
	JobID string
	// Start and End are the sample bounds after clamping to the source.
	Start float64
	End   float64
}

// Enroller runs voiceprint enrollments.
type Enroller struct {
	Client    *recognition.Client
	Store     *profiles.Store
	Extractor *audio.Extractor
	Poll      recognition.PollOptions
	// WorkDir receives temporary audio. Defaults to the OS temp dir.
	WorkDir string
	Logger  *slog.Logger
}

// Enroll creates or replaces the profile for req.Name.
func (e *Enroller) Enroll(ctx context.Context, req Request) (Result, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Result{}, services.Wrap(services.ErrValidation, services.StageEnroll, "enroll", "speaker name is required", nil)
	}
	if req.End <= req.Start || req.Start < 0 {
		return Result{}, services.Wrap(services.ErrValidation, services.StageEnroll, "enroll",
			fmt.Sprintf("invalid sample span %.3f-%.3f", req.Start, req.End), nil)
	}
	ctx = services.WithStage(ctx, services.StageEnroll)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(e.Logger, "enrollment")).
		With(logging.String(logging.FieldSpeaker, req.Name))

	tmpDir, err := os.MkdirTemp(e.WorkDir, "enroll-"+textutil.SanitizeToken(req.Name)+"-")
	if err != nil {
		return Result{}, fmt.Errorf("enroll: create work dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	full := filepath.Join(tmpDir, "full.wav")
	if err := e.Extractor.ExtractFull(ctx, req.Source, full); err != nil {
		return Result{}, err
	}
	source, err := audio.Load(full)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageEnroll, "load audio", req.Source, err)
	}
	start, end, ok := source.Clamp(req.Start, req.End)
	if !ok {
		return Result{}, services.Wrap(services.ErrValidation, services.StageEnroll, "cut sample",
			fmt.Sprintf("span %.3f-%.3f lies outside the %.3fs source", req.Start, req.End, source.Duration()), nil)
	}
	if end < req.End {
		logging.WarnWithContext(logger, "sample end clamped to source duration", "enroll_sample_clamped",
			logging.Seconds("requested_end", req.End),
			logging.Seconds("end", end),
			logging.String(logging.FieldImpact, "voiceprint built from a shorter sample"),
		)
	}
	sample := filepath.Join(tmpDir, "sample.wav")
	if err := source.Cut(start, end, sample); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageEnroll, "cut sample", req.Source, err)
	}

	handle, err := e.Client.UploadFile(ctx, sample)
	if err != nil {
		return Result{}, err
	}
	jobID, err := e.Client.StartJob(ctx, recognition.KindVoiceprint, handle, recognition.JobParams{})
	if err != nil {
		return Result{}, err
	}
	ctx = services.WithJobID(ctx, jobID)
	output, err := e.Client.PollUntilTerminal(ctx, jobID, e.Poll)
	if err != nil {
		return Result{}, err
	}
	if output.Kind != recognition.OutputVoiceprint || len(output.Voiceprint) == 0 {
		return Result{}, services.Wrap(services.ErrJobFailed, services.StagePoll, "voiceprint job", jobID,
			fmt.Errorf("expected voiceprint output, got %s", output.Kind))
	}

	profile := profiles.Profile{Embedding: output.Voiceprint, Style: req.Style}
	if err := e.Store.Put(ctx, req.Name, profile); err != nil {
		return Result{}, err
	}

	logger.Info("speaker enrolled",
		logging.String(logging.FieldEventType, "speaker_enrolled"),
		logging.String(logging.FieldJobID, jobID),
		logging.Seconds("sample_seconds", end-start),
	)
	return Result{Name: req.Name, JobID: jobID, Start: start, End: end}, nil
}
