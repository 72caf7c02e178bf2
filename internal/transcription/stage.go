package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"subvoice/internal/logging"
	"subvoice/internal/media/audio"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/speaker"
	"subvoice/internal/transcript"
)

// Stats counts what happened to each input segment.
type Stats struct {
	Segments    int `json:"segments"`
	Transcribed int `json:"transcribed"`
	Empty       int `json:"empty"`
	Failed      int `json:"failed"`
	Degenerate  int `json:"degenerate"`
}

// Stage runs the transcription policy over a recognition result.
type Stage struct {
	Transcriber Transcriber
	Policy      speaker.Policy
	// Rename maps a trusted candidate name to its display form. Optional.
	Rename func(label string) string
	// Concurrency bounds parallel backend calls; values below 2 run sequentially.
	Concurrency int
	// WorkDir receives temporary span clips. Defaults to the OS temp dir.
	WorkDir string
	Logger  *slog.Logger
}

type outcome struct {
	entry transcript.Entry
	kept  bool
	err   error
}

// Run transcribes segments cut from the 16-bit PCM WAV at audioPath and
// returns the surviving entries in segment order. Only failures that affect
// every segment (unreadable audio, cancellation) are returned as errors.
func (s *Stage) Run(ctx context.Context, audioPath string, segments []recognition.Segment) ([]transcript.Entry, Stats, error) {
	stats := Stats{Segments: len(segments)}
	if s.Transcriber == nil {
		return nil, stats, services.Wrap(services.ErrConfiguration, services.StageTranscribe, "run", "no transcriber configured", nil)
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "transcription"))

	source, err := audio.Load(audioPath)
	if err != nil {
		return nil, stats, services.Wrap(services.ErrValidation, services.StageTranscribe, "load audio", audioPath, err)
	}
	spanDir, err := os.MkdirTemp(s.WorkDir, "spans-")
	if err != nil {
		return nil, stats, fmt.Errorf("transcribe: create span dir: %w", err)
	}
	defer os.RemoveAll(spanDir)

	outcomes := make([]outcome, len(segments))
	sampler := logging.NewProgressSampler(10)
	var done int

	transcribeOne := func(ctx context.Context, i int) error {
		outcomes[i] = s.transcribeSegment(ctx, source, spanDir, i, segments[i])
		return ctx.Err()
	}

	if s.Concurrency < 2 {
		for i := range segments {
			if err := transcribeOne(ctx, i); err != nil {
				return nil, stats, services.Wrap(services.ErrCancelled, services.StageTranscribe, "run", "", err)
			}
			done++
			if sampler.ShouldLog(done, len(segments)) {
				logger.Info("transcription progress", logging.Int("done", done), logging.Int("total", len(segments)))
			}
		}
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(s.Concurrency)
		for i := range segments {
			group.Go(func() error { return transcribeOne(groupCtx, i) })
		}
		if err := group.Wait(); err != nil {
			return nil, stats, services.Wrap(services.ErrCancelled, services.StageTranscribe, "run", "", err)
		}
	}

	entries := make([]transcript.Entry, 0, len(segments))
	for i, out := range outcomes {
		switch {
		case out.kept:
			stats.Transcribed++
			entries = append(entries, out.entry)
		case errors.Is(out.err, errDegenerate):
			stats.Degenerate++
			logger.Debug("skipping degenerate segment", logging.Int("segment", i))
		case errors.Is(out.err, services.ErrTranscriptionEmpty):
			stats.Empty++
			logger.Debug("dropping empty transcription",
				logging.Int("segment", i),
				logging.String(logging.FieldSpeaker, out.entry.Speaker),
			)
		default:
			stats.Failed++
			logging.WarnWithContext(logger, "segment transcription failed; entry dropped", "transcription_entry_failed",
				logging.Int("segment", i),
				logging.String(logging.FieldSpeaker, out.entry.Speaker),
				logging.Error(out.err),
				logging.String(logging.FieldImpact, "segment missing from transcript"),
			)
		}
	}

	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("segments", stats.Segments),
		logging.Int("transcribed", stats.Transcribed),
		logging.Int("empty", stats.Empty),
		logging.Int("failed", stats.Failed),
		logging.Int("degenerate", stats.Degenerate),
	)
	return entries, stats, nil
}

var errDegenerate = errors.New("degenerate segment")

func (s *Stage) transcribeSegment(ctx context.Context, source *audio.Source, spanDir string, index int, seg recognition.Segment) outcome {
	label := s.resolve(seg)
	entry := transcript.Entry{Speaker: label, Start: seg.Start, End: seg.End}
	if seg.End <= seg.Start {
		return outcome{entry: entry, err: errDegenerate}
	}
	if ctx.Err() != nil {
		return outcome{entry: entry, err: ctx.Err()}
	}

	clip := filepath.Join(spanDir, fmt.Sprintf("span_%05d.wav", index))
	if err := source.Cut(seg.Start, seg.End, clip); err != nil {
		return outcome{entry: entry, err: err}
	}
	defer os.Remove(clip)

	text, err := s.Transcriber.Transcribe(ctx, Span{Start: seg.Start, End: seg.End, Speaker: label}, clip)
	if err != nil {
		return outcome{entry: entry, err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return outcome{entry: entry, err: services.ErrTranscriptionEmpty}
	}
	entry.Text = text
	return outcome{entry: entry, kept: true}
}

func (s *Stage) resolve(seg recognition.Segment) string {
	label := s.Policy.Resolve(seg)
	if s.Rename != nil && label == strings.TrimSpace(seg.CandidateName) {
		if renamed := strings.TrimSpace(s.Rename(label)); renamed != "" {
			return renamed
		}
	}
	return label
}
