package transcription_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"subvoice/internal/logging"
	"subvoice/internal/media/audio"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/speaker"
	"subvoice/internal/testsupport"
	"subvoice/internal/transcription"
)

func newStage(t *testing.T, fn transcription.TranscriberFunc) *transcription.Stage {
	t.Helper()
	return &transcription.Stage{
		Transcriber: fn,
		Policy:      speaker.Policy{},
		WorkDir:     t.TempDir(),
		Logger:      logging.NewNop(),
	}
}

func TestRunResolvesSpeakersAndDropsEntryLocalFailures(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "full.wav")
	testsupport.WriteWAV(t, audioPath, 5)

	segments := []recognition.Segment{
		{Start: 0, End: 1, ClusterID: "SPEAKER_00"},
		{Start: 1, End: 2, CandidateName: "Alice", ClusterID: "SPEAKER_01", Confidence: 0.95},
		{Start: 2, End: 2, ClusterID: "SPEAKER_00"},
		{Start: 2, End: 3, CandidateName: "Bob", ClusterID: "SPEAKER_00", Confidence: 0.5},
		{Start: 3, End: 4},
	}

	stage := newStage(t, func(_ context.Context, span transcription.Span, clip string) (string, error) {
		src, err := audio.Load(clip)
		if err != nil {
			return "", err
		}
		if want := int((span.End - span.Start) * audio.SampleRate); src.Frames() != want {
			return "", fmt.Errorf("clip has %d frames, want %d", src.Frames(), want)
		}
		switch span.Start {
		case 0:
			return "  hello there  ", nil
		case 1:
			return "hi", nil
		case 2:
			return " \n ", nil
		default:
			return "", errors.New("backend down")
		}
	})

	entries, stats, err := stage.Run(context.Background(), audioPath, segments)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Speaker != "SPEAKER_00" || entries[0].Text != "hello there" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Speaker != "Alice" || entries[1].Start != 1 || entries[1].End != 2 {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
	want := transcription.Stats{Segments: 5, Transcribed: 2, Empty: 1, Failed: 1, Degenerate: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestRunUnknownSpeakerFallback(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "full.wav")
	testsupport.WriteWAV(t, audioPath, 1)

	var got string
	stage := newStage(t, func(_ context.Context, span transcription.Span, _ string) (string, error) {
		got = span.Speaker
		return "words", nil
	})
	entries, _, err := stage.Run(context.Background(), audioPath, []recognition.Segment{{Start: 0, End: 0.5}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "Unknown" || entries[0].Speaker != "Unknown" {
		t.Fatalf("expected Unknown speaker, span=%q entry=%q", got, entries[0].Speaker)
	}
}

func TestRunConcurrentPreservesOrder(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "full.wav")
	testsupport.WriteWAV(t, audioPath, 3)

	segments := make([]recognition.Segment, 20)
	for i := range segments {
		segments[i] = recognition.Segment{Start: float64(i) * 0.1, End: float64(i+1) * 0.1, ClusterID: "SPEAKER_00"}
	}

	var mu sync.Mutex
	calls := 0
	stage := newStage(t, func(_ context.Context, span transcription.Span, _ string) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return fmt.Sprintf("seg %.1f", span.Start), nil
	})
	stage.Concurrency = 4

	entries, stats, err := stage.Run(context.Background(), audioPath, segments)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 20 || stats.Transcribed != 20 {
		t.Fatalf("calls=%d stats=%+v", calls, stats)
	}
	for i, entry := range entries {
		if want := fmt.Sprintf("seg %.1f", float64(i)*0.1); entry.Text != want {
			t.Fatalf("entry %d = %q, want %q", i, entry.Text, want)
		}
	}
}

func TestRunRenamesTrustedCandidates(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "full.wav")
	testsupport.WriteWAV(t, audioPath, 1)

	stage := newStage(t, func(context.Context, transcription.Span, string) (string, error) {
		return "text", nil
	})
	stage.Rename = func(label string) string {
		return strings.Replace(label, "Person_", "SPEAKER_", 1)
	}
	segments := []recognition.Segment{
		{Start: 0, End: 0.5, CandidateName: "Person_7", ClusterID: "SPEAKER_01", Confidence: 0.99},
		{Start: 0.5, End: 1, CandidateName: "Person_7", ClusterID: "SPEAKER_01", Confidence: 0.2},
	}
	entries, _, err := stage.Run(context.Background(), audioPath, segments)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if entries[0].Speaker != "SPEAKER_7" {
		t.Fatalf("trusted candidate not renamed: %q", entries[0].Speaker)
	}
	if entries[1].Speaker != "SPEAKER_01" {
		t.Fatalf("cluster label must stay verbatim: %q", entries[1].Speaker)
	}
}

func TestRunCancelled(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "full.wav")
	testsupport.WriteWAV(t, audioPath, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stage := newStage(t, func(context.Context, transcription.Span, string) (string, error) {
		t.Fatal("transcriber must not run after cancellation")
		return "", nil
	})
	_, _, err := stage.Run(ctx, audioPath, []recognition.Segment{{Start: 0, End: 0.5}})
	if !errors.Is(err, services.ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestRunMissingAudio(t *testing.T) {
	stage := newStage(t, func(context.Context, transcription.Span, string) (string, error) { return "x", nil })
	_, _, err := stage.Run(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), []recognition.Segment{{Start: 0, End: 1}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stage, _ := services.StageOf(err); stage != services.StageTranscribe {
		t.Fatalf("unexpected stage %q", stage)
	}
}

func TestRunWithoutTranscriber(t *testing.T) {
	stage := &transcription.Stage{}
	if _, _, err := stage.Run(context.Background(), "x.wav", nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
