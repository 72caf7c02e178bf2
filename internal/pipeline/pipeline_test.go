package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"subvoice/internal/captions"
	"subvoice/internal/config"
	"subvoice/internal/logging"
	"subvoice/internal/pipeline"
	"subvoice/internal/profiles"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/testsupport"
	"subvoice/internal/transcription"
	"subvoice/internal/translation"
)

const twoSpeakers = `{"diarization":[
	{"start":0,"end":2,"speaker":"SPEAKER_00"},
	{"start":2.5,"end":4,"speaker":"SPEAKER_01"}
]}`

type harness struct {
	cfg    *config.Config
	fake   *testsupport.FakeRecognition
	runner *pipeline.Runner
	media  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := testsupport.NewFakeRecognition(t)
	cfg := testsupport.NewConfig(t, testsupport.WithRecognitionURL(fake.URL()))
	cfg.Recognition.PollIntervalSeconds = 0
	cfg.Recognition.PollAttempts = 5

	runner, err := pipeline.NewRunner(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	runner.Extractor.WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		testsupport.WriteWAV(t, args[len(args)-1], 6)
		return nil, nil
	})
	runner.Transcription.Transcriber = transcription.TranscriberFunc(func(_ context.Context, span transcription.Span, _ string) (string, error) {
		if span.Start == 0 {
			return "hello there", nil
		}
		return "general kenobi", nil
	})
	runner.Translation.Delay = time.Millisecond

	media := filepath.Join(testsupport.BaseDir(cfg), "talk.mp4")
	testsupport.WriteFile(t, media, 128)
	return &harness{cfg: cfg, fake: fake, runner: runner, media: media}
}

func TestRunDiarizeProducesEntries(t *testing.T) {
	h := newHarness(t)
	h.fake.SetRunningPolls(2)
	h.fake.SetOutput("diarize", twoSpeakers)

	result, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: h.media, Mode: recognition.KindDiarize})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" || result.JobID != "diarize-job" || result.Mode != recognition.KindDiarize {
		t.Fatalf("unexpected result header %+v", result)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(result.Segments))
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", result.Entries)
	}
	first, second := result.Entries[0], result.Entries[1]
	if first.Speaker != "SPEAKER_00" || first.Text != "hello there" || first.Start != 0 || first.End != 2 {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if second.Speaker != "SPEAKER_01" || second.Text != "general kenobi" {
		t.Fatalf("unexpected second entry %+v", second)
	}
	if first.Translated() {
		t.Fatal("entries must not carry translations when translation is off")
	}
	if result.Stats.Transcription.Transcribed != 2 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}
	if got := len(h.fake.Uploads()); got != 1 {
		t.Fatalf("expected one upload, got %d", got)
	}
	started := h.fake.Started()
	if len(started) != 1 || started[0].Kind != "diarize" {
		t.Fatalf("unexpected job starts %+v", started)
	}

	entries, err := os.ReadDir(h.cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("read work dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("run left temporary files behind: %v", entries)
	}
}

func TestRunIdentifyRequiresEnrolledSpeakers(t *testing.T) {
	h := newHarness(t)

	_, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: h.media, Mode: recognition.KindIdentify})
	if !errors.Is(err, services.ErrJobStartFailed) {
		t.Fatalf("expected ErrJobStartFailed, got %v", err)
	}
	if len(h.fake.Uploads()) != 0 || len(h.fake.Started()) != 0 {
		t.Fatal("nothing should reach the service without voiceprints")
	}
}

func TestRunIdentifyTrustsConfidentMatches(t *testing.T) {
	h := newHarness(t)
	testsupport.Enroll(t, testsupport.MustOpenStore(t, h.cfg), "Alice", profiles.Style{})
	h.fake.SetOutput("identify", `{"identification":[
		{"start":0,"end":2,"speaker":"SPEAKER_00","match":"Alice","confidence":0.95},
		{"start":2.5,"end":4,"speaker":"SPEAKER_01","match":"Alice","confidence":0.4}
	]}`)

	result, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: h.media, Mode: recognition.KindIdentify})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := []string{result.Entries[0].Speaker, result.Entries[1].Speaker}; got[0] != "Alice" || got[1] != "SPEAKER_01" {
		t.Fatalf("unexpected speakers %v", got)
	}

	started := h.fake.Started()
	if len(started) != 1 || started[0].Kind != "identify" {
		t.Fatalf("unexpected job starts %+v", started)
	}
	voiceprints, ok := started[0].Body["voiceprints"].([]any)
	if !ok || len(voiceprints) != 1 {
		t.Fatalf("expected one voiceprint in request, got %#v", started[0].Body["voiceprints"])
	}
	vp := voiceprints[0].(map[string]any)
	if vp["label"] != "Alice" || vp["voiceprint"] != "vp-Alice" {
		t.Fatalf("unexpected voiceprint %#v", vp)
	}
}

func TestRunFailsWithoutSpeechSegments(t *testing.T) {
	h := newHarness(t)
	h.fake.SetOutput("diarize", `{"diarization":[]}`)

	_, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: h.media})
	if !errors.Is(err, services.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}
	if stage, _ := services.StageOf(err); stage != services.StagePoll {
		t.Fatalf("expected poll stage, got %q", stage)
	}
}

func TestRunReportsJobFailureStage(t *testing.T) {
	h := newHarness(t)
	h.fake.SetFailure("diarize", "audio too short")

	_, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: h.media})
	if !errors.Is(err, services.ErrJobFailed) {
		t.Fatalf("expected ErrJobFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "audio too short") {
		t.Fatalf("expected service message in error, got %v", err)
	}
}

func TestRunTranslatesWhenRequested(t *testing.T) {
	h := newHarness(t)
	h.fake.SetOutput("diarize", twoSpeakers)
	var mu sync.Mutex
	var targets []string
	h.runner.Translation.Translator = translation.TranslatorFunc(func(_ context.Context, text, target string) (string, error) {
		mu.Lock()
		targets = append(targets, target)
		mu.Unlock()
		if text == "general kenobi" {
			return "", errors.New("backend down")
		}
		return "bonjour", nil
	})

	result, err := h.runner.Run(context.Background(), pipeline.Request{
		MediaPath:      h.media,
		TargetLanguage: "French",
		Translate:      true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.TargetLanguage != "fr" {
		t.Fatalf("expected normalized target fr, got %q", result.TargetLanguage)
	}
	if got := result.Entries[0].Translation(); got != "bonjour" {
		t.Fatalf("unexpected translation %q", got)
	}
	if got := result.Entries[1].Translation(); got != "[Translation error] general kenobi" {
		t.Fatalf("unexpected fallback %q", got)
	}
	if result.Stats.Translation.Translated != 1 || result.Stats.Translation.Failed != 1 {
		t.Fatalf("unexpected translation stats %+v", result.Stats.Translation)
	}
	for _, target := range targets {
		if target != "fr" {
			t.Fatalf("translator received %q", target)
		}
	}
}

func TestRunRejectsMissingMedia(t *testing.T) {
	h := newHarness(t)
	_, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: filepath.Join(t.TempDir(), "missing.mp4")})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if stage, _ := services.StageOf(err); stage != services.StageExtract {
		t.Fatalf("expected extract stage, got %q", stage)
	}
}

func TestRenderBurnsCaptions(t *testing.T) {
	h := newHarness(t)
	h.fake.SetOutput("diarize", twoSpeakers)
	result, err := h.runner.Run(context.Background(), pipeline.Request{MediaPath: h.media})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var srt string
	h.runner.Muxer.WithCommandRunner(func(_ context.Context, _ string, args ...string) ([]byte, error) {
		for i, arg := range args {
			if arg == "-vf" {
				path := strings.TrimPrefix(strings.SplitN(args[i+1], ":force_style", 2)[0], "subtitles=")
				data, err := os.ReadFile(strings.ReplaceAll(path, `\`, ""))
				if err != nil {
					t.Errorf("read subtitles: %v", err)
				}
				srt = string(data)
			}
		}
		return nil, os.WriteFile(args[len(args)-1], []byte("video"), 0o644)
	})

	out := filepath.Join(t.TempDir(), "out.mp4")
	rendered, err := h.runner.Render(context.Background(), result, pipeline.RenderRequest{OutputPath: out, KeepSRT: true})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rendered.OutputPath != out || rendered.Cues != 2 {
		t.Fatalf("unexpected render result %+v", rendered)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !strings.Contains(srt, "SPEAKER_00: hello there") {
		t.Fatalf("unexpected srt passed to ffmpeg:\n%s", srt)
	}
	kept, err := os.ReadFile(rendered.SRTPath)
	if err != nil {
		t.Fatalf("read kept srt: %v", err)
	}
	cues, err := captions.Parse(strings.NewReader(string(kept)))
	if err != nil {
		t.Fatalf("parse kept srt: %v", err)
	}
	if len(cues) != 2 || cues[1].Text != "SPEAKER_01: general kenobi" || cues[1].Start != 2.5 {
		t.Fatalf("unexpected kept cues %+v", cues)
	}
}

func TestRenderRejectsEmptyTranscript(t *testing.T) {
	h := newHarness(t)
	_, err := h.runner.Render(context.Background(), pipeline.Result{MediaPath: h.media}, pipeline.RenderRequest{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	got := pipeline.DefaultOutputPath(filepath.Join("videos", "talk.mp4"))
	if want := filepath.Join("videos", "talk_subtitled.mp4"); got != want {
		t.Fatalf("DefaultOutputPath = %q, want %q", got, want)
	}
}

func TestEngineFromConfigGap(t *testing.T) {
	cfg := config.Default()
	policy := pipeline.PolicyFromConfig(&cfg)

	cfg.Captions.GapMillis = 0
	if engine := pipeline.EngineFromConfig(&cfg, policy); engine.Gap >= 0 {
		t.Fatalf("zero gap should disable spacing, got %v", engine.Gap)
	}
	cfg.Captions.GapMillis = 250
	if engine := pipeline.EngineFromConfig(&cfg, policy); engine.Gap != 250*time.Millisecond {
		t.Fatalf("unexpected gap %v", engine.Gap)
	}
}
