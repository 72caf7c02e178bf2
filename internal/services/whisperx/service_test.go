package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestTranscribeFileReadsJSONOutput(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "span_00003.wav")
	outDir := filepath.Join(dir, "out")

	var gotName string
	var gotArgs []string
	svc := NewService(Config{Language: "french"})
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		payload := `{"segments":[{"text":" Bonjour à tous. ","start":0,"end":1.2},{"text":"  ","start":1.2,"end":1.3},{"text":"On commence.","start":1.3,"end":2}]}`
		return os.WriteFile(filepath.Join(outDir, "span_00003.json"), []byte(payload), 0o644)
	})

	text, err := svc.TranscribeFile(context.Background(), source, outDir)
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	if text != "Bonjour à tous. On commence." {
		t.Fatalf("unexpected text %q", text)
	}
	if gotName != Launcher {
		t.Fatalf("unexpected command %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"whisperx " + source, "--output_format json", "--language fr", "--device cpu", "--vad_method silero"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x", Model: "medium"})
	args := svc.args("a.wav", "out")
	for _, want := range []string{"--extra-index-url", "--hf_token", "hf_x", "cuda", "medium"} {
		if !slices.Contains(args, want) {
			t.Fatalf("args %v missing %q", args, want)
		}
	}
	if slices.Contains(args, "--language") {
		t.Fatalf("language must be omitted when unset: %v", args)
	}
}

func TestTranscribeFileRunnerFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("uvx: not found")
	})
	_, err := svc.TranscribeFile(context.Background(), filepath.Join(t.TempDir(), "a.wav"), "")
	if err == nil || !strings.Contains(err.Error(), "uvx: not found") {
		t.Fatalf("expected runner error, got %v", err)
	}
}

func TestTranscribeFileRejectsBadJSON(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		return os.WriteFile(filepath.Join(dir, "clip.json"), []byte("not json"), 0o644)
	})
	_, err := svc.TranscribeFile(context.Background(), filepath.Join(dir, "clip.wav"), "")
	if err == nil || !strings.Contains(err.Error(), "parse clip.json") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
