package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subvoice/internal/config"
	"subvoice/internal/profiles"
	"subvoice/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckRecognition(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tests := []struct {
		name   string
		key    string
		passed bool
		detail string
	}{
		{name: "valid key", key: "good-key", passed: true, detail: "Reachable"},
		{name: "rejected key", key: "bad-key", detail: "auth failed"},
		{name: "missing key", key: "", detail: "API key missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Recognition.BaseURL = srv.URL
			cfg.Recognition.APIKey = tt.key
			result := CheckRecognition(context.Background(), &cfg)
			if result.Passed != tt.passed {
				t.Fatalf("Passed = %v, want %v (%s)", result.Passed, tt.passed, result.Detail)
			}
			if !strings.Contains(result.Detail, tt.detail) {
				t.Fatalf("detail %q does not mention %q", result.Detail, tt.detail)
			}
		})
	}
}

func TestCheckProfileStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckProfileStore(cfg.Paths.ProfileStore)
	if !result.Passed || !strings.Contains(result.Detail, "no speakers") {
		t.Fatalf("unexpected result for missing store: %+v", result)
	}

	store := testsupport.MustOpenStore(t, cfg)
	testsupport.Enroll(t, store, "Alice", profiles.Style{})
	testsupport.Enroll(t, store, "Bob", profiles.Style{})
	result = CheckProfileStore(cfg.Paths.ProfileStore)
	if !result.Passed || result.Detail != "2 speakers enrolled" {
		t.Fatalf("unexpected result %+v", result)
	}

	if err := os.WriteFile(cfg.Paths.ProfileStore, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result = CheckProfileStore(cfg.Paths.ProfileStore); result.Passed {
		t.Fatal("expected failure for corrupt store")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_SkipsDisabledFeatures(t *testing.T) {
	fake := testsupport.NewFakeRecognition(t)
	cfg := testsupport.NewConfig(t, testsupport.WithRecognitionURL(fake.URL()), testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), cfg)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{"Work directory", "Log directory", "Profile directory", "Profile store", "FFmpeg", "uvx", "Recognition API"} {
		r, ok := names[want]
		if !ok {
			t.Fatalf("missing check %q in %+v", want, results)
		}
		if !r.Passed {
			t.Errorf("check %q failed: %s", want, r.Detail)
		}
	}
	if _, ok := names["Translation LLM"]; ok {
		t.Fatal("translation check must be skipped when translation is disabled")
	}
	if _, ok := names["OpenAI transcription"]; ok {
		t.Fatal("openai check must be skipped for the whisperx backend")
	}

	// The stub ffmpeg prints no filter list.
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "FFmpeg subtitles filter" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}

func TestFailedIgnoresOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Passed: false, Optional: true},
		{Name: "c", Passed: false},
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "c" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
