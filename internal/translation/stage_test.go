package translation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"subvoice/internal/logging"
	"subvoice/internal/services"
	"subvoice/internal/services/llm"
	"subvoice/internal/transcript"
)

func sampleEntries() []transcript.Entry {
	return []transcript.Entry{
		{Speaker: "Alice", Start: 0, End: 1, Text: "hello"},
		{Speaker: "SPEAKER_00", Start: 1, End: 2, Text: "fail me"},
		{Speaker: "Unknown", Start: 2, End: 3, Text: "goodbye"},
	}
}

func TestRunOrderAndFallback(t *testing.T) {
	var targets []string
	stage := &Stage{
		Translator: TranslatorFunc(func(_ context.Context, text, target string) (string, error) {
			targets = append(targets, target)
			if text == "fail me" {
				return "", errors.New("quota exceeded")
			}
			return strings.ToUpper(text), nil
		}),
		Delay:  time.Millisecond,
		Logger: logging.NewNop(),
	}
	input := sampleEntries()
	out, stats, err := stage.Run(context.Background(), input, "French")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"HELLO", "[Translation error] fail me", "GOODBYE"}
	for i, entry := range out {
		if !entry.Translated() || entry.Translation() != want[i] {
			t.Fatalf("entry %d translation = %q, want %q", i, entry.Translation(), want[i])
		}
		if entry.Text != input[i].Text || entry.Speaker != input[i].Speaker {
			t.Fatalf("entry %d original fields changed: %+v", i, entry)
		}
	}
	if stats != (Stats{Entries: 3, Translated: 2, Failed: 1}) {
		t.Fatalf("unexpected stats %+v", stats)
	}
	for _, entry := range input {
		if entry.Translated() {
			t.Fatal("input entries must not be modified")
		}
	}
	for _, target := range targets {
		if target != "fr" {
			t.Fatalf("target not normalized: %q", target)
		}
	}
}

func TestRunCustomFallbackAndEmptyResult(t *testing.T) {
	stage := &Stage{
		Translator:  TranslatorFunc(func(context.Context, string, string) (string, error) { return "   ", nil }),
		FallbackTag: "[Erreur Traduction]",
		Delay:       time.Millisecond,
	}
	out, _, err := stage.Run(context.Background(), sampleEntries()[:1], "fr")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := out[0].Translation(); got != "[Erreur Traduction] hello" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestRunPacesCalls(t *testing.T) {
	const delay = 20 * time.Millisecond
	var mu sync.Mutex
	var stamps []time.Time
	stage := &Stage{
		Translator: TranslatorFunc(func(_ context.Context, text, _ string) (string, error) {
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
			return text, nil
		}),
		Delay:       delay,
		Concurrency: 4,
	}
	entries := make([]transcript.Entry, 5)
	for i := range entries {
		entries[i] = transcript.Entry{Speaker: "A", Start: float64(i), End: float64(i + 1), Text: "x"}
	}
	start := time.Now()
	if _, _, err := stage.Run(context.Background(), entries, "en"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 4*delay-5*time.Millisecond {
		t.Fatalf("5 calls finished in %v; limiter should space them by %v", elapsed, delay)
	}
	if len(stamps) != 5 {
		t.Fatalf("expected 5 calls, got %d", len(stamps))
	}
}

func TestRunSequentialPausesAfterEachCall(t *testing.T) {
	const delay = 20 * time.Millisecond
	var starts, ends []time.Time
	stage := &Stage{
		Translator: TranslatorFunc(func(_ context.Context, text, _ string) (string, error) {
			starts = append(starts, time.Now())
			time.Sleep(2 * delay)
			ends = append(ends, time.Now())
			return text, nil
		}),
		Delay: delay,
	}
	entries := make([]transcript.Entry, 3)
	for i := range entries {
		entries[i] = transcript.Entry{Speaker: "A", Start: float64(i), End: float64(i + 1), Text: "x"}
	}
	if _, _, err := stage.Run(context.Background(), entries, "en"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(starts) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		if idle := starts[i].Sub(ends[i-1]); idle < delay {
			t.Fatalf("call %d started %v after the previous one returned, want at least %v", i, idle, delay)
		}
	}
}

func TestRunConcurrentPreservesOrder(t *testing.T) {
	stage := &Stage{
		Translator: TranslatorFunc(func(_ context.Context, text, _ string) (string, error) {
			return "t:" + text, nil
		}),
		Delay:       time.Microsecond,
		Concurrency: 3,
	}
	entries := make([]transcript.Entry, 12)
	for i := range entries {
		entries[i] = transcript.Entry{Speaker: "A", Start: float64(i), End: float64(i + 1), Text: string(rune('a' + i))}
	}
	out, _, err := stage.Run(context.Background(), entries, "de")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, entry := range out {
		if entry.Translation() != "t:"+entries[i].Text {
			t.Fatalf("entry %d out of order: %q", i, entry.Translation())
		}
	}
}

func TestRunRejectsInvalidTarget(t *testing.T) {
	stage := &Stage{Translator: Identity{}}
	if _, _, err := stage.Run(context.Background(), sampleEntries(), "not a language"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stage := &Stage{Translator: Identity{}, Delay: time.Millisecond}
	if _, _, err := stage.Run(ctx, sampleEntries(), "fr"); !errors.Is(err, services.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestIdentityCopiesText(t *testing.T) {
	stage := &Stage{Translator: Identity{}, Delay: time.Millisecond}
	out, stats, err := stage.Run(context.Background(), sampleEntries(), "en")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Failed != 0 || out[1].Translation() != "fail me" {
		t.Fatalf("identity translation mismatch: %+v %+v", stats, out[1])
	}
}

func TestLLMTranslatorUsesDisplayName(t *testing.T) {
	var system string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) > 0 {
			system = req.Messages[0].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"translation":"Bonjour"}`}}},
		})
	}))
	defer server.Close()

	translator := NewLLM(llm.NewClient(llm.Config{APIKey: "k", BaseURL: server.URL, Model: "m"}))
	text, err := translator.Translate(context.Background(), "Hello", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if text != "Bonjour" {
		t.Fatalf("unexpected text %q", text)
	}
	if !strings.Contains(system, "into French") {
		t.Fatalf("prompt should name the language, got %q", system)
	}
}
