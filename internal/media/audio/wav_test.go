package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/youpy/go-wav"
)

// writeRamp writes a mono WAV whose sample n has value n%30000.
func writeRamp(t *testing.T, path string, frames int) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = i % 30000
	}
	writer := wav.NewWriter(file, uint32(frames), 1, SampleRate, 16)
	if err := writer.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAndCut(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "full.wav")
	writeRamp(t, srcPath, 3*SampleRate)

	src, err := Load(srcPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if src.Channels() != 1 || src.SampleRate() != SampleRate {
		t.Fatalf("unexpected layout %d ch @ %d Hz", src.Channels(), src.SampleRate())
	}
	if math.Abs(src.Duration()-3) > 1e-9 {
		t.Fatalf("unexpected duration %v", src.Duration())
	}

	cutPath := filepath.Join(dir, "cut", "span.wav")
	if err := src.Cut(0.5, 1.25, cutPath); err != nil {
		t.Fatalf("Cut: %v", err)
	}
	cut, err := Load(cutPath)
	if err != nil {
		t.Fatalf("Load cut: %v", err)
	}
	if got, want := cut.Frames(), int(0.75*SampleRate); got != want {
		t.Fatalf("cut frames = %d, want %d", got, want)
	}
	if first := int(cut.frames[0]); first != SampleRate/2 {
		t.Fatalf("cut starts at sample %d, want %d", first, SampleRate/2)
	}
}

func TestCutClampsToSource(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "full.wav")
	writeRamp(t, srcPath, SampleRate)

	src, err := Load(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	start, end, ok := src.Clamp(0.5, 10)
	if !ok || start != 0.5 || end != 1 {
		t.Fatalf("Clamp = %v,%v,%v", start, end, ok)
	}

	dest := filepath.Join(dir, "tail.wav")
	if err := src.Cut(0.5, 10, dest); err != nil {
		t.Fatalf("Cut: %v", err)
	}
	tail, err := Load(dest)
	if err != nil {
		t.Fatal(err)
	}
	if tail.Frames() != SampleRate/2 {
		t.Fatalf("tail frames = %d", tail.Frames())
	}

	if err := src.Cut(2, 3, filepath.Join(dir, "none.wav")); err == nil {
		t.Fatal("expected error for span past the end")
	}
	if err := src.Cut(0.7, 0.7, filepath.Join(dir, "empty.wav")); err == nil {
		t.Fatal("expected error for empty span")
	}
}

func TestLoadRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wav")
	if err := os.WriteFile(path, []byte("not a riff file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error")
	}
}
