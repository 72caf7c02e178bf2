package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/youpy/go-wav"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0x42
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteWAV writes a 16 kHz mono 16-bit WAV of the given length whose sample n
// holds n%30000.
func WriteWAV(t testing.TB, path string, seconds float64) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const rate = 16000
	frames := int(seconds * rate)
	samples := make([]wav.Sample, frames)
	for i := range samples {
		samples[i].Values[0] = i % 30000
	}
	writer := wav.NewWriter(f, uint32(frames), 1, rate, 16)
	if err := writer.WriteSamples(samples); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}
