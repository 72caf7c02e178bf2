package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
)

const (
	pcmFormat     = 1
	readBlockSize = 16384
	bitsPerSample = 16
)

// Source is a fully decoded 16-bit PCM WAV held in memory. It is read-only
// after Load and safe for concurrent Cut calls.
type Source struct {
	channels   int
	sampleRate int
	// frames holds interleaved samples, channels per frame.
	frames []int16
}

// Load decodes the WAV file at path.
func Load(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav format: %w", err)
	}
	if format.AudioFormat != pcmFormat || format.BitsPerSample != bitsPerSample {
		return nil, fmt.Errorf("unsupported wav encoding (format=%d bits=%d); want 16-bit PCM", format.AudioFormat, format.BitsPerSample)
	}
	if format.NumChannels < 1 || format.NumChannels > 2 || format.SampleRate == 0 {
		return nil, fmt.Errorf("unsupported wav layout (channels=%d rate=%d)", format.NumChannels, format.SampleRate)
	}

	src := &Source{
		channels:   int(format.NumChannels),
		sampleRate: int(format.SampleRate),
	}
	for {
		samples, err := reader.ReadSamples(readBlockSize)
		for _, sample := range samples {
			for ch := 0; ch < src.channels; ch++ {
				src.frames = append(src.frames, int16(sample.Values[ch]))
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read wav samples: %w", err)
		}
		if len(samples) == 0 {
			break
		}
	}
	return src, nil
}

// SampleRate returns the frames per second.
func (s *Source) SampleRate() int {
	return s.sampleRate
}

// Channels returns the channel count.
func (s *Source) Channels() int {
	return s.channels
}

// Frames returns the number of sample frames.
func (s *Source) Frames() int {
	return len(s.frames) / s.channels
}

// Duration returns the length in seconds.
func (s *Source) Duration() float64 {
	return float64(s.Frames()) / float64(s.sampleRate)
}

// Clamp limits [start, end] to the source and reports whether a non-empty span remains.
func (s *Source) Clamp(start, end float64) (float64, float64, bool) {
	duration := s.Duration()
	start = math.Max(start, 0)
	end = math.Min(end, duration)
	return start, end, end > start
}

// Cut writes the [start, end) seconds of the source to dest as a WAV with the
// same layout. The span is clamped to the source; an empty result is an error.
func (s *Source) Cut(start, end float64, dest string) error {
	start, end, ok := s.Clamp(start, end)
	if !ok {
		return fmt.Errorf("cut wav: empty span %.3f-%.3f (source %.3fs)", start, end, s.Duration())
	}
	first := s.frameAt(start)
	last := s.frameAt(end)
	if last <= first {
		return fmt.Errorf("cut wav: span %.3f-%.3f shorter than one frame", start, end)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("cut wav: ensure dir: %w", err)
	}
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("cut wav: create: %w", err)
	}

	count := last - first
	samples := make([]wav.Sample, count)
	for i := range samples {
		base := (first + i) * s.channels
		for ch := 0; ch < s.channels; ch++ {
			samples[i].Values[ch] = int(s.frames[base+ch])
		}
	}
	writer := wav.NewWriter(file, uint32(count), uint16(s.channels), uint32(s.sampleRate), bitsPerSample)
	if err := writer.WriteSamples(samples); err != nil {
		file.Close()
		os.Remove(dest)
		return fmt.Errorf("cut wav: write samples: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("cut wav: close: %w", err)
	}
	return nil
}

func (s *Source) frameAt(seconds float64) int {
	frame := int(math.Round(seconds * float64(s.sampleRate)))
	if frame < 0 {
		return 0
	}
	if total := s.Frames(); frame > total {
		return total
	}
	return frame
}
