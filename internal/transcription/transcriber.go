package transcription

import "context"

// Span is the time range and resolved speaker handed to a backend.
type Span struct {
	Start   float64
	End     float64
	Speaker string
}

// Transcriber converts one audio clip into text. audioPath holds exactly the
// span's audio.
type Transcriber interface {
	Transcribe(ctx context.Context, span Span, audioPath string) (string, error)
}

// TranscriberFunc adapts a function to Transcriber.
type TranscriberFunc func(ctx context.Context, span Span, audioPath string) (string, error)

// Transcribe calls f.
func (f TranscriberFunc) Transcribe(ctx context.Context, span Span, audioPath string) (string, error) {
	return f(ctx, span, audioPath)
}
