package whisperx

// Config captures runtime settings for WhisperX runs.
type Config struct {
	// Model is the WhisperX model name. Empty means DefaultModel.
	Model       string
	CUDAEnabled bool
	// VADMethod is "silero" (default) or "pyannote". Pyannote needs HFToken.
	VADMethod string
	HFToken   string
	// Language pins the source language; empty lets WhisperX detect it.
	Language string
}

const (
	DefaultModel      = "large-v3"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	// Launcher is the command that fetches and runs WhisperX.
	Launcher = "uvx"
)

const (
	pypiIndex = "https://pypi.org/simple"
	cudaIndex = "https://download.pytorch.org/whl/cu128"
)

// clipTuning is applied to every run. Inputs are single speaker turns, so
// WhisperX's own diarization and word alignment stay off.
var clipTuning = []string{
	"--batch_size", "4",
	"--chunk_size", "15",
	"--beam_size", "5",
	"--temperature", "0.0",
	"--segment_resolution", "sentence",
	"--output_format", "json",
	"--no_align",
}
