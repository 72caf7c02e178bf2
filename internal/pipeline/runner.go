package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"subvoice/internal/captions"
	"subvoice/internal/config"
	"subvoice/internal/language"
	"subvoice/internal/logging"
	"subvoice/internal/media/audio"
	"subvoice/internal/muxer"
	"subvoice/internal/profiles"
	"subvoice/internal/recognition"
	"subvoice/internal/services"
	"subvoice/internal/services/llm"
	"subvoice/internal/services/whisperx"
	"subvoice/internal/speaker"
	"subvoice/internal/transcript"
	"subvoice/internal/transcription"
	"subvoice/internal/translation"
)

// Request selects the media and analysis mode for one run.
type Request struct {
	MediaPath string
	Mode      recognition.JobKind
	// TargetLanguage overrides the configured target when set.
	TargetLanguage string
	Translate      bool
}

// Stats aggregates per-stage counters.
type Stats struct {
	Transcription transcription.Stats `json:"transcription"`
	Translation   translation.Stats   `json:"translation"`
}

// Result is the outcome of a completed analysis.
type Result struct {
	RunID          string                `json:"run_id"`
	Mode           recognition.JobKind   `json:"mode"`
	MediaPath      string                `json:"media_path"`
	TargetLanguage string                `json:"target_language,omitempty"`
	JobID          string                `json:"job_id"`
	CreatedAt      time.Time             `json:"created_at"`
	Segments       []recognition.Segment `json:"segments"`
	Entries        []transcript.Entry    `json:"entries"`
	Stats          Stats                 `json:"stats"`
}

// Runner wires the stages together. Fields are exported so callers can swap
// individual collaborators.
type Runner struct {
	Client        *recognition.Client
	Store         *profiles.Store
	Extractor     *audio.Extractor
	Poll          recognition.PollOptions
	Policy        speaker.Policy
	Transcription *transcription.Stage
	Translation   *translation.Stage
	// DefaultTarget is used when a request names no target language.
	DefaultTarget string
	Captions      captions.Engine
	Muxer         *muxer.Muxer
	// KeepSRT leaves the caption file next to the rendered video.
	KeepSRT bool
	WorkDir string
	Logger  *slog.Logger
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "new runner", "config is required", nil)
	}
	client := NewRecognitionClient(cfg, logger)
	policy := PolicyFromConfig(cfg)
	transcriber, err := newTranscriber(cfg)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Client:    client,
		Store:     profiles.NewStore(cfg.Paths.ProfileStore, logger),
		Extractor: audio.NewExtractor(cfg.FFmpegBinary()),
		Poll: recognition.PollOptions{
			MaxAttempts: cfg.Recognition.PollAttempts,
			Interval:    time.Duration(cfg.Recognition.PollIntervalSeconds) * time.Second,
		},
		Policy: policy,
		Transcription: &transcription.Stage{
			Transcriber: transcriber,
			Policy:      policy,
			Concurrency: cfg.Transcription.Concurrency,
			WorkDir:     cfg.Paths.WorkDir,
			Logger:      logger,
		},
		Translation: &translation.Stage{
			Translator:  newTranslator(cfg),
			FallbackTag: cfg.Translation.FallbackTag,
			Delay:       time.Duration(cfg.Translation.RequestDelayMillis) * time.Millisecond,
			Concurrency: cfg.Translation.Concurrency,
			Logger:      logger,
		},
		DefaultTarget: cfg.Translation.TargetLanguage,
		Captions:      EngineFromConfig(cfg, policy),
		Muxer: muxer.New(muxer.Options{
			FFmpegBinary: cfg.FFmpegBinary(),
			VideoCodec:   cfg.Muxer.VideoCodec,
			Preset:       cfg.Muxer.Preset,
			Style:        cfg.Muxer.Style,
		}, logger),
		KeepSRT: cfg.Muxer.KeepSRT,
		WorkDir: cfg.Paths.WorkDir,
		Logger:  logger,
	}, nil
}

// NewRecognitionClient returns a recognition client configured from cfg.
func NewRecognitionClient(cfg *config.Config, logger *slog.Logger, opts ...recognition.Option) *recognition.Client {
	opts = append([]recognition.Option{recognition.WithLogger(logger)}, opts...)
	return recognition.NewClient(recognition.Config{
		APIKey:                cfg.Recognition.APIKey,
		BaseURL:               cfg.Recognition.BaseURL,
		MatchingThreshold:     cfg.Recognition.MatchingThreshold,
		RequestTimeoutSeconds: cfg.Recognition.RequestTimeoutSeconds,
		Labels: recognition.LabelCodec{
			ReservedPrefix: cfg.Speakers.ReservedPrefix,
			Replacement:    cfg.Speakers.ReservedReplacement,
		},
	}, opts...)
}

// PolicyFromConfig returns the speaker policy described by cfg.
func PolicyFromConfig(cfg *config.Config) speaker.Policy {
	return speaker.Policy{
		TrustThreshold:    cfg.Speakers.TrustThreshold,
		ReservedPrefix:    cfg.Speakers.ReservedPrefix,
		UnknownLabel:      cfg.Speakers.UnknownLabel,
		HiddenLabels:      cfg.Speakers.HiddenLabels,
		HideClusterPrefix: cfg.Speakers.HideClusterPrefix,
	}
}

// EngineFromConfig returns the caption engine described by cfg. A configured
// gap of zero means cues touch.
func EngineFromConfig(cfg *config.Config, policy speaker.Policy) captions.Engine {
	gap := time.Duration(cfg.Captions.GapMillis) * time.Millisecond
	if cfg.Captions.GapMillis <= 0 {
		gap = -1
	}
	return captions.Engine{
		MaxChars: cfg.Captions.MaxChars,
		Gap:      gap,
		Prefix:   policy.ShowsPrefix,
	}
}

func newTranscriber(cfg *config.Config) (transcription.Transcriber, error) {
	switch cfg.Transcription.Backend {
	case "openai":
		return transcription.NewOpenAI(transcription.OpenAIConfig{
			APIKey:   cfg.Transcription.OpenAIAPIKey,
			Endpoint: cfg.Transcription.OpenAIBaseURL,
			Model:    cfg.Transcription.OpenAIModel,
			Language: language.ToISO2(cfg.Transcription.Language),
		}, nil), nil
	case "whisperx", "":
		return transcription.NewWhisperX(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			VADMethod:   cfg.Transcription.VADMethod,
			HFToken:     cfg.Transcription.HFToken,
			Language:    cfg.Transcription.Language,
		}, cfg.Paths.WorkDir), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, services.StageTranscribe, "new transcriber",
			fmt.Sprintf("unsupported backend %q", cfg.Transcription.Backend), nil)
	}
}

func newTranslator(cfg *config.Config) translation.Translator {
	if !cfg.Translation.Enabled || cfg.Translation.Backend == "none" {
		return translation.Identity{}
	}
	return translation.NewLLM(llm.NewClient(llm.Config{
		APIKey:         cfg.Translation.APIKey,
		BaseURL:        cfg.Translation.BaseURL,
		Model:          cfg.Translation.Model,
		Referer:        cfg.Translation.Referer,
		Title:          cfg.Translation.Title,
		TimeoutSeconds: cfg.Translation.TimeoutSeconds,
	}))
}

// Run analyses req.MediaPath: it extracts audio, runs the recognition job,
// transcribes every resolved segment and optionally translates the result.
// Stage-fatal failures are returned as services.StageError values.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.MediaPath) == "" {
		return Result{}, services.Wrap(services.ErrValidation, services.StageExtract, "run", "media path is required", nil)
	}
	if _, err := os.Stat(req.MediaPath); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, services.StageExtract, "run", req.MediaPath, err)
	}
	mode := req.Mode
	if mode == "" {
		mode = recognition.KindDiarize
	}
	if mode != recognition.KindIdentify && mode != recognition.KindDiarize {
		return Result{}, services.Wrap(services.ErrValidation, services.StageJobStart, "run",
			fmt.Sprintf("unsupported mode %q", mode), nil)
	}
	target := strings.TrimSpace(req.TargetLanguage)
	if target == "" {
		target = r.DefaultTarget
	}

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "pipeline")).
		With(logging.String(logging.FieldRunID, runID))

	result := Result{
		RunID:     runID,
		Mode:      mode,
		MediaPath: req.MediaPath,
		CreatedAt: time.Now().UTC(),
	}

	// Identification needs voiceprints before anything is uploaded.
	var snapshot profiles.Snapshot
	if mode == recognition.KindIdentify {
		var err error
		snapshot, err = r.Store.Load()
		if err != nil {
			return Result{}, err
		}
		if len(snapshot) == 0 {
			return Result{}, services.Wrap(services.ErrJobStartFailed, services.StageJobStart, "run",
				"identification requires at least one enrolled speaker", services.ErrValidation)
		}
	}

	if err := os.MkdirAll(r.WorkDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("run: create work dir: %w", err)
	}
	runDir, err := os.MkdirTemp(r.WorkDir, "run-")
	if err != nil {
		return Result{}, fmt.Errorf("run: create run dir: %w", err)
	}
	defer os.RemoveAll(runDir)

	audioPath := filepath.Join(runDir, "audio.wav")
	stageStart := time.Now()
	if err := r.Extractor.ExtractFull(services.WithStage(ctx, services.StageExtract), req.MediaPath, audioPath); err != nil {
		return Result{}, err
	}
	logger.Info("audio extracted",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String(logging.FieldStage, services.StageExtract),
		logging.Duration("duration", time.Since(stageStart)),
	)

	handle, err := r.Client.UploadFile(services.WithStage(ctx, services.StageUpload), audioPath)
	if err != nil {
		return Result{}, err
	}

	params := recognition.JobParams{}
	for _, entry := range snapshot.Entries() {
		params.Voiceprints = append(params.Voiceprints, recognition.Voiceprint{Label: entry.Name, Embedding: entry.Embedding})
	}
	jobID, err := r.Client.StartJob(services.WithStage(ctx, services.StageJobStart), mode, handle, params)
	if err != nil {
		return Result{}, err
	}
	result.JobID = jobID
	ctx = services.WithJobID(ctx, jobID)
	logger = logger.With(logging.String(logging.FieldJobID, jobID))

	output, err := r.Client.PollUntilTerminal(services.WithStage(ctx, services.StagePoll), jobID, r.Poll)
	if err != nil {
		return Result{}, err
	}
	segments := output.SpeakerSegments()
	if len(segments) == 0 {
		return Result{}, services.Wrap(services.ErrJobFailed, services.StagePoll, "run",
			fmt.Sprintf("%s: no speech segments in %s output", jobID, output.Kind), nil)
	}
	result.Segments = segments

	stage := *r.Transcription
	enrolled := snapshot.Enrolled()
	labels := r.Client.Labels()
	stage.Rename = func(label string) string { return labels.DisplayLabel(label, enrolled) }
	stageStart = time.Now()
	entries, tStats, err := stage.Run(services.WithStage(ctx, services.StageTranscribe), audioPath, segments)
	result.Stats.Transcription = tStats
	if err != nil {
		return Result{}, err
	}
	if len(entries) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, services.StageTranscribe, "run",
			fmt.Sprintf("none of %d segments produced text", len(segments)), services.ErrTranscriptionEmpty)
	}
	logger.Debug("stage finished",
		logging.String(logging.FieldStage, services.StageTranscribe),
		logging.Int("dropped", tStats.Segments-tStats.Transcribed),
		logging.Duration("duration", time.Since(stageStart)),
	)

	if req.Translate {
		stageStart = time.Now()
		translated, trStats, err := r.Translation.Run(services.WithStage(ctx, services.StageTranslate), entries, target)
		result.Stats.Translation = trStats
		if err != nil {
			return Result{}, err
		}
		entries = translated
		result.TargetLanguage, _ = language.Normalize(target)
		logger.Debug("stage finished",
			logging.String(logging.FieldStage, services.StageTranslate),
			logging.String("target_language", result.TargetLanguage),
			logging.Duration("duration", time.Since(stageStart)),
		)
	}
	result.Entries = entries

	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("mode", string(mode)),
		logging.Int("speakers", len(transcript.Speakers(entries))),
		logging.Int("entries", len(entries)),
	)
	return result, nil
}
