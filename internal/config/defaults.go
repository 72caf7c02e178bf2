package config

const (
	defaultConfigPath                = "~/.config/subvoice/config.toml"
	defaultWorkDir                   = "~/.local/share/subvoice/work"
	defaultLogDir                    = "~/.local/share/subvoice/logs"
	defaultProfileStore              = "~/.local/share/subvoice/voice_database.json"
	defaultRecognitionBaseURL        = "https://api.pyannote.ai/v1"
	defaultMatchingThreshold         = 0.999
	defaultPollAttempts              = 300
	defaultPollIntervalSeconds       = 2
	defaultVoiceprintPollAttempts    = 30
	defaultRequestTimeoutSeconds     = 30
	defaultTrustThreshold            = 0.90
	defaultReservedPrefix            = "SPEAKER_"
	defaultReservedReplacement       = "Person_"
	defaultUnknownLabel              = "Unknown"
	defaultTranscriptionBackend      = "whisperx"
	defaultWhisperXModel             = "large-v3"
	defaultVADMethod                 = "silero"
	defaultOpenAIBaseURL             = "https://api.openai.com/v1/audio/transcriptions"
	defaultOpenAIModel               = "whisper-1"
	defaultTranslationBackend        = "llm"
	defaultTargetLanguage            = "fr"
	defaultTranslationDelayMillis    = 100
	defaultTranslationFallbackTag    = "[Translation error]"
	defaultTranslationBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultTranslationModel          = "google/gemini-3-flash-preview"
	defaultTranslationReferer        = "https://github.com/subvoice/subvoice"
	defaultTranslationTitle          = "subvoice translator"
	defaultTranslationTimeoutSeconds = 60
	defaultCaptionMaxChars           = 60
	defaultCaptionGapMillis          = 100
	defaultFFmpegBinary              = "ffmpeg"
	defaultVideoCodec                = "libx264"
	defaultMuxPreset                 = "ultrafast"
	defaultMuxStyle                  = "Fontname=Arial,Fontsize=18,PrimaryColour=&H00FFFFFF,BackColour=&H60000000,BorderStyle=3,Outline=1,Shadow=0,MarginV=25,Alignment=2"
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:      defaultWorkDir,
			LogDir:       defaultLogDir,
			ProfileStore: defaultProfileStore,
		},
		Recognition: Recognition{
			BaseURL:                defaultRecognitionBaseURL,
			MatchingThreshold:      defaultMatchingThreshold,
			PollAttempts:           defaultPollAttempts,
			PollIntervalSeconds:    defaultPollIntervalSeconds,
			VoiceprintPollAttempts: defaultVoiceprintPollAttempts,
			RequestTimeoutSeconds:  defaultRequestTimeoutSeconds,
		},
		Speakers: Speakers{
			TrustThreshold:      defaultTrustThreshold,
			ReservedPrefix:      defaultReservedPrefix,
			ReservedReplacement: defaultReservedReplacement,
			UnknownLabel:        defaultUnknownLabel,
			HiddenLabels:        []string{"Intervenant"},
		},
		Transcription: Transcription{
			Backend:       defaultTranscriptionBackend,
			Concurrency:   1,
			WhisperXModel: defaultWhisperXModel,
			VADMethod:     defaultVADMethod,
			OpenAIBaseURL: defaultOpenAIBaseURL,
			OpenAIModel:   defaultOpenAIModel,
		},
		Translation: Translation{
			Enabled:            true,
			Backend:            defaultTranslationBackend,
			TargetLanguage:     defaultTargetLanguage,
			RequestDelayMillis: defaultTranslationDelayMillis,
			Concurrency:        1,
			FallbackTag:        defaultTranslationFallbackTag,
			BaseURL:            defaultTranslationBaseURL,
			Model:              defaultTranslationModel,
			Referer:            defaultTranslationReferer,
			Title:              defaultTranslationTitle,
			TimeoutSeconds:     defaultTranslationTimeoutSeconds,
		},
		Captions: Captions{
			MaxChars:  defaultCaptionMaxChars,
			GapMillis: defaultCaptionGapMillis,
		},
		Muxer: Muxer{
			FFmpegBinary: defaultFFmpegBinary,
			VideoCodec:   defaultVideoCodec,
			Preset:       defaultMuxPreset,
			Style:        defaultMuxStyle,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
