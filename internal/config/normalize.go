package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRecognition()
	c.normalizeSpeakers()
	c.normalizeTranscription()
	c.normalizeTranslation()
	c.normalizeCaptions()
	c.normalizeMuxer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ProfileStore) == "" {
		c.Paths.ProfileStore = defaultProfileStore
	}
	if c.Paths.ProfileStore, err = expandPath(c.Paths.ProfileStore); err != nil {
		return fmt.Errorf("paths.profile_store: %w", err)
	}
	return nil
}

func (c *Config) normalizeRecognition() {
	c.Recognition.APIKey = strings.TrimSpace(c.Recognition.APIKey)
	if c.Recognition.APIKey == "" {
		if value, ok := os.LookupEnv("PYANNOTE_API_KEY"); ok {
			c.Recognition.APIKey = strings.TrimSpace(value)
		}
	}
	c.Recognition.BaseURL = strings.TrimRight(strings.TrimSpace(c.Recognition.BaseURL), "/")
	if c.Recognition.BaseURL == "" {
		c.Recognition.BaseURL = defaultRecognitionBaseURL
	}
	if c.Recognition.PollAttempts <= 0 {
		c.Recognition.PollAttempts = defaultPollAttempts
	}
	if c.Recognition.PollIntervalSeconds <= 0 {
		c.Recognition.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Recognition.VoiceprintPollAttempts <= 0 {
		c.Recognition.VoiceprintPollAttempts = defaultVoiceprintPollAttempts
	}
	if c.Recognition.RequestTimeoutSeconds <= 0 {
		c.Recognition.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func (c *Config) normalizeSpeakers() {
	c.Speakers.ReservedPrefix = strings.TrimSpace(c.Speakers.ReservedPrefix)
	if c.Speakers.ReservedPrefix == "" {
		c.Speakers.ReservedPrefix = defaultReservedPrefix
	}
	c.Speakers.ReservedReplacement = strings.TrimSpace(c.Speakers.ReservedReplacement)
	if c.Speakers.ReservedReplacement == "" {
		c.Speakers.ReservedReplacement = defaultReservedReplacement
	}
	c.Speakers.UnknownLabel = strings.TrimSpace(c.Speakers.UnknownLabel)
	if c.Speakers.UnknownLabel == "" {
		c.Speakers.UnknownLabel = defaultUnknownLabel
	}
	labels := make([]string, 0, len(c.Speakers.HiddenLabels))
	for _, label := range c.Speakers.HiddenLabels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	c.Speakers.HiddenLabels = labels
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Backend = strings.ToLower(strings.TrimSpace(c.Transcription.Backend))
	if c.Transcription.Backend == "" {
		c.Transcription.Backend = defaultTranscriptionBackend
	}
	c.Transcription.Language = strings.ToLower(strings.TrimSpace(c.Transcription.Language))
	if c.Transcription.Concurrency <= 0 {
		c.Transcription.Concurrency = 1
	}
	c.Transcription.WhisperXModel = strings.TrimSpace(c.Transcription.WhisperXModel)
	if c.Transcription.WhisperXModel == "" {
		c.Transcription.WhisperXModel = defaultWhisperXModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
	c.Transcription.OpenAIAPIKey = strings.TrimSpace(c.Transcription.OpenAIAPIKey)
	if c.Transcription.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Transcription.OpenAIAPIKey = strings.TrimSpace(value)
		}
	}
	c.Transcription.OpenAIBaseURL = strings.TrimSpace(c.Transcription.OpenAIBaseURL)
	if c.Transcription.OpenAIBaseURL == "" {
		c.Transcription.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	c.Transcription.OpenAIModel = strings.TrimSpace(c.Transcription.OpenAIModel)
	if c.Transcription.OpenAIModel == "" {
		c.Transcription.OpenAIModel = defaultOpenAIModel
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Backend = strings.ToLower(strings.TrimSpace(c.Translation.Backend))
	if c.Translation.Backend == "" {
		c.Translation.Backend = defaultTranslationBackend
	}
	c.Translation.TargetLanguage = strings.TrimSpace(c.Translation.TargetLanguage)
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
	if c.Translation.RequestDelayMillis <= 0 {
		c.Translation.RequestDelayMillis = defaultTranslationDelayMillis
	}
	if c.Translation.Concurrency <= 0 {
		c.Translation.Concurrency = 1
	}
	c.Translation.FallbackTag = strings.TrimSpace(c.Translation.FallbackTag)
	if c.Translation.FallbackTag == "" {
		c.Translation.FallbackTag = defaultTranslationFallbackTag
	}
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Translation.BaseURL = strings.TrimSpace(c.Translation.BaseURL)
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = defaultTranslationBaseURL
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	if c.Translation.Model == "" {
		c.Translation.Model = defaultTranslationModel
	}
	c.Translation.Referer = strings.TrimSpace(c.Translation.Referer)
	if c.Translation.Referer == "" {
		c.Translation.Referer = defaultTranslationReferer
	}
	c.Translation.Title = strings.TrimSpace(c.Translation.Title)
	if c.Translation.Title == "" {
		c.Translation.Title = defaultTranslationTitle
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeoutSeconds
	}
}

func (c *Config) normalizeCaptions() {
	if c.Captions.MaxChars <= 0 {
		c.Captions.MaxChars = defaultCaptionMaxChars
	}
	if c.Captions.GapMillis < 0 {
		c.Captions.GapMillis = defaultCaptionGapMillis
	}
}

func (c *Config) normalizeMuxer() {
	c.Muxer.FFmpegBinary = strings.TrimSpace(c.Muxer.FFmpegBinary)
	if c.Muxer.FFmpegBinary == "" {
		c.Muxer.FFmpegBinary = defaultFFmpegBinary
	}
	c.Muxer.VideoCodec = strings.TrimSpace(c.Muxer.VideoCodec)
	if c.Muxer.VideoCodec == "" {
		c.Muxer.VideoCodec = defaultVideoCodec
	}
	c.Muxer.Preset = strings.TrimSpace(c.Muxer.Preset)
	if c.Muxer.Preset == "" {
		c.Muxer.Preset = defaultMuxPreset
	}
	c.Muxer.Style = strings.TrimSpace(c.Muxer.Style)
	if c.Muxer.Style == "" {
		c.Muxer.Style = defaultMuxStyle
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
