package config

import (
	"errors"
	"fmt"
	"strings"

	langpkg "subvoice/internal/language"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by RequireRecognition and friends, since commands that only
// re-render captions never contact the services.
func (c *Config) Validate() error {
	if err := c.validateRecognition(); err != nil {
		return err
	}
	if err := c.validateSpeakers(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRecognition() error {
	if c.Recognition.MatchingThreshold <= 0 || c.Recognition.MatchingThreshold > 1 {
		return fmt.Errorf("recognition.matching_threshold must be greater than 0 and at most 1, got %v", c.Recognition.MatchingThreshold)
	}
	if !strings.HasPrefix(c.Recognition.BaseURL, "http://") && !strings.HasPrefix(c.Recognition.BaseURL, "https://") {
		return fmt.Errorf("recognition.base_url must be an http(s) URL, got %q", c.Recognition.BaseURL)
	}
	return nil
}

func (c *Config) validateSpeakers() error {
	if c.Speakers.TrustThreshold <= 0 || c.Speakers.TrustThreshold > 1 {
		return fmt.Errorf("speakers.trust_threshold must be greater than 0 and at most 1, got %v", c.Speakers.TrustThreshold)
	}
	if strings.Contains(c.Speakers.ReservedReplacement, c.Speakers.ReservedPrefix) {
		return errors.New("speakers.reserved_replacement must not contain speakers.reserved_prefix")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	switch c.Transcription.Backend {
	case "whisperx", "openai":
	default:
		return fmt.Errorf("transcription.backend: unsupported value %q (want whisperx or openai)", c.Transcription.Backend)
	}
	switch c.Transcription.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("transcription.vad_method: unsupported value %q", c.Transcription.VADMethod)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Backend {
	case "llm", "none":
	default:
		return fmt.Errorf("translation.backend: unsupported value %q (want llm or none)", c.Translation.Backend)
	}
	if _, err := langpkg.Normalize(c.Translation.TargetLanguage); err != nil {
		return fmt.Errorf("translation.target_language %q: %w", c.Translation.TargetLanguage, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// RequireRecognition reports a configuration error when the recognition API key is missing.
func (c *Config) RequireRecognition() error {
	if c.Recognition.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("recognition.api_key is required. Set PYANNOTE_API_KEY env var or edit %s (create with 'subvoice config init')", defaultPath)
	}
	return nil
}

// RequireTranslation reports a configuration error when LLM translation is
// enabled without credentials.
func (c *Config) RequireTranslation() error {
	if !c.Translation.Enabled || c.Translation.Backend == "none" {
		return nil
	}
	if c.Translation.APIKey == "" {
		return errors.New("translation.api_key is required when translation is enabled. Set OPENROUTER_API_KEY or disable translation")
	}
	return nil
}

// RequireTranscription reports a configuration error when the selected
// transcription backend lacks credentials.
func (c *Config) RequireTranscription() error {
	if c.Transcription.Backend == "openai" && c.Transcription.OpenAIAPIKey == "" {
		return errors.New("transcription.openai_api_key is required for the openai backend. Set OPENAI_API_KEY")
	}
	return nil
}
