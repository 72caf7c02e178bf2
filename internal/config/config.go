package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and store locations.
type Paths struct {
	WorkDir      string `toml:"work_dir"`
	LogDir       string `toml:"log_dir"`
	ProfileStore string `toml:"profile_store"`
}

// Recognition contains settings for the remote speaker-recognition service.
type Recognition struct {
	APIKey                 string  `toml:"api_key"`
	BaseURL                string  `toml:"base_url"`
	MatchingThreshold      float64 `toml:"matching_threshold"`
	PollAttempts           int     `toml:"poll_attempts"`
	PollIntervalSeconds    int     `toml:"poll_interval_seconds"`
	VoiceprintPollAttempts int     `toml:"voiceprint_poll_attempts"`
	RequestTimeoutSeconds  int     `toml:"request_timeout_seconds"`
}

// Speakers contains the client-side speaker resolution policy.
type Speakers struct {
	// TrustThreshold is the minimum confidence at which an identified name is
	// shown instead of the anonymous cluster label. Independent of
	// Recognition.MatchingThreshold, which the service applies server-side.
	TrustThreshold float64 `toml:"trust_threshold"`
	// ReservedPrefix marks anonymous cluster labels (e.g. SPEAKER_00).
	ReservedPrefix string `toml:"reserved_prefix"`
	// ReservedReplacement substitutes ReservedPrefix in enrolled labels sent to the service.
	ReservedReplacement string `toml:"reserved_replacement"`
	UnknownLabel        string `toml:"unknown_label"`
	// HiddenLabels lists label fragments that suppress the caption speaker prefix.
	HiddenLabels      []string `toml:"hidden_labels"`
	HideClusterPrefix bool     `toml:"hide_cluster_prefix"`
}

// Transcription contains speech-to-text backend settings.
type Transcription struct {
	Backend       string `toml:"backend"`
	Language      string `toml:"language"`
	Concurrency   int    `toml:"concurrency"`
	WhisperXModel string `toml:"whisperx_model"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	VADMethod     string `toml:"vad_method"`
	HFToken       string `toml:"hf_token"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url"`
	OpenAIModel   string `toml:"openai_model"`
}

// Translation contains settings for the translation stage.
type Translation struct {
	Enabled            bool   `toml:"enabled"`
	Backend            string `toml:"backend"`
	TargetLanguage     string `toml:"target_language"`
	RequestDelayMillis int    `toml:"request_delay_ms"`
	Concurrency        int    `toml:"concurrency"`
	FallbackTag        string `toml:"fallback_tag"`
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	Model              string `toml:"model"`
	Referer            string `toml:"referer"`
	Title              string `toml:"title"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// Captions contains caption flow settings.
type Captions struct {
	MaxChars        int  `toml:"max_chars"`
	GapMillis       int  `toml:"gap_ms"`
	UseOriginalText bool `toml:"use_original_text"`
}

// Muxer contains settings for burning captions into video.
type Muxer struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	VideoCodec   string `toml:"video_codec"`
	Preset       string `toml:"preset"`
	Style        string `toml:"style"`
	KeepSRT      bool   `toml:"keep_srt"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subvoice.
//
// Configuration sections by subsystem:
//   - Paths: work directory, log directory, speaker profile store
//   - Recognition: remote speaker-recognition API and poll budget
//   - Speakers: client-side speaker label policy
//   - Transcription: speech-to-text backend
//   - Translation: translation backend and rate limiting
//   - Captions: caption cue character budget and gap
//   - Muxer: ffmpeg burn-in settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Recognition   Recognition   `toml:"recognition"`
	Speakers      Speakers      `toml:"speakers"`
	Transcription Transcription `toml:"transcription"`
	Translation   Translation   `toml:"translation"`
	Captions      Captions      `toml:"captions"`
	Muxer         Muxer         `toml:"muxer"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file in the working directory is
// loaded first so credentials can live outside the TOML file.
func Load(path string) (*Config, string, bool, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, "", false, err
	}

	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("subvoice.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the work and log directories plus the profile
// store's parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.WorkDir, c.Paths.LogDir}
	if c.Paths.ProfileStore != "" {
		dirs = append(dirs, filepath.Dir(c.Paths.ProfileStore))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for extraction and muxing.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Muxer.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
