package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Error policies for a batch run.
const (
	OnErrorContinue = "continue"
	OnErrorHalt     = "halt"
)

// Config holds the application configuration.
type Config struct {
	Batch   BatchConfig   `yaml:"batch"`
	Request RequestConfig `yaml:"request"`
	TTS     TTSConfig     `yaml:"tts"`
	Log     LogConfig     `yaml:"log"`
	Ledger  LedgerConfig  `yaml:"ledger"`
}

// BatchConfig controls what gets synthesized and where it lands.
type BatchConfig struct {
	Locale       string `yaml:"locale"`         // e.g. "ru" or "ru-RU"
	TasksFile    string `yaml:"tasks_file"`     // empty = built-in list for the locale
	OutputDir    string `yaml:"output_dir"`     // where files are written
	AssetDir     string `yaml:"asset_dir"`      // where the operator should move them; empty = assets/audios/<lang>/
	OnError      string `yaml:"on_error"`       // "continue" or "halt"
	FailExitCode bool   `yaml:"fail_exit_code"` // exit 1 when any task failed
}

// RequestConfig holds per-call network settings.
type RequestConfig struct {
	Timeout Duration `yaml:"timeout"`
}

// GoogleTranslateConfig holds settings for the Google Translate speech endpoint.
type GoogleTranslateConfig struct {
	BaseURL string `yaml:"base_url"`
	Slow    bool   `yaml:"slow"`
}

// EdgeTTSConfig holds settings for Edge TTS.
type EdgeTTSConfig struct {
	VoiceID string `yaml:"voice"` // empty = default voice for the locale
}

// FishAudioConfig holds settings for Fish Audio TTS.
type FishAudioConfig struct {
	Key     string `yaml:"key"`   // API Key
	VoiceID string `yaml:"voice"` // Reference ID
	Model   string `yaml:"model"` // Model ID (e.g. "s1")
}

// AzureSpeechConfig holds settings for Azure Speech TTS.
type AzureSpeechConfig struct {
	Key     string `yaml:"key"`
	Region  string `yaml:"region"` // e.g., "westeurope"
	VoiceID string `yaml:"voice"`
}

// GeminiTTSConfig holds settings for Gemini speech generation.
type GeminiTTSConfig struct {
	Key   string `yaml:"key"`
	Model string `yaml:"model"`
	Voice string `yaml:"voice"` // prebuilt voice name, e.g. "Kore"
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Engine          string                `yaml:"engine"`
	GoogleTranslate GoogleTranslateConfig `yaml:"google_translate"`
	EdgeTTS         EdgeTTSConfig         `yaml:"edge_tts"`
	FishAudio       FishAudioConfig       `yaml:"fish_audio"`
	AzureSpeech     AzureSpeechConfig     `yaml:"azure_speech"`
	Gemini          GeminiTTSConfig       `yaml:"gemini"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	App     LogSettings     `yaml:"app"`
	History HistorySettings `yaml:"history"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// HistorySettings controls the per-request TTS history file.
type HistorySettings struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// LedgerConfig holds settings for the run ledger database.
type LedgerConfig struct {
	Path      string   `yaml:"path"` // empty disables the ledger
	Retention Duration `yaml:"retention"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Batch: BatchConfig{
			Locale:    "ru",
			OutputDir: ".",
			OnError:   OnErrorContinue,
		},
		Request: RequestConfig{
			Timeout: Duration(30 * time.Second),
		},
		TTS: TTSConfig{
			Engine: "google-translate",
			GoogleTranslate: GoogleTranslateConfig{
				BaseURL: "https://translate.google.com",
			},
			FishAudio: FishAudioConfig{
				Model: "s1",
			},
			AzureSpeech: AzureSpeechConfig{
				VoiceID: "ru-RU-SvetlanaNeural",
			},
			Gemini: GeminiTTSConfig{
				Model: "gemini-2.5-flash-preview-tts",
				Voice: "Kore",
			},
		},
		Log: LogConfig{
			App: LogSettings{
				Path:  "./logs/speechbatch.log",
				Level: "INFO",
			},
			History: HistorySettings{
				Path:    "./logs/tts.log",
				Enabled: false,
			},
		},
		Ledger: LedgerConfig{
			Path:      "./data/speechbatch.db",
			Retention: Duration(90 * Day),
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT save back to disk.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOptional is Load without creating the file: a missing file yields the defaults
// and nothing is written.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills empty secrets from the environment. Values are never written back to disk.
func applyEnv(cfg *Config) {
	fallback := func(dst *string, env string) {
		if *dst != "" {
			return
		}
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	fallback(&cfg.TTS.Gemini.Key, "GEMINI_API_KEY")
	fallback(&cfg.TTS.FishAudio.Key, "FISH_AUDIO_API_KEY")
	fallback(&cfg.TTS.AzureSpeech.Key, "AZURE_SPEECH_KEY")
	fallback(&cfg.TTS.AzureSpeech.Region, "AZURE_SPEECH_REGION")
}

// Validate checks fields whose bad values would only surface mid-batch.
func (c *Config) Validate() error {
	if !IsValidLocale(c.Batch.Locale) {
		return fmt.Errorf("invalid batch locale '%s': must be 'xx' or 'xx-YY' (e.g. 'ru', 'ru-RU')", c.Batch.Locale)
	}
	switch c.Batch.OnError {
	case OnErrorContinue, OnErrorHalt:
	default:
		return fmt.Errorf("invalid batch on_error '%s': must be '%s' or '%s'", c.Batch.OnError, OnErrorContinue, OnErrorHalt)
	}
	if c.Request.Timeout.Std() <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.Request.Timeout.Std())
	}
	return nil
}

var localeRe = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)

// IsValidLocale reports whether s looks like "ru" or "ru-RU".
func IsValidLocale(s string) bool {
	return localeRe.MatchString(s)
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# speechbatch configuration
# ------------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
# API keys may be left empty and supplied via environment (.env is honoured).

`)
	data = append(header, data...)

	reEngine := regexp.MustCompile(`(?m)^(\s+)engine:`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: google-translate, edge-tts, azure-speech, fish-audio, gemini\n${1}engine:"))

	reOnError := regexp.MustCompile(`(?m)^(\s+)on_error:`)
	data = reOnError.ReplaceAll(data, []byte("${1}# Options: continue (isolate failures), halt (stop at first failure)\n${1}on_error:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
