package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		content       string // empty = no file
		validate      func(*testing.T, *Config)
		checkFile     func(*testing.T, string)
		expectedError bool
	}{
		{
			name: "NewFile_Defaults",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.Engine != "google-translate" {
					t.Errorf("expected default engine 'google-translate', got '%s'", cfg.TTS.Engine)
				}
				if cfg.Batch.Locale != "ru" {
					t.Errorf("expected default locale 'ru', got '%s'", cfg.Batch.Locale)
				}
				if cfg.Batch.OnError != OnErrorContinue {
					t.Errorf("expected default on_error 'continue', got '%s'", cfg.Batch.OnError)
				}
				if cfg.Request.Timeout.Std() != 30*time.Second {
					t.Errorf("expected 30s timeout, got %v", cfg.Request.Timeout.Std())
				}
			},
			checkFile: func(t *testing.T, path string) {
				content, err := os.ReadFile(path)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				s := string(content)
				if !strings.Contains(s, "engine: google-translate") {
					t.Error("config file missing default engine")
				}
				if !strings.Contains(s, "# Options: continue") {
					t.Error("config file missing on_error options comment")
				}
			},
		},
		{
			name:    "ExistingFile_Override",
			content: "batch:\n  locale: ru-RU\n  on_error: halt\ntts:\n  engine: edge-tts\nledger:\n  retention: 2w\n",
			validate: func(t *testing.T, cfg *Config) {
				if cfg.TTS.Engine != "edge-tts" {
					t.Errorf("expected engine 'edge-tts', got '%s'", cfg.TTS.Engine)
				}
				if cfg.Batch.Locale != "ru-RU" {
					t.Errorf("expected locale 'ru-RU', got '%s'", cfg.Batch.Locale)
				}
				if cfg.Batch.OnError != OnErrorHalt {
					t.Errorf("expected on_error 'halt', got '%s'", cfg.Batch.OnError)
				}
				if cfg.Ledger.Retention.Std() != 2*Week {
					t.Errorf("expected 2w retention, got %v", cfg.Ledger.Retention.Std())
				}
				// Untouched sections keep defaults
				if cfg.Log.App.Level != "INFO" {
					t.Errorf("expected default log level INFO, got %s", cfg.Log.App.Level)
				}
			},
			checkFile: func(t *testing.T, path string) {
				content, err := os.ReadFile(path)
				if err != nil {
					t.Fatalf("failed to read config file: %v", err)
				}
				if strings.Contains(string(content), "google-translate") {
					t.Error("existing config file must not be rewritten")
				}
			},
		},
		{
			name:          "InvalidLocale",
			content:       "batch:\n  locale: russian\n",
			expectedError: true,
		},
		{
			name:          "InvalidPolicy",
			content:       "batch:\n  on_error: retry\n",
			expectedError: true,
		},
		{
			name:          "MalformedYAML",
			content:       "batch: [unclosed\n",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "configs", "speechbatch.yaml")
			if tt.content != "" {
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatalf("failed to setup test file: %v", err)
				}
			}

			cfg, err := Load(path)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Load() error = %v, expectedError %v", err, tt.expectedError)
			}
			if err != nil {
				return
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
			if tt.checkFile != nil {
				tt.checkFile(t, path)
			}
		})
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	t.Setenv("AZURE_SPEECH_KEY", "env-key")
	t.Setenv("AZURE_SPEECH_REGION", "westeurope")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	path := filepath.Join(t.TempDir(), "speechbatch.yaml")
	if err := os.WriteFile(path, []byte("tts:\n  gemini:\n    key: file-key\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TTS.AzureSpeech.Key != "env-key" || cfg.TTS.AzureSpeech.Region != "westeurope" {
		t.Errorf("azure settings not taken from env: %+v", cfg.TTS.AzureSpeech)
	}
	if cfg.TTS.Gemini.Key != "file-key" {
		t.Errorf("file value should win over env, got %q", cfg.TTS.Gemini.Key)
	}
}

func TestIsValidLocale(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ru", true},
		{"ru-RU", true},
		{"uz", true},
		{"en-us", false},
		{"RU", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidLocale(tt.in); got != tt.want {
			t.Errorf("IsValidLocale(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGenerateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "speechbatch.yaml")

	if err := GenerateDefault(path); err != nil {
		t.Fatalf("GenerateDefault failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not created: %v", err)
	}

	// Second call must leave an edited file alone.
	if err := os.WriteFile(path, []byte("tts:\n  engine: gemini\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := GenerateDefault(path); err != nil {
		t.Fatalf("GenerateDefault (existing) failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "tts:\n  engine: gemini\n" {
		t.Errorf("existing file was overwritten: %q", string(data))
	}
}

func TestLoadOptional(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gem-key")
	path := filepath.Join(t.TempDir(), "configs", "speechbatch.yaml")

	cfg, err := LoadOptional(path)
	if err != nil {
		t.Fatalf("LoadOptional failed: %v", err)
	}
	if cfg.TTS.Engine != "google-translate" {
		t.Errorf("expected default engine, got %q", cfg.TTS.Engine)
	}
	if cfg.TTS.Gemini.Key != "gem-key" {
		t.Errorf("env fallback not applied, got %q", cfg.TTS.Gemini.Key)
	}
	if _, err := os.Stat(filepath.Dir(path)); !os.IsNotExist(err) {
		t.Error("LoadOptional must not create the config file or its directory")
	}

	// An existing file is read like Load.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("tts:\n  engine: edge-tts\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadOptional(path)
	if err != nil {
		t.Fatalf("LoadOptional (existing) failed: %v", err)
	}
	if cfg.TTS.Engine != "edge-tts" {
		t.Errorf("expected engine from file, got %q", cfg.TTS.Engine)
	}
}
