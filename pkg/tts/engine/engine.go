// Package engine builds the configured speech provider.
package engine

import (
	"context"
	"fmt"
	"strings"

	"speechbatch/pkg/config"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
	"speechbatch/pkg/tts/azure"
	"speechbatch/pkg/tts/edgetts"
	"speechbatch/pkg/tts/fishaudio"
	"speechbatch/pkg/tts/gemini"
	"speechbatch/pkg/tts/gtranslate"
)

// Canonical engine names.
const (
	GoogleTranslate = "google-translate"
	EdgeTTS         = "edge-tts"
	AzureSpeech     = "azure-speech"
	FishAudio       = "fish-audio"
	Gemini          = "gemini"
)

// Canonical maps an engine name or alias to its canonical name.
// Unknown names are returned as an empty string.
func Canonical(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gtranslate", "google-translate", "google", "gtts":
		return GoogleTranslate
	case "edge", "edge-tts":
		return EdgeTTS
	case "azure", "azure-speech":
		return AzureSpeech
	case "fish-audio", "fishaudio":
		return FishAudio
	case "gemini":
		return Gemini
	default:
		return ""
	}
}

// New returns a TTS provider based on configuration.
func New(ctx context.Context, cfg *config.TTSConfig, t *tracker.Tracker) (tts.Provider, error) {
	switch Canonical(cfg.Engine) {
	case GoogleTranslate:
		return gtranslate.NewProvider(cfg.GoogleTranslate, t), nil
	case EdgeTTS:
		return edgetts.NewProvider(cfg.EdgeTTS, t), nil
	case AzureSpeech:
		return azure.NewProvider(cfg.AzureSpeech, t), nil
	case FishAudio:
		return fishaudio.NewProvider(cfg.FishAudio, t), nil
	case Gemini:
		return gemini.NewProvider(ctx, cfg.Gemini, t)
	default:
		return nil, fmt.Errorf("unknown tts engine: %s", cfg.Engine)
	}
}

// CheckCredentials reports missing settings the selected engine cannot run without.
func CheckCredentials(cfg *config.TTSConfig) error {
	switch Canonical(cfg.Engine) {
	case GoogleTranslate:
		if cfg.GoogleTranslate.BaseURL == "" {
			return fmt.Errorf("google_translate.base_url is empty")
		}
	case EdgeTTS:
		return edgetts.CheckEnv()
	case AzureSpeech:
		if cfg.AzureSpeech.Key == "" || cfg.AzureSpeech.Region == "" {
			return fmt.Errorf("azure_speech requires key and region (or AZURE_SPEECH_KEY / AZURE_SPEECH_REGION)")
		}
	case FishAudio:
		if cfg.FishAudio.Key == "" {
			return fmt.Errorf("fish_audio requires key (or FISH_AUDIO_API_KEY)")
		}
		if cfg.FishAudio.VoiceID == "" {
			return fmt.Errorf("fish_audio requires a voice reference id")
		}
	case Gemini:
		if cfg.Gemini.Key == "" {
			return fmt.Errorf("gemini requires key (or GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown tts engine: %s", cfg.Engine)
	}
	return nil
}

// modelChecker is implemented by providers that can verify their model remotely.
type modelChecker interface {
	CheckModel(ctx context.Context) error
}

// CheckRemote runs the provider's remote self-check, if it has one.
func CheckRemote(ctx context.Context, p tts.Provider) error {
	if mc, ok := p.(modelChecker); ok {
		return mc.CheckModel(ctx)
	}
	return nil
}
