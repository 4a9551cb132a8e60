package fishaudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"speechbatch/pkg/config"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
)

const (
	providerName = "fish-audio"
	apiURL       = "https://api.fish.audio/v1/tts"
)

// Provider implements tts.Provider for Fish Audio.
// The spoken language follows the reference voice; locale is only logged.
type Provider struct {
	apiKey  string
	voiceID string // Default voice ID (reference_id)
	modelID string // Model ID (e.g. "s1")
	url     string
	client  *http.Client
	tracker *tracker.Tracker
}

// NewProvider creates a new Fish Audio TTS provider.
func NewProvider(cfg config.FishAudioConfig, t *tracker.Tracker) *Provider {
	return &Provider{
		apiKey:  cfg.Key,
		voiceID: cfg.VoiceID,
		modelID: cfg.Model,
		url:     apiURL,
		client:  &http.Client{},
		tracker: t,
	}
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	return providerName
}

// requestBody represents the JSON payload for Fish Audio TTS.
type requestBody struct {
	Text        string `json:"text"`
	ReferenceID string `json:"reference_id"`
	Format      string `json:"format"`
	Mp3Bitrate  int    `json:"mp3_bitrate,omitempty"`
	Latency     string `json:"latency,omitempty"`
}

// Synthesize generates speech from text using Fish Audio in a single attempt.
func (p *Provider) Synthesize(ctx context.Context, text, locale, format string) (*tts.Audio, error) {
	if err := tts.ValidateText(providerName, text); err != nil {
		return nil, err
	}
	if p.voiceID == "" {
		return nil, tts.NewError(tts.UnsupportedInput, providerName, 0, fmt.Errorf("no voice ID configured for Fish Audio"))
	}

	reqData := requestBody{
		Text:        text,
		ReferenceID: p.voiceID,
		Format:      "mp3",
		Mp3Bitrate:  128,
		Latency:     "normal",
	}
	if format == "wav" || format == "opus" {
		reqData.Format = format
		reqData.Mp3Bitrate = 0
	}

	jsonData, err := json.Marshal(reqData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if p.modelID != "" {
		req.Header.Set("model", p.modelID)
	}

	logContent := fmt.Sprintf("LOCALE: %s\nPAYLOAD:\n%s", locale, text)

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("FISH", logContent, 0, err)
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		tts.Log("FISH", logContent, resp.StatusCode, nil)
		p.trackFailure()
		return nil, tts.StatusError(providerName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		tts.Log("FISH", logContent, resp.StatusCode, err)
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, resp.StatusCode, fmt.Errorf("failed to read audio: %w", err))
	}

	if len(data) == 0 {
		tts.Log("FISH", "Received empty audio file (0 bytes)", resp.StatusCode, nil)
		if p.tracker != nil {
			p.tracker.TrackEmptyAudio(providerName)
		}
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, resp.StatusCode, tts.ErrEmptyAudio)
	}

	tts.Log("FISH", logContent, resp.StatusCode, nil)
	if p.tracker != nil {
		p.tracker.TrackAPISuccess(providerName, len(data))
	}
	return &tts.Audio{Data: data, Format: reqData.Format}, nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackAPIFailure(providerName)
	}
}
