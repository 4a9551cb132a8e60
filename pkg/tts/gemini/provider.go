package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"speechbatch/pkg/config"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
)

const providerName = "gemini"

// Provider implements tts.Provider using Gemini native speech generation.
type Provider struct {
	client  *genai.Client
	model   string
	voice   string
	tracker *tracker.Tracker
}

// NewProvider creates a Gemini speech provider. A key is required.
func NewProvider(ctx context.Context, cfg config.GeminiTTSConfig, t *tracker.Tracker) (*Provider, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("gemini: no API key configured (tts.gemini.key or GEMINI_API_KEY)")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	p := &Provider{
		client:  client,
		model:   cfg.Model,
		voice:   cfg.Voice,
		tracker: t,
	}
	if p.model == "" {
		p.model = "gemini-2.5-flash-preview-tts"
	}
	if p.voice == "" {
		p.voice = "Kore"
	}
	return p, nil
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	return providerName
}

// CheckModel verifies the configured model is reachable with the key.
func (p *Provider) CheckModel(ctx context.Context) error {
	name := p.model
	if !strings.HasPrefix(name, "models/") {
		name = "models/" + name
	}
	if _, err := p.client.Models.Get(ctx, name, nil); err != nil {
		return fmt.Errorf("gemini model %s unavailable: %w", p.model, err)
	}
	slog.Debug("Gemini model validation success", "model", p.model)
	return nil
}

// Synthesize generates speech and returns it as WAV regardless of the requested format.
func (p *Provider) Synthesize(ctx context.Context, text, locale, format string) (*tts.Audio, error) {
	if err := tts.ValidateText(providerName, text); err != nil {
		return nil, err
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: tts.RegionLocale(locale),
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: p.voice,
				},
			},
		},
	}

	logContent := fmt.Sprintf("MODEL: %s\nVOICE: %s\nLOCALE: %s\nPAYLOAD:\n%s", p.model, p.voice, locale, text)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(text), cfg)
	if err != nil {
		tts.Log("GEMINI", logContent, 0, err)
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}

	blob := inlineAudio(resp)
	if blob == nil || len(blob.Data) == 0 {
		tts.Log("GEMINI", "Received no audio data", 200, nil)
		if p.tracker != nil {
			p.tracker.TrackEmptyAudio(providerName)
		}
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, tts.ErrEmptyAudio)
	}

	data, err := encodeWAV(blob.Data, sampleRateFromMIME(blob.MIMEType))
	if err != nil {
		tts.Log("GEMINI", logContent, 200, err)
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}

	if format != "wav" {
		slog.Debug("Gemini returns WAV only", "requested", format)
	}

	tts.Log("GEMINI", logContent, 200, nil)
	if p.tracker != nil {
		p.tracker.TrackAPISuccess(providerName, len(data))
	}
	return &tts.Audio{Data: data, Format: "wav"}, nil
}

// inlineAudio returns the first inline blob of the first candidate.
func inlineAudio(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return nil
	}
	for _, part := range c.Content.Parts {
		if part != nil && part.InlineData != nil {
			return part.InlineData
		}
	}
	return nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackAPIFailure(providerName)
	}
}
