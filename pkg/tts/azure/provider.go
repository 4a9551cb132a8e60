package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"

	"speechbatch/pkg/config"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
)

const providerName = "azure-speech"

// outputFormats maps a requested container to an Azure output format and the
// format we report back.
var outputFormats = map[string][2]string{
	"mp3":  {"audio-24khz-160kbitrate-mono-mp3", "mp3"},
	"wav":  {"riff-24khz-16bit-mono-pcm", "wav"},
	"ogg":  {"ogg-24khz-16bit-mono-opus", "ogg"},
	"opus": {"ogg-24khz-16bit-mono-opus", "ogg"},
}

// Provider implements tts.Provider for Azure Speech.
type Provider struct {
	key     string
	region  string
	voiceID string
	client  *http.Client
	url     string
	tracker *tracker.Tracker
}

// NewProvider creates a new Azure Speech TTS provider.
func NewProvider(cfg config.AzureSpeechConfig, t *tracker.Tracker) *Provider {
	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	return &Provider{
		key:     cfg.Key,
		region:  cfg.Region,
		voiceID: cfg.VoiceID,
		client:  &http.Client{},
		url:     url,
		tracker: t,
	}
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	return providerName
}

// Synthesize generates speech from text using Azure Speech.
// Unknown formats (e.g. "aac") fall back to MP3.
func (p *Provider) Synthesize(ctx context.Context, text, locale, format string) (*tts.Audio, error) {
	if err := tts.ValidateText(providerName, text); err != nil {
		return nil, err
	}
	if p.voiceID == "" {
		return nil, tts.NewError(tts.UnsupportedInput, providerName, 0, fmt.Errorf("no voice ID configured for Azure Speech"))
	}

	ssml := buildSSML(p.voiceID, tts.RegionLocale(locale), text)
	if err := validateSSML(ssml); err != nil {
		return nil, tts.NewError(tts.UnsupportedInput, providerName, 0, fmt.Errorf("invalid ssml: %w", err))
	}

	out, ok := outputFormats[format]
	if !ok {
		out = outputFormats["mp3"]
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewBufferString(ssml))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", out[0])
	req.Header.Set("User-Agent", "speechbatch")

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("AZURE", ssml, 0, err)
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, fmt.Errorf("api request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tts.Log("AZURE", ssml, resp.StatusCode, nil)
		body, err := io.ReadAll(resp.Body)
		bodyStr := string(body)
		if err != nil {
			bodyStr = fmt.Sprintf("[failed to read body: %v]", err)
		}
		p.trackFailure()
		return nil, tts.StatusError(providerName, resp.StatusCode, bodyStr)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		tts.Log("AZURE", ssml, resp.StatusCode, err)
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, resp.StatusCode, fmt.Errorf("failed to read audio: %w", err))
	}
	tts.Log("AZURE", ssml, resp.StatusCode, nil)

	if len(data) == 0 {
		if p.tracker != nil {
			p.tracker.TrackEmptyAudio(providerName)
		}
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, resp.StatusCode, tts.ErrEmptyAudio)
	}

	if p.tracker != nil {
		p.tracker.TrackAPISuccess(providerName, len(data))
	}
	return &tts.Audio{Data: data, Format: out[1]}, nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackAPIFailure(providerName)
	}
}

func buildSSML(vid, locale, text string) string {
	return fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		locale, tts.EscapeXML(vid), tts.EscapeXML(text),
	)
}

// validateSSML checks if the SSML string is well-formed XML.
func validateSSML(ssml string) error {
	decoder := xml.NewDecoder(bytes.NewReader([]byte(ssml)))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
