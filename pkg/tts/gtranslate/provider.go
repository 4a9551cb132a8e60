// Package gtranslate speaks text through the Google Translate read-aloud endpoint,
// the same service the Python gTTS library uses. It needs no credentials.
package gtranslate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"speechbatch/pkg/config"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
)

const (
	providerName = "gtranslate"

	// maxChunkRunes is the longest text the endpoint accepts per request.
	maxChunkRunes = 100

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Provider implements tts.Provider for Google Translate speech.
type Provider struct {
	baseURL string
	slow    bool
	client  *http.Client
	tracker *tracker.Tracker
}

// NewProvider creates a new Google Translate TTS provider.
func NewProvider(cfg config.GoogleTranslateConfig, t *tracker.Tracker) *Provider {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://translate.google.com"
	}
	return &Provider{
		baseURL: base,
		slow:    cfg.Slow,
		client:  &http.Client{},
		tracker: t,
	}
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	return providerName
}

// Synthesize fetches MP3 audio for text. Long text is split into chunks and
// the MP3 frames of every chunk are concatenated. The requested format is
// ignored: the endpoint only produces MP3.
func (p *Provider) Synthesize(ctx context.Context, text, locale, format string) (*tts.Audio, error) {
	if err := tts.ValidateText(providerName, text); err != nil {
		return nil, err
	}

	lang := tts.BaseLanguage(locale)
	chunks := splitText(text, maxChunkRunes)

	var buf bytes.Buffer
	for i, chunk := range chunks {
		if err := p.fetchChunk(ctx, &buf, chunk, lang, i, len(chunks)); err != nil {
			if p.tracker != nil {
				p.tracker.TrackAPIFailure(providerName)
			}
			return nil, err
		}
	}

	if buf.Len() == 0 {
		if p.tracker != nil {
			p.tracker.TrackEmptyAudio(providerName)
		}
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, http.StatusOK, tts.ErrEmptyAudio)
	}

	if p.tracker != nil {
		p.tracker.TrackAPISuccess(providerName, buf.Len())
	}
	return &tts.Audio{Data: buf.Bytes(), Format: "mp3"}, nil
}

func (p *Provider) fetchChunk(ctx context.Context, w io.Writer, chunk, lang string, idx, total int) error {
	u := p.chunkURL(chunk, lang, idx, total)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", p.baseURL+"/")

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("GTRANSLATE", chunk, 0, err)
		return tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tts.Log("GTRANSLATE", chunk, resp.StatusCode, nil)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return tts.StatusError(providerName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		tts.Log("GTRANSLATE", chunk, resp.StatusCode, err)
		return tts.NewError(tts.ProviderUnavailable, providerName, resp.StatusCode, fmt.Errorf("read audio: %w", err))
	}

	tts.Log("GTRANSLATE", chunk, resp.StatusCode, nil)
	return nil
}

func (p *Provider) chunkURL(chunk, lang string, idx, total int) string {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(len([]rune(chunk))))
	if p.slow {
		q.Set("ttsspeed", "0.24")
	}
	return p.baseURL + "/translate_tts?" + q.Encode()
}
