package edgetts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"speechbatch/pkg/config"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
)

const providerName = "edge-tts"

// defaultVoices maps a regional locale to a neural voice.
var defaultVoices = map[string]string{
	"ru-RU": "ru-RU-SvetlanaNeural",
	"en-US": "en-US-AvaMultilingualNeural",
	"en-GB": "en-GB-SoniaNeural",
	"uz-UZ": "uz-UZ-MadinaNeural",
	"de-DE": "de-DE-SeraphinaMultilingualNeural",
	"fr-FR": "fr-FR-VivienneMultilingualNeural",
	"uk-UA": "uk-UA-PolinaNeural",
	"kk-KZ": "kk-KZ-AigulNeural",
}

// Provider implements tts.Provider for Microsoft Edge TTS.
type Provider struct {
	voiceID string
	tracker *tracker.Tracker
}

// NewProvider creates a new Edge TTS provider.
func NewProvider(cfg config.EdgeTTSConfig, t *tracker.Tracker) *Provider {
	return &Provider{voiceID: cfg.VoiceID, tracker: t}
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	return providerName
}

// VoiceFor returns the configured voice, or the default one for locale.
func (p *Provider) VoiceFor(locale string) (string, error) {
	if p.voiceID != "" {
		return p.voiceID, nil
	}
	if v, ok := defaultVoices[tts.RegionLocale(locale)]; ok {
		return v, nil
	}
	return "", tts.NewError(tts.UnsupportedInput, providerName, 0, fmt.Errorf("no default voice for locale %q", locale))
}

// Synthesize generates MP3 audio using Edge TTS.
func (p *Provider) Synthesize(ctx context.Context, text, locale, format string) (*tts.Audio, error) {
	if err := tts.ValidateText(providerName, text); err != nil {
		return nil, err
	}
	voice, err := p.VoiceFor(locale)
	if err != nil {
		return nil, err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}
	defer conn.Close()

	// ReadMessage ignores ctx; closing the connection unblocks it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := p.sendConfig(conn); err != nil {
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}

	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := p.sendSSML(conn, voice, tts.RegionLocale(locale), text, requestID); err != nil {
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}

	var buf bytes.Buffer
	if err := p.consumeResponses(ctx, conn, &buf); err != nil {
		p.trackFailure()
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, err)
	}

	if buf.Len() == 0 {
		if p.tracker != nil {
			p.tracker.TrackEmptyAudio(providerName)
		}
		return nil, tts.NewError(tts.ProviderUnavailable, providerName, 0, tts.ErrEmptyAudio)
	}

	if p.tracker != nil {
		p.tracker.TrackAPISuccess(providerName, buf.Len())
	}
	return &tts.Audio{Data: buf.Bytes(), Format: "mp3"}, nil
}

func (p *Provider) trackFailure() {
	if p.tracker != nil {
		p.tracker.TrackAPIFailure(providerName)
	}
}

// RequiredEnv lists the environment variables the websocket handshake needs.
var RequiredEnv = []string{
	"EDGE_TTS_BASE_URL",
	"EDGE_TTS_ORIGIN",
	"EDGE_TTS_USER_AGENT",
	"EDGE_TTS_TRUSTED_CLIENT_TOKEN",
	"EDGE_TTS_SEC_MS_GEC_VERSION",
}

// CheckEnv reports the first missing handshake variable.
func CheckEnv() error {
	for _, k := range RequiredEnv {
		if os.Getenv(k) == "" {
			return fmt.Errorf("%s environment variable is required", k)
		}
	}
	return nil
}

func (p *Provider) dial(ctx context.Context) (*websocket.Conn, error) {
	if err := CheckEnv(); err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Origin", os.Getenv("EDGE_TTS_ORIGIN"))
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", os.Getenv("EDGE_TTS_USER_AGENT"))
	header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	header.Set("Accept-Language", "en-US,en;q=0.9")

	// MUID Cookie
	muid := strings.ReplaceAll(uuid.New().String(), "-", "")
	header.Set("Cookie", fmt.Sprintf("muid=%s", muid))

	trustedClientToken := os.Getenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN")
	token := generateSecMSGec(trustedClientToken, time.Now())

	url := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s",
		os.Getenv("EDGE_TTS_BASE_URL"), trustedClientToken, token, os.Getenv("EDGE_TTS_SEC_MS_GEC_VERSION"))

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			slog.Warn("EdgeTTS: handshake failure", "status", resp.Status, "status_code", resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

// generateSecMSGec derives the Sec-MS-GEC token: Windows file-time ticks
// rounded down to 5 minutes, concatenated with the client token, SHA-256, upper hex.
func generateSecMSGec(trustedClientToken string, now time.Time) string {
	ticks := float64(now.Unix()) + 11644473600
	ticks -= float64(int64(ticks) % 300)
	ticks *= 1e7

	strToHash := fmt.Sprintf("%.0f%s", ticks, trustedClientToken)

	hash := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

func (p *Provider) sendConfig(conn *websocket.Conn) error {
	configMsg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n{\"context\":{\"synthesis\":{\"audio\":{\"metadataoptions\":{\"sentenceBoundaryEnabled\":\"false\",\"wordBoundaryEnabled\":\"false\"},\"outputFormat\":\"audio-24khz-48kbitrate-mono-mp3\"}}}}"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

func (p *Provider) sendSSML(conn *websocket.Conn, voice, locale, text, requestID string) error {
	ssml := buildSSML(voice, locale, text)
	tts.Log("EDGETTS", ssml, 0, nil)

	ssmlMsg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

func buildSSML(voice, locale, text string) string {
	return fmt.Sprintf("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'>%s</voice></speak>",
		locale, voice, tts.EscapeXML(text))
}

func (p *Provider) consumeResponses(ctx context.Context, conn *websocket.Conn, w io.Writer) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("no response before deadline: %w", ctxErr)
			}
			return fmt.Errorf("read message failed: %w", err)
		}

		switch msgType {
		case websocket.TextMessage:
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		case websocket.BinaryMessage:
			if err := handleBinaryMessage(data, w); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// handleBinaryMessage strips the 2-byte big-endian header length and the
// header itself, writing the audio that follows.
func handleBinaryMessage(data []byte, w io.Writer) error {
	if len(data) < 2 {
		return nil
	}
	headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
	if len(data) < 2+headerLength {
		return nil
	}
	audioData := data[2+headerLength:]
	if len(audioData) > 0 {
		if _, err := w.Write(audioData); err != nil {
			return fmt.Errorf("write audio data failed: %w", err)
		}
	}
	return nil
}
