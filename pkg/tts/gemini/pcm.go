package gemini

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

const defaultSampleRate = 24000

// pcmStreamer streams signed 16-bit little-endian mono PCM as beep samples.
type pcmStreamer struct {
	data []byte
	pos  int
}

func (s *pcmStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) && s.pos+1 < len(s.data) {
		v := int16(uint16(s.data[s.pos]) | uint16(s.data[s.pos+1])<<8)
		f := float64(v) / (1 << 15)
		samples[n][0] = f
		samples[n][1] = f
		s.pos += 2
		n++
	}
	return n, n > 0
}

func (s *pcmStreamer) Err() error { return nil }

// sampleRateFromMIME reads the rate parameter of e.g. "audio/L16;codec=pcm;rate=24000".
func sampleRateFromMIME(mime string) int {
	for _, part := range strings.Split(mime, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(k, "rate") {
			continue
		}
		if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
			return rate
		}
	}
	return defaultSampleRate
}

// encodeWAV wraps raw PCM in a WAV container.
// wav.Encode needs an io.WriteSeeker to patch the header, so a temp file backs the encoding.
func encodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) < 2 {
		return nil, fmt.Errorf("pcm payload too short (%d bytes)", len(pcm))
	}

	f, err := os.CreateTemp("", "speechbatch-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	if err := wav.Encode(f, &pcmStreamer{data: pcm}, format); err != nil {
		return nil, fmt.Errorf("failed to encode wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
