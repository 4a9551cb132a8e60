package tts

import (
	"context"
)

// Provider defines the interface for Text-To-Speech engines.
type Provider interface {
	// Synthesize returns audio for text spoken in locale ("ru", "ru-RU").
	// format is the container the caller would like ("mp3", "aac", "wav");
	// engines that cannot honour it return what they produced in Audio.Format.
	Synthesize(ctx context.Context, text, locale, format string) (*Audio, error)

	// Name is the stable engine identifier used in logs, stats and the ledger.
	Name() string
}

// Audio is a synthesized payload.
type Audio struct {
	Data   []byte
	Format string // e.g. "mp3", "wav"
}

// Size returns the payload length in bytes.
func (a *Audio) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}
