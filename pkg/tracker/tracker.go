package tracker

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Tracker counts synthesis calls per TTS provider.
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*ProviderStats
}

// ProviderStats holds counters for a specific provider.
// Fields are accessed atomically.
type ProviderStats struct {
	APISuccess  int64
	APIFailures int64
	EmptyAudio  int64
	Bytes       int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*ProviderStats),
	}
}

// getStats returns the stats object for a provider, creating it if needed.
func (t *Tracker) getStats(provider string) *ProviderStats {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &ProviderStats{}
	t.stats[provider] = s
	return s
}

// TrackAPISuccess records a successful synthesis call and the payload size.
func (t *Tracker) TrackAPISuccess(provider string, bytes int) {
	s := t.getStats(provider)
	atomic.AddInt64(&s.APISuccess, 1)
	atomic.AddInt64(&s.Bytes, int64(bytes))
}

func (t *Tracker) TrackAPIFailure(provider string) {
	atomic.AddInt64(&t.getStats(provider).APIFailures, 1)
}

// TrackEmptyAudio records a call that returned 200 but no audio.
func (t *Tracker) TrackEmptyAudio(provider string) {
	atomic.AddInt64(&t.getStats(provider).EmptyAudio, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats)
	for k, v := range t.stats {
		result[k] = ProviderStats{
			APISuccess:  atomic.LoadInt64(&v.APISuccess),
			APIFailures: atomic.LoadInt64(&v.APIFailures),
			EmptyAudio:  atomic.LoadInt64(&v.EmptyAudio),
			Bytes:       atomic.LoadInt64(&v.Bytes),
		}
	}
	return result
}

// Providers returns the tracked provider names in sorted order.
func (t *Tracker) Providers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.stats))
	for k := range t.stats {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
