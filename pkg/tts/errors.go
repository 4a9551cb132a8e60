package tts

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a synthesis task failed.
type Kind int

const (
	// ProviderUnavailable covers network errors, timeouts, rate limits and 5xx.
	ProviderUnavailable Kind = iota + 1
	// UnsupportedInput means the provider rejected the text/locale combination.
	UnsupportedInput
	// StorageWriteFailure means the payload could not be persisted locally.
	StorageWriteFailure
)

func (k Kind) String() string {
	switch k {
	case ProviderUnavailable:
		return "provider_unavailable"
	case UnsupportedInput:
		return "unsupported_input"
	case StorageWriteFailure:
		return "storage_write_failure"
	default:
		return "unknown"
	}
}

// ErrEmptyAudio is returned when a provider answers successfully with no audio.
var ErrEmptyAudio = errors.New("received empty audio")

// Error is a classified synthesis or storage failure.
type Error struct {
	Kind       Kind
	Provider   string
	StatusCode int // 0 when no HTTP status was involved
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new classified error.
func NewError(kind Kind, provider string, statusCode int, err error) *Error {
	return &Error{Kind: kind, Provider: provider, StatusCode: statusCode, Err: err}
}

// StatusError builds an Error for a non-200 HTTP response, classifying it by status.
func StatusError(provider string, statusCode int, body string) *Error {
	if body == "" {
		body = "[empty body]"
	}
	return NewError(Classify(statusCode), provider, statusCode, errors.New(body))
}

// Classify maps an HTTP status code to a Kind.
// Client errors mean the request itself is bad, except timeouts and rate limits.
func Classify(statusCode int) Kind {
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		return ProviderUnavailable
	case statusCode >= 400 && statusCode < 500:
		return UnsupportedInput
	default:
		return ProviderUnavailable
	}
}

// KindOf extracts the Kind from err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return 0
}

// IsKind checks if err carries the given Kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
