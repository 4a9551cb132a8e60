package ledger

import (
	"context"
	"time"

	"speechbatch/pkg/batch"
)

// Run is one recorded batch run.
type Run struct {
	ID         string
	Engine     string
	Locale     string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Failed     int
}

// Entry is one recorded task outcome.
type Entry struct {
	RunID     string
	Seq       int
	Filename  string
	Text      string
	OK        bool
	Bytes     int
	Format    string
	Error     string
	ErrorKind string
	Duration  time.Duration
}

// RunStore handles batch run history.
type RunStore interface {
	RecordRun(ctx context.Context, report *batch.Report) error
	LastRun(ctx context.Context, locale string) (*Run, error)
	Entries(ctx context.Context, runID string) ([]Entry, error)
	FailedInLastRun(ctx context.Context, locale string) ([]string, error)
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
}

// Ledger composes all sub-interfaces.
type Ledger interface {
	RunStore
	StateStore

	// Close closes the ledger connection.
	Close() error
}
