package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"speechbatch/pkg/db"
	"speechbatch/pkg/ledger"
)

const lastPruneStateKey = "ledger_last_prune"

// pruneInterval limits pruning to once per day regardless of how often batches run.
const pruneInterval = 24 * time.Hour

// Run executes ledger maintenance. A zero retention keeps every run.
func Run(ctx context.Context, s ledger.StateStore, d *db.DB, retention time.Duration) error {
	if retention <= 0 {
		return nil
	}

	pruned, err := pruneRuns(ctx, s, d, retention, time.Now())
	if err != nil {
		return err
	}
	if pruned > 0 {
		slog.Info("Ledger pruning completed", "runs_removed", pruned, "retention", retention)
	}
	return nil
}

// pruneRuns removes runs older than retention unless a prune already happened within pruneInterval.
func pruneRuns(ctx context.Context, s ledger.StateStore, d *db.DB, retention time.Duration, now time.Time) (int64, error) {
	if stored, found := s.GetState(ctx, lastPruneStateKey); found {
		if last, err := time.Parse(time.RFC3339, stored); err == nil && now.Sub(last) < pruneInterval {
			return 0, nil // Up to date
		}
	}

	n, err := d.PruneRuns(retention)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}

	if err := s.SetState(ctx, lastPruneStateKey, now.UTC().Format(time.RFC3339)); err != nil {
		return n, fmt.Errorf("failed to update state: %w", err)
	}
	return n, nil
}
