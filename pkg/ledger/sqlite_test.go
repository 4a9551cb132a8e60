package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"speechbatch/pkg/batch"
	"speechbatch/pkg/tasks"
	"speechbatch/pkg/tts"
)

var _ Ledger = (*SQLiteLedger)(nil)

func openTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func makeReport(id, locale string, started time.Time, failing ...string) *batch.Report {
	fail := make(map[string]bool)
	for _, f := range failing {
		fail[f] = true
	}

	r := &batch.Report{RunID: id, Engine: "gtranslate", Locale: locale, Started: started, Finished: started.Add(time.Second)}
	for _, task := range []tasks.Task{
		{Text: "Один", Filename: "one-ru.aac"},
		{Text: "Два", Filename: "two-ru.aac"},
		{Text: "Монеты", Filename: "coins-ru.mp3"},
	} {
		res := batch.Result{Task: task, Duration: 150 * time.Millisecond}
		if fail[task.Filename] {
			res.Err = tts.NewError(tts.ProviderUnavailable, "gtranslate", 503, errors.New("down"))
		} else {
			res.Path = task.Filename
			res.Bytes = 100
			res.Format = "mp3"
		}
		r.Results = append(r.Results, res)
	}
	return r
}

func TestSQLiteLedger(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()

	testEmpty(t, ctx, l)
	testRecordAndLastRun(t, ctx, l)
	testFailedInLastRun(t, ctx, l)
	testHaltedRun(t, ctx, l)
	testState(t, ctx, l)
}

func testEmpty(t *testing.T, ctx context.Context, l *SQLiteLedger) {
	t.Run("Empty", func(t *testing.T) {
		run, err := l.LastRun(ctx, "ru")
		if err != nil || run != nil {
			t.Errorf("expected no run, got %+v, %v", run, err)
		}
		names, err := l.FailedInLastRun(ctx, "ru")
		if err != nil || len(names) != 0 {
			t.Errorf("expected no failures, got %v, %v", names, err)
		}
	})
}

func testRecordAndLastRun(t *testing.T, ctx context.Context, l *SQLiteLedger) {
	t.Run("RecordAndLastRun", func(t *testing.T) {
		base := time.Now().Add(-time.Hour)
		if err := l.RecordRun(ctx, makeReport("run-1", "ru", base, "two-ru.aac")); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}

		run, err := l.LastRun(ctx, "ru")
		if err != nil || run == nil {
			t.Fatalf("LastRun failed: %v", err)
		}
		if run.ID != "run-1" || run.Total != 3 || run.Failed != 1 {
			t.Errorf("unexpected run: %+v", run)
		}
		if run.StartedAt.UnixMilli() != base.UnixMilli() {
			t.Errorf("StartedAt = %v, want %v", run.StartedAt, base)
		}

		entries, err := l.Entries(ctx, "run-1")
		if err != nil {
			t.Fatalf("Entries failed: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Filename != "one-ru.aac" || !entries[0].OK || entries[0].Bytes != 100 {
			t.Errorf("unexpected first entry: %+v", entries[0])
		}
		if entries[1].OK || entries[1].ErrorKind != "provider_unavailable" || entries[1].Error == "" {
			t.Errorf("unexpected failed entry: %+v", entries[1])
		}
		if entries[2].Duration != 150*time.Millisecond {
			t.Errorf("Duration = %v", entries[2].Duration)
		}
	})
}

func testFailedInLastRun(t *testing.T, ctx context.Context, l *SQLiteLedger) {
	t.Run("FailedInLastRun", func(t *testing.T) {
		// A newer run in another locale must not shadow the ru history.
		if err := l.RecordRun(ctx, makeReport("run-uz", "uz", time.Now(), "one-ru.aac")); err != nil {
			t.Fatal(err)
		}

		names, err := l.FailedInLastRun(ctx, "ru")
		if err != nil {
			t.Fatal(err)
		}
		if len(names) != 1 || names[0] != "two-ru.aac" {
			t.Errorf("FailedInLastRun(ru) = %v", names)
		}

		latest, err := l.LastRun(ctx, "")
		if err != nil || latest == nil || latest.ID != "run-uz" {
			t.Errorf("LastRun(any) = %+v, %v", latest, err)
		}

		// A clean retry clears the failure list.
		if err := l.RecordRun(ctx, makeReport("run-2", "ru", time.Now().Add(time.Minute))); err != nil {
			t.Fatal(err)
		}
		names, _ = l.FailedInLastRun(ctx, "ru")
		if len(names) != 0 {
			t.Errorf("expected no failures after clean run, got %v", names)
		}
	})
}

func testHaltedRun(t *testing.T, ctx context.Context, l *SQLiteLedger) {
	t.Run("HaltedRun", func(t *testing.T) {
		r := makeReport("run-halt", "ru", time.Now().Add(2*time.Minute), "one-ru.aac")
		// Halted at the first task: the other two were never attempted.
		r.Pending = []tasks.Task{r.Results[1].Task, r.Results[2].Task}
		r.Results = r.Results[:1]

		if err := l.RecordRun(ctx, r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}

		run, err := l.LastRun(ctx, "ru")
		if err != nil || run == nil {
			t.Fatalf("LastRun failed: %v", err)
		}
		if run.Total != 3 || run.Failed != 3 {
			t.Errorf("expected 3 total and 3 failed, got %+v", run)
		}

		names, err := l.FailedInLastRun(ctx, "ru")
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"one-ru.aac", "two-ru.aac", "coins-ru.mp3"}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Errorf("FailedInLastRun = %v, want %v", names, want)
		}

		entries, err := l.Entries(ctx, "run-halt")
		if err != nil || len(entries) != 3 {
			t.Fatalf("Entries = %v, %v", entries, err)
		}
		if entries[2].ErrorKind != NotAttemptedKind || entries[2].Seq != 2 {
			t.Errorf("unexpected pending entry: %+v", entries[2])
		}
	})
}

func testState(t *testing.T, ctx context.Context, l *SQLiteLedger) {
	t.Run("State", func(t *testing.T) {
		if _, ok := l.GetState(ctx, "missing"); ok {
			t.Error("expected missing key")
		}
		if err := l.SetState(ctx, "k", "v1"); err != nil {
			t.Fatal(err)
		}
		if err := l.SetState(ctx, "k", "v2"); err != nil {
			t.Fatal(err)
		}
		if v, ok := l.GetState(ctx, "k"); !ok || v != "v2" {
			t.Errorf("GetState = %q, %v", v, ok)
		}
	})
}
