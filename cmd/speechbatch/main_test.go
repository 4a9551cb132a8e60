package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranslate serves MP3 bytes for every text except failText while failing is set.
func fakeTranslate(t *testing.T, failText string, failing *atomic.Bool) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query().Get("q")
		if q == failText && failing != nil && failing.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ID3-" + q))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// setupWorkspace writes a config and task file into a temp dir and returns options pointing at them.
// batchExtra is inserted under the batch section.
func setupWorkspace(t *testing.T, baseURL, batchExtra string, withLedger bool) options {
	t.Helper()
	dir := t.TempDir()

	ledgerPath := ""
	if withLedger {
		ledgerPath = filepath.Join(dir, "data", "ledger.db")
	}

	cfg := fmt.Sprintf(`batch:
  output_dir: %q
%s
tts:
  engine: google-translate
  google_translate:
    base_url: %q
log:
  app:
    path: %q
ledger:
  path: %q
`, filepath.Join(dir, "out"), batchExtra, baseURL, filepath.Join(dir, "logs", "test.log"), ledgerPath)

	cfgPath := filepath.Join(dir, "configs", "speechbatch.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(cfgPath), 0o755))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	tasksPath := filepath.Join(dir, "tasks.yaml")
	require.NoError(t, os.WriteFile(tasksPath, []byte(`locale: ru
tasks:
  - text: Один
    filename: one-ru.aac
  - text: Два
    filename: two-ru.aac
  - text: Монеты
    filename: coins-ru.mp3
`), 0o644))

	return options{configPath: cfgPath, tasksFile: tasksPath}
}

func outDir(opts options) string {
	return filepath.Join(filepath.Dir(filepath.Dir(opts.configPath)), "out")
}

func TestRun(t *testing.T) {
	srv, _ := fakeTranslate(t, "", nil)
	opts := setupWorkspace(t, srv.URL, "", true)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout))

	assert.Equal(t, "Saved: one-ru.aac\nSaved: two-ru.aac\nSaved: coins-ru.mp3\n"+
		"All done! Move the generated files to your assets/audios/ru/ directory.\n", stdout.String())

	data, err := os.ReadFile(filepath.Join(outDir(opts), "one-ru.aac"))
	require.NoError(t, err)
	assert.Equal(t, "ID3-Один", string(data))
}

func TestRun_ContinueThenOnlyFailed(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv, _ := fakeTranslate(t, "Два", &failing)
	opts := setupWorkspace(t, srv.URL, "", true)

	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout))
	assert.Contains(t, stdout.String(), "Failed: two-ru.aac: ")
	assert.Contains(t, stdout.String(), "Summary: 2/3 succeeded")

	// Service recovers; only the failed file is retried.
	failing.Store(false)
	opts.onlyFailed = true
	stdout.Reset()
	require.NoError(t, run(context.Background(), opts, &stdout))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Saved: two-ru.aac", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "All done!"))
}

func TestRun_HaltOnError(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv, calls := fakeTranslate(t, "Один", &failing)
	opts := setupWorkspace(t, srv.URL, "", true)
	opts.haltOnError = true

	var stdout bytes.Buffer
	err := run(context.Background(), opts, &stdout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one-ru.aac")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.NotContains(t, stdout.String(), "All done!")
}

func TestRun_HaltThenOnlyFailed(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv, _ := fakeTranslate(t, "Один", &failing)
	opts := setupWorkspace(t, srv.URL, "", true)
	opts.haltOnError = true

	require.Error(t, run(context.Background(), opts, &bytes.Buffer{}))

	// The retry covers the failed task and the two the halt never reached.
	failing.Store(false)
	opts.haltOnError = false
	opts.onlyFailed = true
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &stdout))

	assert.Equal(t, "Saved: one-ru.aac\nSaved: two-ru.aac\nSaved: coins-ru.mp3\n"+
		"All done! Move the generated files to your assets/audios/ru/ directory.\n", stdout.String())
	for _, name := range []string{"one-ru.aac", "two-ru.aac", "coins-ru.mp3"} {
		_, err := os.Stat(filepath.Join(outDir(opts), name))
		assert.NoError(t, err, name)
	}
}

func TestLoadConfig_DefaultPathNotCreated(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig(defaultConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "google-translate", cfg.TTS.Engine)
	_, err = os.Stat(defaultConfigPath)
	assert.True(t, os.IsNotExist(err), "default config must not be written")

	// An explicitly named config is created with defaults, as -init-config would.
	_, err = loadConfig("custom.yaml")
	require.NoError(t, err)
	_, err = os.Stat("custom.yaml")
	assert.NoError(t, err)
}

func TestRun_FailExitCode(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	srv, _ := fakeTranslate(t, "Монеты", &failing)
	opts := setupWorkspace(t, srv.URL, "  fail_exit_code: true", true)

	err := run(context.Background(), opts, &bytes.Buffer{})
	assert.True(t, errors.Is(err, errTasksFailed), "got %v", err)
}

func TestRun_PreflightFailure(t *testing.T) {
	srv, calls := fakeTranslate(t, "", nil)
	opts := setupWorkspace(t, srv.URL, "", true)
	opts.engine = "gemini"
	t.Setenv("GEMINI_API_KEY", "")

	var stdout bytes.Buffer
	err := run(context.Background(), opts, &stdout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preflight failed")
	assert.Empty(t, stdout.String())
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestRun_OnlyFailedWithoutLedger(t *testing.T) {
	srv, _ := fakeTranslate(t, "", nil)
	opts := setupWorkspace(t, srv.URL, "", false)

	opts.onlyFailed = true
	err := run(context.Background(), opts, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger")
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-engine", "edge-tts", "-out", "build", "-halt-on-error", "-only-failed"})
	require.NoError(t, err)
	assert.Equal(t, defaultConfigPath, opts.configPath)
	assert.Equal(t, "edge-tts", opts.engine)
	assert.Equal(t, "build", opts.outDir)
	assert.True(t, opts.haltOnError)
	assert.True(t, opts.onlyFailed)

	_, err = parseFlags([]string{"-unknown"})
	assert.Error(t, err)
}
