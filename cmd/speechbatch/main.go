package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"speechbatch/pkg/assets"
	"speechbatch/pkg/batch"
	"speechbatch/pkg/config"
	"speechbatch/pkg/db/maintenance"
	"speechbatch/pkg/ledger"
	"speechbatch/pkg/logging"
	"speechbatch/pkg/probe"
	"speechbatch/pkg/tasks"
	"speechbatch/pkg/tracker"
	"speechbatch/pkg/tts"
	"speechbatch/pkg/tts/engine"
	"speechbatch/pkg/version"
)

const defaultConfigPath = "configs/speechbatch.yaml"

// errTasksFailed signals per-task failures when batch.fail_exit_code is set.
var errTasksFailed = errors.New("one or more tasks failed")

type options struct {
	configPath  string
	initConfig  bool
	tasksFile   string
	outDir      string
	engine      string
	haltOnError bool
	onlyFailed  bool
	showVersion bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("speechbatch", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", defaultConfigPath, "Path to the config file")
	fs.BoolVar(&o.initConfig, "init-config", false, "Generate default config file and exit")
	fs.StringVar(&o.tasksFile, "tasks", "", "YAML task file (default: built-in list for the locale)")
	fs.StringVar(&o.outDir, "out", "", "Output directory (overrides batch.output_dir)")
	fs.StringVar(&o.engine, "engine", "", "TTS engine (overrides tts.engine)")
	fs.BoolVar(&o.haltOnError, "halt-on-error", false, "Stop at the first failed task")
	fs.BoolVar(&o.onlyFailed, "only-failed", false, "Only synthesize tasks that failed in the previous run")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.showVersion {
		fmt.Println("speechbatch", version.Version)
		return
	}

	// Handle --init-config flag
	if opts.initConfig {
		if err := config.GenerateDefault(opts.configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", opts.configPath)
		return
	}

	// A missing .env is fine; keys may come from the real environment or the config file.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		if !errors.Is(err, errTasksFailed) {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Batch failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	appCfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(appCfg, opts)

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	// Configure History Logging
	tts.SetLogPath(appCfg.Log.History.Path)
	tts.SetEnabled(appCfg.Log.History.Enabled)

	slog.Info("speechbatch started", "version", version.Version, "engine", appCfg.TTS.Engine, "out", appCfg.Batch.OutputDir)

	list, err := loadTasks(appCfg)
	if err != nil {
		return err
	}

	led := openLedger(ctx, appCfg)
	if led != nil {
		defer led.Close()
	}

	if opts.onlyFailed {
		if led == nil {
			return fmt.Errorf("-only-failed needs the run ledger (ledger.path)")
		}
		failed, err := led.FailedInLastRun(ctx, list.Locale)
		if err != nil {
			return fmt.Errorf("failed to read previous run: %w", err)
		}
		list = list.Filter(failed)
		slog.Info("Retrying failed tasks from previous run", "count", list.Len())
	}

	store := assets.NewStore(appCfg.Batch.OutputDir)

	if err := probe.AnalyzeResults(probe.Run(ctx, []probe.Probe{
		probe.OutputWritable(store),
		probe.TaskList(list),
		probe.EngineCredentials(&appCfg.TTS),
	})); err != nil {
		return fmt.Errorf("preflight failed: %w", err)
	}

	tr := tracker.New()
	provider, err := engine.New(ctx, &appCfg.TTS, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize tts engine: %w", err)
	}
	_ = probe.AnalyzeResults(probe.Run(ctx, []probe.Probe{probe.EngineRemote(provider)}))

	runner := batch.NewRunner(provider, store, stdout, batch.Options{
		OnError:  appCfg.Batch.OnError,
		Timeout:  appCfg.Request.Timeout.Std(),
		AssetDir: appCfg.Batch.AssetDir,
	})

	report, runErr := runner.Run(ctx, list)

	if led != nil && report != nil && (report.Total() > 0 || !report.Complete()) {
		if err := led.RecordRun(context.WithoutCancel(ctx), report); err != nil {
			slog.Error("Failed to record run", "error", err)
		}
	}
	logUsage(tr)

	if runErr != nil {
		return runErr
	}
	if appCfg.Batch.FailExitCode && !report.OK() {
		return errTasksFailed
	}
	return nil
}

// loadConfig creates an explicitly named config file when it is missing;
// the default path is only read if present.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		return config.LoadOptional(path)
	}
	return config.Load(path)
}

func applyOverrides(cfg *config.Config, opts options) {
	if opts.tasksFile != "" {
		cfg.Batch.TasksFile = opts.tasksFile
	}
	if opts.outDir != "" {
		cfg.Batch.OutputDir = opts.outDir
	}
	if opts.engine != "" {
		cfg.TTS.Engine = opts.engine
	}
	if opts.haltOnError {
		cfg.Batch.OnError = config.OnErrorHalt
	}
}

func loadTasks(cfg *config.Config) (tasks.List, error) {
	if cfg.Batch.TasksFile != "" {
		list, err := tasks.Load(cfg.Batch.TasksFile, cfg.Batch.Locale)
		if err != nil {
			return tasks.List{}, err
		}
		if !config.IsValidLocale(list.Locale) {
			return tasks.List{}, fmt.Errorf("task file %s: invalid locale %q", cfg.Batch.TasksFile, list.Locale)
		}
		return list, nil
	}
	return tasks.Builtin(cfg.Batch.Locale)
}

// openLedger returns nil when the ledger is disabled or cannot be opened; the batch runs without it.
func openLedger(ctx context.Context, cfg *config.Config) ledger.Ledger {
	if cfg.Ledger.Path == "" {
		return nil
	}
	led, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		slog.Warn("Run ledger unavailable", "path", cfg.Ledger.Path, "error", err)
		return nil
	}
	if err := maintenance.Run(ctx, led, led.DB(), cfg.Ledger.Retention.Std()); err != nil {
		slog.Error("Maintenance tasks failed", "error", err)
	}
	return led
}

func logUsage(tr *tracker.Tracker) {
	stats := tr.Snapshot()
	for _, name := range tr.Providers() {
		s := stats[name]
		slog.Info("Engine usage", "engine", name, "success", s.APISuccess, "failures", s.APIFailures, "empty", s.EmptyAudio, "bytes", s.Bytes)
	}
}
