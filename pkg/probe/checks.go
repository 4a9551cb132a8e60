package probe

import (
	"context"
	"log/slog"
	"time"

	"speechbatch/pkg/assets"
	"speechbatch/pkg/config"
	"speechbatch/pkg/tasks"
	"speechbatch/pkg/tts"
	"speechbatch/pkg/tts/engine"
)

// OutputWritable fails when files cannot be created in the store's directory.
func OutputWritable(s *assets.Store) Probe {
	return Probe{
		Name:     "Output Directory",
		Critical: true,
		Check: func(ctx context.Context) error {
			return s.CheckWritable()
		},
	}
}

// TaskList fails on tasks that cannot be synthesized and logs warnings for the rest.
func TaskList(l tasks.List) Probe {
	return Probe{
		Name:     "Task List",
		Critical: true,
		Check: func(ctx context.Context) error {
			warnings, err := l.Validate()
			for _, w := range warnings {
				slog.Warn("Task list", "warning", w)
			}
			return err
		},
	}
}

// EngineCredentials fails when the selected engine lacks required settings.
func EngineCredentials(cfg *config.TTSConfig) Probe {
	return Probe{
		Name:     "Engine Credentials",
		Critical: true,
		Check: func(ctx context.Context) error {
			return engine.CheckCredentials(cfg)
		},
	}
}

// EngineRemote runs the provider's own remote check. Non-critical: the batch reports real failures per task.
func EngineRemote(p tts.Provider) Probe {
	return Probe{
		Name:    "Engine Remote",
		Timeout: 15 * time.Second,
		Check: func(ctx context.Context) error {
			return engine.CheckRemote(ctx, p)
		},
	}
}
