package recorder

import (
	"context"
	"path/filepath"
	"time"

	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/vad"
	"github.com/msto63/meetrec/pkg/core/config"
	"github.com/msto63/meetrec/pkg/core/health"
	"github.com/msto63/meetrec/pkg/core/version"
)

// DefaultCheckTimeout bounds the service reachability check
const DefaultCheckTimeout = 5 * time.Second

// DiagnosticsOptions replaces hardware checks in tests
type DiagnosticsOptions struct {
	Permission audio.PermissionRequester
	Timeout    time.Duration
}

// Diagnostics registers the environment checks the recorder depends on
func Diagnostics(cfg *config.Config, opts DiagnosticsOptions) *health.Registry {
	if opts.Permission == nil {
		opts.Permission = audio.DevicePermission{DeviceName: cfg.Audio.InputDevice}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCheckTimeout
	}

	registry := health.NewRegistry(version.Version)

	registry.RegisterFunc("microphone", func(ctx context.Context) health.CheckResult {
		result := health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "input device available",
			Details: map[string]interface{}{"device": deviceLabel(cfg.Audio.InputDevice)},
		}
		if err := opts.Permission.RequestMicrophone(ctx); err != nil {
			result.Status = health.StatusUnhealthy
			result.Message = err.Error()
		}
		return result
	})

	registry.Register(health.HTTPCheck("transcription-api", cfg.API.BaseURL, opts.Timeout))
	registry.Register(health.DirCheck("database-dir", filepath.Dir(cfg.Storage.Path)))
	registry.Register(health.DirCheck("recordings-dir", cfg.Storage.AudioDir))
	registry.Register(health.DirCheck("clip-dir", cfg.Audio.ClipDir))

	registry.RegisterFunc("speech-analysis", func(ctx context.Context) health.CheckResult {
		if !cfg.VAD.IsEnabled() {
			return health.CheckResult{Status: health.StatusHealthy, Message: "disabled"}
		}
		vadCfg := vad.DefaultConfig()
		vadCfg.Mode = cfg.VAD.Mode
		analyzer, err := vad.NewAnalyzer(vadCfg)
		if err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Message: err.Error()}
		}
		analyzer.Close()
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: "ready",
			Details: map[string]interface{}{"mode": vadCfg.Mode},
		}
	})

	return registry
}

func deviceLabel(name string) string {
	if name == "" {
		return "default"
	}
	return name
}
