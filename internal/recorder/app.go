// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     recorder
// Description: Application wiring for the interactive recorder
// Author:      Mike Stoffels with Claude
// Created:     2025-12-10
// License:     MIT
// ============================================================================

package recorder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/msto63/meetrec/internal/recorder/audio"
	"github.com/msto63/meetrec/internal/recorder/controller"
	"github.com/msto63/meetrec/internal/recorder/session"
	"github.com/msto63/meetrec/internal/recorder/store"
	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/internal/recorder/vad"
	"github.com/msto63/meetrec/internal/recorder/waveform"
	"github.com/msto63/meetrec/pkg/core/apperr"
	"github.com/msto63/meetrec/pkg/core/config"
	"github.com/msto63/meetrec/pkg/core/logging"
)

// LogFileName is the log file inside the data directory
const LogFileName = "meetrec.log"

// Options configures App construction. Device fields override the
// hardware defaults.
type Options struct {
	Config *config.Config
	Logger *logging.Logger

	Microphone audio.Microphone
	Permission audio.PermissionRequester
	Decoder    audio.Decoder
}

// App wires the recorder components together
type App struct {
	config      *config.Config
	logger      *logging.Logger
	prefsPath   string
	preferences Preferences

	Controller *controller.Controller
	Navigator  *controller.Navigator
	Store      *store.SQLiteStore
	Client     *transcribe.Client

	analyzer *vad.Analyzer
}

// New creates the application from configuration
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("meetrec")
	}

	app := &App{
		config:    cfg,
		logger:    logger,
		prefsPath: PreferencesPath(cfg.General.DataDir),
	}
	app.preferences = LoadPreferences(app.prefsPath, cfg)

	if err := app.initComponents(opts); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

func (a *App) initComponents(opts Options) error {
	var err error
	cfg := a.config

	mic := opts.Microphone
	if mic == nil {
		device := a.preferences.InputDevice
		if device == "" {
			device = cfg.Audio.InputDevice
		}
		mic, err = audio.NewCapture(audio.CaptureConfig{
			SampleRate: audio.SampleRate,
			BufferSize: cfg.Audio.BufferSize,
			DeviceName: device,
		})
		if err != nil {
			return apperr.Wrap(err, apperr.CodeCaptureFailed, "failed to create audio capture")
		}
	}

	permission := opts.Permission
	if permission == nil {
		permission = audio.DevicePermission{DeviceName: cfg.Audio.InputDevice}
	}

	var analyzer session.SpeechAnalyzer
	if cfg.VAD.IsEnabled() {
		vadCfg := vad.DefaultConfig()
		vadCfg.Mode = cfg.VAD.Mode
		a.analyzer, err = vad.NewAnalyzer(vadCfg)
		if err != nil {
			a.logger.Warn("Speech analysis not available", "error", err)
		} else {
			analyzer = a.analyzer
		}
	}

	sess, err := session.New(session.Config{
		Microphone: mic,
		Permission: permission,
		Decoder:    opts.Decoder,
		Analyzer:   analyzer,
		Amplitudes: waveform.RandomSource{
			Min: cfg.Waveform.MinAmplitude,
			Max: cfg.Waveform.MaxAmplitude,
		},
		ClipDir:            cfg.Audio.ClipDir,
		MaxWaveformSamples: cfg.Waveform.MaxSamples,
		PollInterval:       cfg.Audio.PollInterval.Duration,
		Logger:             a.logger.Named("audio-session"),
	})
	if err != nil {
		mic.Close()
		return err
	}

	a.Client, err = NewClient(cfg, a.logger.Named("transcribe"))
	if err != nil {
		sess.Close()
		return err
	}

	a.Store, err = OpenStore(cfg, a.logger.Named("store"))
	if err != nil {
		sess.Close()
		return err
	}

	a.Controller, err = controller.New(controller.Config{
		Session:     sess,
		Transcriber: a.Client,
		Saver:       a.Store,
		Logger:      a.logger.Named("controller"),
	})
	if err != nil {
		sess.Close()
		return err
	}

	a.Navigator = controller.NewNavigator(a.Controller, a.logger.Named("navigator"))

	a.logger.Info("Recorder initialized",
		"api", a.Client.Endpoint(),
		"store", cfg.Storage.Path,
		"speech_analysis", a.analyzer != nil)
	return nil
}

// Preferences returns the persisted user choices
func (a *App) Preferences() Preferences {
	return a.preferences
}

// UpdatePreferences stores new choices; persisting failures are logged
func (a *App) UpdatePreferences(p Preferences) {
	a.preferences = p
	if err := p.Save(a.prefsPath); err != nil {
		a.logger.Warn("Failed to save preferences", "path", a.prefsPath, "error", err)
	}
}

// TranscribeOptions returns upload options for the current preferences
func (a *App) TranscribeOptions() transcribe.Options {
	return a.preferences.Options()
}

// Close releases all components
func (a *App) Close() error {
	var firstErr error
	if a.Controller != nil {
		if err := a.Controller.Close(); err != nil {
			firstErr = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.analyzer != nil {
		a.analyzer.Close()
	}
	return firstErr
}

// NewClient builds the transcription client from configuration
func NewClient(cfg *config.Config, logger *logging.Logger) (*transcribe.Client, error) {
	return transcribe.NewClient(transcribe.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout.Duration,
		Logger:  logger,
	})
}

// OpenStore opens the recordings database from configuration
func OpenStore(cfg *config.Config, logger *logging.Logger) (*store.SQLiteStore, error) {
	return store.New(store.Config{
		Path:     cfg.Storage.Path,
		AudioDir: cfg.Storage.AudioDir,
		Logger:   logger,
	})
}

// NewLogger creates the root logger for the given output
func NewLogger(cfg *config.Config, out io.Writer) *logging.Logger {
	return logging.NewLogger(logging.LoggerConfig{
		ServiceName: "meetrec",
		Level:       cfg.General.LogLevel,
		Format:      cfg.General.LogFormat,
		Output:      out,
	})
}

// OpenLogFile opens the append-only log file in the data directory
func OpenLogFile(cfg *config.Config) (*os.File, error) {
	if err := os.MkdirAll(cfg.General.DataDir, 0755); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to create data directory")
	}
	path := filepath.Join(cfg.General.DataDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeConfigError, "failed to open log file")
	}
	return f, nil
}
