package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	API      APIConfig      `toml:"api" yaml:"api"`
	Audio    AudioConfig    `toml:"audio" yaml:"audio"`
	Waveform WaveformConfig `toml:"waveform" yaml:"waveform"`
	VAD      VADConfig      `toml:"vad" yaml:"vad"`
	Storage  StorageConfig  `toml:"storage" yaml:"storage"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
}

// APIConfig holds the transcription service settings
type APIConfig struct {
	BaseURL   string   `toml:"base_url" yaml:"base_url"`
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
	Language  string   `toml:"language" yaml:"language"`
	Summarize *bool    `toml:"summarize" yaml:"summarize"`
}

// AudioConfig holds capture and playback settings
type AudioConfig struct {
	InputDevice  string   `toml:"input_device" yaml:"input_device"`
	BufferSize   int      `toml:"buffer_size" yaml:"buffer_size"`
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
	ClipDir      string   `toml:"clip_dir" yaml:"clip_dir"`
}

// WaveformConfig holds waveform model settings
type WaveformConfig struct {
	MaxSamples   int     `toml:"max_samples" yaml:"max_samples"`
	MinAmplitude float64 `toml:"min_amplitude" yaml:"min_amplitude"`
	MaxAmplitude float64 `toml:"max_amplitude" yaml:"max_amplitude"`
}

// VADConfig holds speech analysis settings
type VADConfig struct {
	Enabled *bool `toml:"enabled" yaml:"enabled"`
	Mode    int   `toml:"mode" yaml:"mode"`
}

// StorageConfig holds local recording storage settings
type StorageConfig struct {
	Path     string `toml:"path" yaml:"path"`
	AudioDir string `toml:"audio_dir" yaml:"audio_dir"`
}

// SummarizeEnabled returns the summarize flag, defaulting to true
func (c APIConfig) SummarizeEnabled() bool {
	return c.Summarize == nil || *c.Summarize
}

// IsEnabled returns the VAD flag, defaulting to true
func (c VADConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	return d.UnmarshalText([]byte(value.Value))
}

// MarshalYAML formats the duration as a string
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from MEETREC_CONFIG or a default location.
// When no file exists the defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("MEETREC_CONFIG")
	if path == "" {
		for _, p := range DefaultPaths() {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// DefaultPaths lists the locations searched for a config file
func DefaultPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		"./meetrec.toml",
		"./meetrec.yaml",
		filepath.Join(home, ".config/meetrec/config.toml"),
		filepath.Join(home, ".config/meetrec/config.yaml"),
	}
}

// MaxWaveformSamples is the upper bound for waveform.max_samples
const MaxWaveformSamples = 100

// Validate checks values that have no sensible fallback
func (c *Config) Validate() error {
	if c.Waveform.MinAmplitude > c.Waveform.MaxAmplitude {
		return fmt.Errorf("waveform.min_amplitude %.2f exceeds max_amplitude %.2f",
			c.Waveform.MinAmplitude, c.Waveform.MaxAmplitude)
	}
	if c.Waveform.MaxSamples > MaxWaveformSamples {
		return fmt.Errorf("waveform.max_samples must be at most %d, got %d",
			MaxWaveformSamples, c.Waveform.MaxSamples)
	}
	if c.VAD.Mode < 0 || c.VAD.Mode > 3 {
		return fmt.Errorf("vad.mode must be between 0 and 3, got %d", c.VAD.Mode)
	}
	if c.API.Timeout.Duration < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

// Write encodes the configuration as TOML
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.DataDir == "" {
		c.General.DataDir = filepath.Join(os.Getenv("HOME"), ".local/share/meetrec")
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// API
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:3000"
	}
	if c.API.Timeout.Duration == 0 {
		c.API.Timeout.Duration = 60 * time.Second
	}
	if c.API.Language == "" {
		c.API.Language = "auto"
	}

	// Audio
	if c.Audio.BufferSize == 0 {
		c.Audio.BufferSize = 512
	}
	if c.Audio.PollInterval.Duration == 0 {
		c.Audio.PollInterval.Duration = 100 * time.Millisecond
	}
	if c.Audio.ClipDir == "" {
		c.Audio.ClipDir = filepath.Join(c.General.DataDir, "clips")
	}

	// Waveform
	if c.Waveform.MaxSamples == 0 {
		c.Waveform.MaxSamples = 100
	}
	if c.Waveform.MinAmplitude == 0 {
		c.Waveform.MinAmplitude = 0.1
	}
	if c.Waveform.MaxAmplitude == 0 {
		c.Waveform.MaxAmplitude = 0.9
	}

	// VAD
	if c.VAD.Mode == 0 {
		c.VAD.Mode = 2
	}

	// Storage
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.General.DataDir, "recordings.db")
	}
	if c.Storage.AudioDir == "" {
		c.Storage.AudioDir = filepath.Join(c.General.DataDir, "recordings")
	}
}

// expandEnvVars expands environment variables in configuration values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.API.BaseURL = os.ExpandEnv(c.API.BaseURL)
	c.Audio.ClipDir = os.ExpandEnv(c.Audio.ClipDir)
	c.Storage.Path = os.ExpandEnv(c.Storage.Path)
	c.Storage.AudioDir = os.ExpandEnv(c.Storage.AudioDir)
}

// applyEnvOverrides lets the environment override selected values
func (c *Config) applyEnvOverrides() {
	if base := os.Getenv("MEETREC_API_BASE"); base != "" {
		c.API.BaseURL = base
	}
	if level := os.Getenv("MEETREC_LOG_LEVEL"); level != "" {
		c.General.LogLevel = level
	}
}
