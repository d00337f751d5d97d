package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meetrec.toml")
	content := `
[api]
base_url = "http://from-file:3000"
language = "nl"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	oldFile, oldBase, oldVerbose := cfgFile, apiBase, verbose
	defer func() { cfgFile, apiBase, verbose = oldFile, oldBase, oldVerbose }()

	cfgFile = path
	apiBase = ""
	verbose = false
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://from-file:3000" {
		t.Errorf("BaseURL = %q, want file value", cfg.API.BaseURL)
	}
	if cfg.API.Language != "nl" {
		t.Errorf("Language = %q, want nl", cfg.API.Language)
	}

	apiBase = "http://from-flag:9000"
	verbose = true
	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "http://from-flag:9000" {
		t.Errorf("BaseURL = %q, want flag value", cfg.API.BaseURL)
	}
	if cfg.General.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug with --verbose", cfg.General.LogLevel)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	oldFile := cfgFile
	defer func() { cfgFile = oldFile }()

	cfgFile = filepath.Join(t.TempDir(), "missing.toml")
	if _, err := loadConfig(); err == nil {
		t.Error("loadConfig() with missing file returned nil error")
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatSeconds(65), "1:05"},
		{formatSeconds(0), "0:00"},
		{truncate("short", 10), "short"},
		{truncate("a very long meeting title", 10), "a very ..."},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
