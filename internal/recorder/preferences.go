// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     recorder
// Description: Persisted upload preferences
// Author:      Mike Stoffels with Claude
// Created:     2025-12-10
// License:     MIT
// ============================================================================

package recorder

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/msto63/meetrec/internal/recorder/transcribe"
	"github.com/msto63/meetrec/pkg/core/config"
)

// PreferencesFileName is the preferences file inside the data directory
const PreferencesFileName = "preferences.json"

// Languages lists the selectable transcription languages
var Languages = []string{"auto", "nl", "en", "fr", "de"}

// Preferences holds choices made in the recorder that outlive a session
type Preferences struct {
	Language    string `json:"language"`
	Summarize   bool   `json:"summarize"`
	InputDevice string `json:"input_device,omitempty"`
}

// PreferencesPath returns the preferences file for a data directory
func PreferencesPath(dataDir string) string {
	return filepath.Join(dataDir, PreferencesFileName)
}

// LoadPreferences reads path, falling back to configuration values for a
// missing or unreadable file
func LoadPreferences(path string, cfg *config.Config) Preferences {
	prefs := Preferences{
		Language:  cfg.API.Language,
		Summarize: cfg.API.SummarizeEnabled(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}

	var stored Preferences
	if err := json.Unmarshal(data, &stored); err != nil {
		return prefs
	}
	if stored.Language != "" {
		prefs.Language = stored.Language
	}
	prefs.Summarize = stored.Summarize
	prefs.InputDevice = stored.InputDevice
	return prefs
}

// Save writes the preferences as JSON
func (p Preferences) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NextLanguage cycles to the following entry in Languages
func (p Preferences) NextLanguage() Preferences {
	next := Languages[0]
	for i, lang := range Languages {
		if lang == p.Language {
			next = Languages[(i+1)%len(Languages)]
			break
		}
	}
	p.Language = next
	return p
}

// ToggleSummarize flips the summarize flag
func (p Preferences) ToggleSummarize() Preferences {
	p.Summarize = !p.Summarize
	return p
}

// Options returns the upload options
func (p Preferences) Options() transcribe.Options {
	lang := p.Language
	if lang == "" {
		lang = "auto"
	}
	return transcribe.Options{Language: lang, Summarize: p.Summarize}
}
