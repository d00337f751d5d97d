// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     ui
// Description: Styles for the recorder TUI
// Author:      Mike Stoffels with Claude
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color Palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorWarning   = lipgloss.Color("#F59E0B") // Amber
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray

	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
)

// Header styles
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StateStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	RecordingStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)
)

// Waveform styles
var (
	PlayedBarStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	PendingBarStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	LevelStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)
)

// Transcript styles
var (
	SectionStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true).
			MarginTop(1)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	TagStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	BodyStyle = lipgloss.NewStyle().
			Foreground(ColorText)
)

// Status and help styles
var (
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)
)

// Icons
const (
	IconMic   = "● "
	IconPlay  = "▶ "
	IconPause = "⏸ "
	IconSaved = "✓ "
	IconError = "✗ "
)

// bars maps an amplitude in [0, 1] to a block height
var bars = []rune("▁▂▃▄▅▆▇█")

// RenderHelp renders a key/description pair
func RenderHelp(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}
