// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     version
// Description: Central version information
// Author:      Mike Stoffels with Claude
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package version

import (
	"fmt"
	"runtime"
)

// Version is the semantic version of meetrec
const Version = "0.4.0"

var (
	// BuildTime is set at build time via ldflags
	BuildTime = ""

	// GitCommit is set at build time via ldflags
	GitCommit = ""
)

// Component versions
const (
	// ClientProtocol is the transcription request format version
	ClientProtocol = "1.0.0"

	// StoreSchema is the recordings database schema version
	StoreSchema = "1.0.0"
)

// ComponentVersion returns the version for a named component
func ComponentVersion(name string) string {
	switch name {
	case "client", "transcribe":
		return ClientProtocol
	case "store":
		return StoreSchema
	default:
		return Version
	}
}

// String returns a one-line version description
func String() string {
	s := "meetrec " + Version
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		s += " (" + commit + ")"
	}
	if BuildTime != "" {
		s += " built " + BuildTime
	}
	return fmt.Sprintf("%s %s/%s", s, runtime.GOOS, runtime.GOARCH)
}
