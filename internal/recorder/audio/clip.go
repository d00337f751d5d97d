// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     audio
// Description: Finalized audio clips and the fixed capture format
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package audio

import (
	"fmt"
	"os"
	"time"
)

const (
	// SampleRate is the capture sample rate (16kHz mono for speech recognition)
	SampleRate = 16000

	// Channels is mono audio
	Channels = 1

	// BitRate is the target bit rate recorded with every clip
	BitRate = 128000

	// MimeType is the container type of every clip
	MimeType = "audio/wav"
)

// Clip is a finalized, immutable recording stored as a WAV file
type Clip struct {
	SourceRef  string
	DurationMs int64
	SampleRate int
	CreatedAt  time.Time

	// SpeechMs is only meaningful when SpeechChecked is set
	SpeechMs      int64
	SpeechChecked bool
}

// Duration returns the clip length
func (c Clip) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// DurationSeconds returns the clip length in seconds
func (c Clip) DurationSeconds() float64 {
	return float64(c.DurationMs) / 1000
}

// Bytes reads the encoded clip
func (c Clip) Bytes() ([]byte, error) {
	if c.SourceRef == "" {
		return nil, fmt.Errorf("clip has no source")
	}
	return os.ReadFile(c.SourceRef)
}

// Remove deletes the clip file
func (c Clip) Remove() error {
	if c.SourceRef == "" {
		return nil
	}
	if err := os.Remove(c.SourceRef); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
