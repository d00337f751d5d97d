// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     vad
// Description: Speech analysis for finished recordings
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package vad

import (
	"time"
)

// FrameDetector classifies a single 10ms frame of 16-bit samples
type FrameDetector interface {
	IsSpeech(frame []int16) (bool, error)
	FrameSize() int
	Close() error
}

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000 or 48000)
	SampleRate int

	// Mode/Aggressiveness (0-3, higher = more aggressive filtering)
	Mode int

	// MinSpeechDuration is the least speech for a clip to count as spoken
	MinSpeechDuration time.Duration
}

// DefaultConfig returns default VAD configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Mode:              2,
		MinSpeechDuration: 500 * time.Millisecond,
	}
}

// Report summarizes the speech content of a clip
type Report struct {
	Frames       int
	SpeechFrames int
	Speech       time.Duration
	FirstSpeech  time.Duration
	HasSpeech    bool
}

// Ratio returns the fraction of frames classified as speech
func (r Report) Ratio() float64 {
	if r.Frames == 0 {
		return 0
	}
	return float64(r.SpeechFrames) / float64(r.Frames)
}

// Analyzer measures speech in complete sample buffers
type Analyzer struct {
	detector  FrameDetector
	frameTime time.Duration
	minSpeech time.Duration
}

// NewAnalyzer creates an analyzer backed by WebRTC VAD
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	detector, err := NewWebRTCVAD(cfg)
	if err != nil {
		return nil, err
	}
	return NewAnalyzerWithDetector(detector, cfg), nil
}

// NewAnalyzerWithDetector creates an analyzer around any frame detector
func NewAnalyzerWithDetector(detector FrameDetector, cfg Config) *Analyzer {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	return &Analyzer{
		detector:  detector,
		frameTime: time.Duration(detector.FrameSize()) * time.Second / time.Duration(cfg.SampleRate),
		minSpeech: cfg.MinSpeechDuration,
	}
}

// Analyze classifies every whole frame of samples. A trailing partial frame
// is ignored.
func (a *Analyzer) Analyze(samples []float32) (Report, error) {
	var report Report
	size := a.detector.FrameSize()
	frame := make([]int16, size)

	for i := 0; i+size <= len(samples); i += size {
		toInt16(samples[i:i+size], frame)

		speech, err := a.detector.IsSpeech(frame)
		if err != nil {
			return report, err
		}

		if speech {
			if report.SpeechFrames == 0 {
				report.FirstSpeech = time.Duration(report.Frames) * a.frameTime
			}
			report.SpeechFrames++
		}
		report.Frames++
	}

	report.Speech = time.Duration(report.SpeechFrames) * a.frameTime
	report.HasSpeech = report.SpeechFrames > 0 && report.Speech >= a.minSpeech
	return report, nil
}

// Close releases the detector
func (a *Analyzer) Close() error {
	return a.detector.Close()
}

func toInt16(in []float32, out []int16) {
	for i, s := range in {
		if s > 1.0 {
			s = 1.0
		}
		if s < -1.0 {
			s = -1.0
		}
		out[i] = int16(s * 32767)
	}
}
