// ============================================================================
// meetrec - Meeting Recorder
// ============================================================================
//
// Package:     vad
// Description: WebRTC VAD frame detector
// Author:      Mike Stoffels with Claude
// Created:     2025-12-07
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCVAD classifies frames using WebRTC's VAD
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
	buf        []byte
}

// NewWebRTCVAD creates a new WebRTC VAD instance
func NewWebRTCVAD(cfg Config) (*WebRTCVAD, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	mode := cfg.Mode
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}

	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d, must be one of [8000 16000 32000 48000]", cfg.SampleRate)
	}

	return &WebRTCVAD{
		vad:        vad,
		sampleRate: cfg.SampleRate,
		mode:       mode,
	}, nil
}

// FrameSize returns the number of samples in 10ms
func (w *WebRTCVAD) FrameSize() int {
	return w.sampleRate / 100
}

// IsSpeech classifies one frame of FrameSize samples
func (w *WebRTCVAD) IsSpeech(frame []int16) (bool, error) {
	if len(frame) != w.FrameSize() {
		return false, fmt.Errorf("frame has %d samples, want %d", len(frame), w.FrameSize())
	}

	if cap(w.buf) < len(frame)*2 {
		w.buf = make([]byte, len(frame)*2)
	}
	w.buf = w.buf[:len(frame)*2]
	for i, s := range frame {
		w.buf[i*2] = byte(s)
		w.buf[i*2+1] = byte(s >> 8)
	}

	active, err := w.vad.Process(w.sampleRate, w.buf)
	if err != nil {
		return false, fmt.Errorf("VAD processing failed: %w", err)
	}
	return active, nil
}

// Mode returns the aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}

// Close releases resources
func (w *WebRTCVAD) Close() error {
	return nil
}
